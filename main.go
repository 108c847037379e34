package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"chat-client/internal/admin"
	"chat-client/internal/composer"
	"chat-client/internal/config"
	"chat-client/internal/models"
	"chat-client/internal/observability"
	"chat-client/internal/presence"
	"chat-client/internal/protocol"
	"chat-client/internal/rabbitmq"
	"chat-client/internal/rest"
	"chat-client/internal/session"
	"chat-client/internal/store"
	"chat-client/internal/telemetry"
	"chat-client/internal/thread"
	"chat-client/internal/transport"
)

const serviceName = "chat-client"

func main() {
	cfg := config.Load()
	if cfg.Debug {
		log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)
		log.Printf("config: server=%s socket=%s channel=%s metrics=%q amqp=%q otlp=%q",
			cfg.ServerURL, cfg.SocketURL, cfg.ChannelID, cfg.MetricsAddr, cfg.AMQPURL, cfg.OTLPEndpoint)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.SetupTracing(ctx, cfg.OTLPEndpoint, serviceName, cfg.Environment)
	if err != nil {
		log.Fatalf("failed to set up tracing: %v", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			log.Printf("tracing shutdown: %v", err)
		}
	}()

	publisher := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
	defer publisher.Close()
	if reason := rabbitmq.NoopReason(publisher); reason != "" {
		log.Printf("event publishing off: %s", reason)
	}
	observability.SetPublisher(publisher)
	audit := telemetry.NewAuditEmitter(publisher, "chat_client.audit", serviceName, cfg.Environment)

	if cfg.MetricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			log.Printf("metrics listening on %s", cfg.MetricsAddr)
			if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
				log.Printf("metrics server: %v", err)
			}
		}()
	}

	api := rest.NewClient(cfg.ServerURL, cfg.Token)

	sess := session.New(session.Config{
		SocketURL: cfg.SocketURL,
		Token:     cfg.Token,
		UserID:    cfg.UserID,
		Debug:     cfg.Debug,
	})
	if err := sess.Connect(ctx); err != nil {
		if !errors.Is(err, session.ErrNoCredential) {
			log.Fatalf("session connect: %v", err)
		}
		log.Printf("no credential, running REST-only")
	}
	defer sess.Close()

	selector := func() transport.Transport { return transport.Select(sess, api) }

	channelStore := store.New(api, api, sess, selector, cfg.UserID)
	tracker := presence.NewTracker()
	threadState := &thread.State{}

	// threadView is written by the CLI goroutine and read by the session's
	// read loop, so every access goes through the mutex.
	var threadMu sync.Mutex
	var threadView *thread.View
	currentThread := func() *thread.View {
		threadMu.Lock()
		defer threadMu.Unlock()
		return threadView
	}

	cancelHandle := sess.Handle(func(event protocol.Event) {
		channelStore.Apply(event)
		tracker.Apply(event)
		if view := currentThread(); view != nil {
			view.Apply(event)
		}
	})
	defer cancelHandle()

	// REST-path sends produce no socket echo; thread replies land in the open
	// panel, everything else in the main timeline.
	appendLocal := func(msg models.ChatMessage) {
		if msg.ThreadParentID != nil {
			if view := currentThread(); view != nil {
				view.AppendLocal(msg)
			}
			return
		}
		channelStore.AppendLocal(msg)
	}

	comp := composer.New(cfg.ChannelID, api, sess, selector, appendLocal)
	defer comp.Close()

	adminSvc := admin.New(api, cfg.UserID, func(channelID string) {
		sess.LeaveChannel(channelID)
		audit.Emit(context.Background(), "channel_archive", channelID, "channel archived", sess.ID(), cfg.UserID)
	})

	if cfg.ChannelID == "" {
		log.Fatalf("CHAT_CHANNEL_ID is required")
	}
	sess.JoinChannel(cfg.ChannelID)
	if err := channelStore.Load(ctx, cfg.ChannelID); err != nil {
		log.Fatalf("load channel %s: %v", cfg.ChannelID, err)
	}

	channelStore.OnChange(func(snap store.Snapshot) {
		renderTail(snap, tracker)
	})

	cli := &cliLoop{
		cfg:         cfg,
		api:         api,
		sess:        sess,
		store:       channelStore,
		tracker:     tracker,
		comp:        comp,
		admin:       adminSvc,
		audit:       audit,
		threadState: threadState,
		openThread: func(parentID string) *thread.View {
			view := thread.NewView(api, parentID)
			threadMu.Lock()
			threadView = view
			threadMu.Unlock()
			return view
		},
		closeThread: func() {
			threadMu.Lock()
			threadView = nil
			threadMu.Unlock()
		},
	}
	cli.run(ctx)

	sess.LeaveChannel(cfg.ChannelID)
	log.Printf("bye")
}

// renderTail prints the newest messages plus the typing line after each
// state change. Plain stdout keeps the client usable over any terminal.
func renderTail(snap store.Snapshot, tracker *presence.Tracker) {
	const tail = 10
	msgs := snap.Messages
	if len(msgs) > tail {
		msgs = msgs[len(msgs)-tail:]
	}
	for _, msg := range msgs {
		printMessage(msg)
	}
	if snap.HistoryNotice {
		fmt.Println("-- older history is available on the Pro plan --")
	}
	if line := presence.FormatTyping(typingNames(snap, tracker)); line != "" {
		fmt.Println(line)
	}
	fmt.Println("----")
}

func typingNames(snap store.Snapshot, tracker *presence.Tracker) []string {
	ids := tracker.TypingIn(snap.Channel.ID)
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		name := id
		for _, msg := range snap.Messages {
			if msg.SenderID == id && msg.SenderDisplayName != "" {
				name = msg.SenderDisplayName
				break
			}
		}
		names = append(names, name)
	}
	return names
}

func printMessage(msg models.ChatMessage) {
	name := msg.SenderDisplayName
	if name == "" {
		name = msg.SenderID
	}
	line := fmt.Sprintf("[%s] %s: %s", msg.CreatedAt.Format("15:04"), name, msg.Content)
	if msg.EditedAt != nil && !msg.IsDeleted {
		line += " (edited)"
	}
	if msg.IsPinned {
		line += " *"
	}
	fmt.Println(line)
	for _, group := range models.GroupReactions(msg.Reactions) {
		fmt.Printf("    %s %d\n", group.Emoji, group.Count)
	}
}

type cliLoop struct {
	cfg         *config.Config
	api         *rest.Client
	sess        *session.Session
	store       *store.ChannelStore
	tracker     *presence.Tracker
	comp        *composer.Composer
	admin       *admin.Service
	audit       *telemetry.AuditEmitter
	threadState *thread.State
	openThread  func(parentID string) *thread.View
	closeThread func()
}

// run reads stdin line by line until EOF or shutdown. A line starting with
// '/' is a command; anything else is sent as a message.
func (c *cliLoop) run(ctx context.Context) {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			if strings.HasPrefix(line, "/") {
				if quit := c.command(ctx, line); quit {
					return
				}
				continue
			}
			if strings.TrimSpace(line) == "" {
				continue
			}
			c.comp.SetText(line, len(line))
			if err := c.comp.Send(ctx); err != nil {
				log.Printf("send failed (draft kept): %v", err)
			}
		}
	}
}

func (c *cliLoop) command(ctx context.Context, line string) (quit bool) {
	fields := strings.Fields(line)
	switch fields[0] {
	case "/quit":
		return true
	case "/older":
		if err := c.store.LoadOlder(ctx); err != nil {
			log.Printf("load older: %v", err)
		}
	case "/react":
		if len(fields) < 3 {
			fmt.Println("usage: /react <message-id> <emoji>")
			return false
		}
		if err := c.store.React(ctx, fields[1], fields[2]); err != nil {
			log.Printf("react: %v", err)
		}
	case "/edit":
		if len(fields) < 3 {
			fmt.Println("usage: /edit <message-id> <content>")
			return false
		}
		content := strings.TrimSpace(strings.TrimPrefix(line, "/edit "+fields[1]))
		if err := c.store.Edit(ctx, fields[1], content); err != nil {
			log.Printf("edit: %v", err)
		}
	case "/delete":
		if len(fields) < 2 {
			fmt.Println("usage: /delete <message-id>")
			return false
		}
		if err := c.store.Delete(ctx, fields[1]); err != nil {
			log.Printf("delete: %v", err)
		} else {
			c.audit.Emit(ctx, "message_delete", c.cfg.ChannelID, fields[1], c.sess.ID(), c.cfg.UserID)
		}
	case "/pin":
		if len(fields) < 2 {
			fmt.Println("usage: /pin <message-id>")
			return false
		}
		if err := c.store.Pin(ctx, fields[1]); err != nil {
			log.Printf("pin: %v", err)
		}
	case "/bookmark":
		if len(fields) < 2 {
			fmt.Println("usage: /bookmark <message-id>")
			return false
		}
		if err := c.store.Bookmark(ctx, fields[1]); err != nil {
			log.Printf("bookmark: %v", err)
		}
	case "/thread":
		if len(fields) < 2 {
			fmt.Println("usage: /thread <message-id>")
			return false
		}
		c.threadState.Open(fields[1], c.cfg.ChannelID)
		view := c.openThread(fields[1])
		c.comp.SetThreadParent(fields[1])
		if err := view.Load(ctx); err != nil {
			log.Printf("thread load: %v", err)
			return false
		}
		printMessage(view.Parent())
		for _, reply := range view.Replies() {
			fmt.Print("  > ")
			printMessage(reply)
		}
	case "/closethread":
		c.threadState.Close()
		c.closeThread()
		c.comp.SetThreadParent("")
	case "/members":
		snap := c.store.Snapshot()
		members, err := c.admin.Members(ctx, snap.Channel)
		if err != nil {
			log.Printf("members: %v", err)
			return false
		}
		for _, member := range members {
			fmt.Printf("%s (%s) %s\n", member.User.Name(), member.Role, c.tracker.Status(member.User.ID).Status)
		}
	case "/invite":
		if len(fields) < 2 {
			fmt.Println("usage: /invite <user-id>")
			return false
		}
		snap := c.store.Snapshot()
		if _, err := c.admin.Invite(ctx, snap.Channel, fields[1]); err != nil {
			log.Printf("invite: %v", err)
		}
	case "/kick":
		if len(fields) < 2 {
			fmt.Println("usage: /kick <user-id>")
			return false
		}
		snap := c.store.Snapshot()
		members, err := c.admin.Members(ctx, snap.Channel)
		if err != nil {
			log.Printf("members: %v", err)
			return false
		}
		for _, member := range members {
			if member.User.ID == fields[1] {
				if err := c.admin.Remove(ctx, snap.Channel, member); err != nil {
					log.Printf("remove: %v", err)
				} else {
					c.audit.Emit(ctx, "member_remove", snap.Channel.ID, member.User.ID, c.sess.ID(), c.cfg.UserID)
				}
				return false
			}
		}
		log.Printf("no such member: %s", fields[1])
	case "/topic":
		snap := c.store.Snapshot()
		settings := models.ChannelSettings{
			Name:            snap.Channel.Name,
			Topic:           strings.TrimSpace(strings.TrimPrefix(line, "/topic")),
			Description:     snap.Channel.Description,
			SlowModeSeconds: snap.Channel.SlowModeSeconds,
		}
		if _, err := c.admin.UpdateSettings(ctx, snap.Channel, settings); err != nil {
			log.Printf("update settings: %v", err)
		}
	case "/archive":
		snap := c.store.Snapshot()
		if err := c.admin.Archive(ctx, snap.Channel); err != nil {
			log.Printf("archive: %v", err)
			return false
		}
		return true
	case "/pins":
		pinned, err := c.api.PinnedMessages(ctx, c.cfg.ChannelID)
		if err != nil {
			log.Printf("pins: %v", err)
			return false
		}
		for _, msg := range pinned {
			printMessage(msg)
		}
	case "/leave":
		if err := c.api.LeaveChannel(ctx, c.cfg.ChannelID); err != nil {
			log.Printf("leave: %v", err)
			return false
		}
		c.sess.LeaveChannel(c.cfg.ChannelID)
		return true
	case "/gif":
		if len(fields) < 2 {
			fmt.Println("usage: /gif <url>")
			return false
		}
		c.comp.AttachGif(fields[1])
		if err := c.comp.Send(ctx); err != nil {
			log.Printf("send failed (draft kept): %v", err)
		}
	default:
		fmt.Printf("unknown command %s\n", fields[0])
	}
	return false
}
