package telemetry

import (
	"context"
	"log"
	"time"
)

// Publisher publishes audit events.
type Publisher interface {
	PublishJSON(ctx context.Context, routingKey string, event any, headers map[string]string) error
	Close() error
}

// AuditEmitter emits structured audit events for user-visible actions
// (sends, moderation, channel administration).
type AuditEmitter struct {
	publisher   Publisher
	routingKey  string
	service     string
	environment string
}

// AuditEnvelope is the versioned audit event schema.
type AuditEnvelope struct {
	SchemaVersion int          `json:"schema_version"`
	EventType     string       `json:"event_type"`
	OccurredAt    string       `json:"occurred_at"`
	Service       string       `json:"service"`
	Environment   string       `json:"environment"`
	SessionID     string       `json:"session_id"`
	UserID        string       `json:"user_id,omitempty"`
	Payload       AuditPayload `json:"payload"`
}

// AuditPayload carries the free-form part of an audit event.
type AuditPayload struct {
	Action    string `json:"action"`
	ChannelID string `json:"channel_id,omitempty"`
	Text      string `json:"text"`
}

// NewAuditEmitter builds an emitter bound to one publisher and routing key.
func NewAuditEmitter(publisher Publisher, routingKey, service, environment string) *AuditEmitter {
	return &AuditEmitter{
		publisher:   publisher,
		routingKey:  routingKey,
		service:     service,
		environment: environment,
	}
}

// Emit publishes one audit event. A nil emitter or publisher is a no-op so
// call sites never need the nil check.
func (e *AuditEmitter) Emit(ctx context.Context, action, channelID, text, sessionID, userID string) {
	if e == nil || e.publisher == nil {
		return
	}

	log.Printf("audit emit: action=%s channel_id=%s session_id=%s text=%q", action, channelID, sessionID, text)
	envelope := AuditEnvelope{
		SchemaVersion: 1,
		EventType:     "audit_log",
		OccurredAt:    time.Now().UTC().Format(time.RFC3339Nano),
		Service:       e.service,
		Environment:   e.environment,
		SessionID:     sessionID,
		UserID:        userID,
		Payload: AuditPayload{
			Action:    action,
			ChannelID: channelID,
			Text:      text,
		},
	}

	headers := map[string]string{}
	if sessionID != "" {
		headers["x-session-id"] = sessionID
	}
	if err := e.publisher.PublishJSON(ctx, e.routingKey, envelope, headers); err != nil {
		log.Printf("audit publish failed: %v", err)
	}
}
