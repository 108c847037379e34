package admin

import (
	"context"
	"errors"
	"log"

	"chat-client/internal/models"
)

// Permission errors surfaced before any request leaves the client. The server
// enforces the same rules; these gates just keep the UI honest.
var (
	ErrNotPermitted  = errors.New("role does not permit this action")
	ErrDirectChannel = errors.New("not available for direct channels")
	ErrNotMember     = errors.New("viewer is not a member of this channel")
)

// API is the slice of the REST client the admin surface needs.
type API interface {
	GetChannel(ctx context.Context, channelID string) (models.Channel, error)
	UpdateChannel(ctx context.Context, channelID string, settings models.ChannelSettings) (models.Channel, error)
	ArchiveChannel(ctx context.Context, channelID string) error
	ListMembers(ctx context.Context, channelID string) ([]models.Member, error)
	RemoveMember(ctx context.Context, channelID, userID string) error
	CreateInvite(ctx context.Context, channelID, userID string) (models.Invite, error)
}

// Service gates channel administration behind the viewer's role and forwards
// permitted actions to the server.
type Service struct {
	api    API
	userID string

	// onArchive runs after a successful archive so the caller can tear down
	// channel state (store eviction, socket leave).
	onArchive func(channelID string)
}

// New builds a Service for the given viewer.
func New(api API, userID string, onArchive func(channelID string)) *Service {
	return &Service{api: api, userID: userID, onArchive: onArchive}
}

// viewerRole resolves the viewer's role from the channel's own membership.
func (s *Service) viewerRole(channel models.Channel) (string, error) {
	if channel.Membership == nil || channel.Membership.UserID != s.userID {
		return "", ErrNotMember
	}
	return channel.Membership.Role, nil
}

// CanEditSettings reports whether the viewer may change channel settings.
func (s *Service) CanEditSettings(channel models.Channel) bool {
	role, err := s.viewerRole(channel)
	return err == nil && models.RoleAtLeast(role, models.RoleAdmin)
}

// CanInvite reports whether the viewer may invite users. Direct channels have
// a fixed participant set and never allow invites.
func (s *Service) CanInvite(channel models.Channel) bool {
	if channel.IsDirect() {
		return false
	}
	role, err := s.viewerRole(channel)
	return err == nil && models.RoleAtLeast(role, models.RoleAdmin)
}

// CanRemove reports whether the viewer may remove the given member. Members
// may always remove themselves (leave). Otherwise moderators and up may remove
// ordinary members only; managers never remove other managers here. Demote
// first, then remove.
func (s *Service) CanRemove(channel models.Channel, target models.Member) bool {
	if target.User.ID == s.userID {
		return true
	}
	if channel.IsDirect() {
		return false
	}
	role, err := s.viewerRole(channel)
	if err != nil || !models.RoleAtLeast(role, models.RoleModerator) {
		return false
	}
	return target.Role == models.RoleMember
}

// UpdateSettings saves channel settings after the role gate. The channel name
// is the only required field; the type is immutable and not part of settings.
func (s *Service) UpdateSettings(ctx context.Context, channel models.Channel, settings models.ChannelSettings) (models.Channel, error) {
	if !s.CanEditSettings(channel) {
		return models.Channel{}, ErrNotPermitted
	}
	updated, err := s.api.UpdateChannel(ctx, channel.ID, settings)
	if err != nil {
		return models.Channel{}, err
	}
	log.Printf("admin: updated settings for channel %s", channel.ID)
	return updated, nil
}

// Members lists channel members. Direct channels expose no member browsing.
func (s *Service) Members(ctx context.Context, channel models.Channel) ([]models.Member, error) {
	if channel.IsDirect() {
		return nil, ErrDirectChannel
	}
	return s.api.ListMembers(ctx, channel.ID)
}

// Remove removes a member, or leaves the channel when the target is the
// viewer themselves.
func (s *Service) Remove(ctx context.Context, channel models.Channel, target models.Member) error {
	if !s.CanRemove(channel, target) {
		return ErrNotPermitted
	}
	return s.api.RemoveMember(ctx, channel.ID, target.User.ID)
}

// Invite invites a user into the channel.
func (s *Service) Invite(ctx context.Context, channel models.Channel, userID string) (models.Invite, error) {
	if !s.CanInvite(channel) {
		if channel.IsDirect() {
			return models.Invite{}, ErrDirectChannel
		}
		return models.Invite{}, ErrNotPermitted
	}
	return s.api.CreateInvite(ctx, channel.ID, userID)
}

// Archive soft-removes the channel. Owner only; on success local channel
// state is torn down through the onArchive hook.
func (s *Service) Archive(ctx context.Context, channel models.Channel) error {
	role, err := s.viewerRole(channel)
	if err != nil {
		return err
	}
	if !models.RoleAtLeast(role, models.RoleOwner) {
		return ErrNotPermitted
	}
	if err := s.api.ArchiveChannel(ctx, channel.ID); err != nil {
		return err
	}
	log.Printf("admin: archived channel %s", channel.ID)
	if s.onArchive != nil {
		s.onArchive(channel.ID)
	}
	return nil
}
