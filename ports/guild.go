package ports

import "context"

// Guild abstracts the chat-platform surface the verification flow needs.
type Guild interface {
	// MemberName returns the display name used for the private channel name.
	MemberName(ctx context.Context, userID string) (string, error)

	// CreatePrivateChannel creates a text channel visible only to the user
	// and the service identity, returning its ID.
	CreatePrivateChannel(ctx context.Context, userID, name string) (channelID string, err error)

	SendMessage(ctx context.Context, channelID, content string) error

	DeleteChannel(ctx context.Context, channelID string) error

	// GrantRole grants the named role to the member. Granting a role the
	// member already holds is a no-op. Returns core.ErrRoleNotFound when
	// the role is absent from the guild's catalog.
	GrantRole(ctx context.Context, userID, roleName string) error
}
