package ports

import (
	"context"
	"time"

	"github.com/human-tech/signatory/core"
)

// Store holds pending verification sessions and per-user cooldown state.
// Every method is atomic with respect to other calls for the same user.
type Store interface {
	// CheckCooldown records now as the user's last attempt and returns
	// allowed=true, unless a previous attempt is still inside the cooldown
	// window, in which case nothing is written and the remaining window is
	// returned. The check and the write are a single atomic step.
	CheckCooldown(ctx context.Context, userID string, now time.Time) (allowed bool, remaining time.Duration, err error)

	// PutSession stores the session, replacing any existing one for the user.
	PutSession(ctx context.Context, session *core.Session) error

	// GetSession returns the user's pending session, or
	// core.ErrNoActiveSession if there is none.
	GetSession(ctx context.Context, userID string) (*core.Session, error)

	// BumpAttempts increments the session's failed-attempt counter and
	// returns the new count, or core.ErrNoActiveSession.
	BumpAttempts(ctx context.Context, userID string) (int, error)

	// DeleteSession consumes the session. Returns core.ErrNoActiveSession
	// if another caller consumed it first.
	DeleteSession(ctx context.Context, userID string) error
}
