package core

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrCooldownActive    = errors.New("verification cooldown active")
	ErrNotEligible       = errors.New("wallet not eligible")
	ErrNoActiveSession   = errors.New("no active verification session")
	ErrSignatureMismatch = errors.New("signature mismatch")
	ErrInvalidSignature  = errors.New("invalid signature")
	ErrChallengeExpired  = errors.New("challenge has expired")
	ErrChannelCreate     = errors.New("failed to create verification channel")
	ErrRoleNotFound      = errors.New("role not found in catalog")
)

// CooldownError reports how long until the user may attempt again.
type CooldownError struct {
	Remaining time.Duration
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("verification cooldown active, retry in %d seconds", e.RemainingSeconds())
}

// RemainingSeconds rounds the remaining window up to whole seconds.
func (e *CooldownError) RemainingSeconds() int {
	return int((e.Remaining + time.Second - 1) / time.Second)
}

// Is makes errors.Is(err, ErrCooldownActive) match a *CooldownError.
func (e *CooldownError) Is(target error) bool {
	return target == ErrCooldownActive
}
