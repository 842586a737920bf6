package core

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Challenge is the message a user must sign to prove wallet control.
type Challenge struct {
	ID        string    // Unique identifier for the challenge
	UserID    string    // Chat-platform user the challenge was issued to
	Wallet    string    // Claimed wallet address, lowercased
	Nonce     string    // Random nonce embedded in the signed payload
	IssuedAt  time.Time // When the challenge was created
	ExpiresAt time.Time // When the challenge expires
}

// Session binds a user to a pending verification attempt. At most one
// session exists per user; it is consumed exactly once.
type Session struct {
	UserID    string    `json:"user_id"`
	Wallet    string    `json:"wallet"`
	Challenge string    `json:"challenge"` // compact challenge token
	ChannelID string    `json:"channel_id"`
	CreatedAt time.Time `json:"created_at"`
	Attempts  int       `json:"attempts"`
}

// Issuance is the outcome of a successful challenge issuance.
type Issuance struct {
	ChannelID string
	SignerURL string
}

// VerificationResult is the outcome of a successful signature verification.
type VerificationResult struct {
	Wallet string
	Score  decimal.Decimal
	Roles  []string
}

// WhitelistEntry is the read-only view of a registry record.
type WhitelistEntry struct {
	WalletAddress  string `json:"walletAddress"`
	CovenantStatus string `json:"covenantStatus"`
	HumanityStatus string `json:"humanityStatus"`
}

// Matches reports whether the entry makes the given wallet eligible:
// the address matches and the entry is SIGNED and VERIFIED. All three
// comparisons are case-insensitive.
func (e WhitelistEntry) Matches(wallet string) bool {
	return strings.EqualFold(e.WalletAddress, wallet) &&
		strings.EqualFold(e.CovenantStatus, "SIGNED") &&
		strings.EqualFold(e.HumanityStatus, "VERIFIED")
}

// RoleTier grants Role when a reputation score reaches Threshold.
// Tiers are evaluated independently, not mutually exclusively.
type RoleTier struct {
	Threshold decimal.Decimal
	Role      string
}

// ParseRoleTiers parses a tier list of the form
// "70:Chosen One,20:O.G. HUMN". Order is preserved.
func ParseRoleTiers(s string) ([]RoleTier, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}

	parts := strings.Split(s, ",")
	tiers := make([]RoleTier, 0, len(parts))
	for _, part := range parts {
		threshold, role, ok := strings.Cut(part, ":")
		if !ok {
			return nil, fmt.Errorf("malformed role tier %q: want <threshold>:<role>", part)
		}

		d, err := decimal.NewFromString(strings.TrimSpace(threshold))
		if err != nil {
			return nil, fmt.Errorf("malformed role tier threshold %q: %w", threshold, err)
		}

		role = strings.TrimSpace(role)
		if role == "" {
			return nil, fmt.Errorf("malformed role tier %q: empty role name", part)
		}

		tiers = append(tiers, RoleTier{Threshold: d, Role: role})
	}

	return tiers, nil
}
