package ports

import (
	"context"

	"github.com/human-tech/signatory/core"
	"github.com/shopspring/decimal"
)

// EligibilitySource answers whether a wallet is on the signed-and-verified
// whitelist. Lookup returns a nil entry when the wallet is not eligible;
// transport and parse failures surface as errors for the caller to decide.
type EligibilitySource interface {
	Lookup(ctx context.Context, wallet string) (*core.WhitelistEntry, error)
}

// ReputationSource returns a wallet's reputation score. Failures surface as
// errors; the default-to-zero policy belongs to the caller, not the adapter.
type ReputationSource interface {
	Score(ctx context.Context, wallet string) (decimal.Decimal, error)
}
