package ports

import (
	"context"

	"github.com/human-tech/signatory/core"
)

// EventPublisher publishes verification outcomes for downstream consumers.
type EventPublisher interface {
	PublishVerified(ctx context.Context, userID string, result *core.VerificationResult) error
}
