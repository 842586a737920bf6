package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/human-tech/signatory/core"
	"github.com/human-tech/signatory/ports"
)

// VerifiedEvent is published after a wallet has been verified and roles
// have been granted.
type VerifiedEvent struct {
	UserID string   `json:"user_id"`
	Wallet string   `json:"wallet"`
	Score  string   `json:"score"`
	Roles  []string `json:"roles"`
}

// WatermillPublisher implements the EventPublisher interface using Watermill.
type WatermillPublisher struct {
	publisher message.Publisher
	topic     string
}

// NewWatermillPublisher creates a new Watermill publisher.
func NewWatermillPublisher(publisher message.Publisher) ports.EventPublisher {
	return &WatermillPublisher{
		publisher: publisher,
		topic:     "signatory.verified",
	}
}

// PublishVerified publishes a verification event.
func (p *WatermillPublisher) PublishVerified(ctx context.Context, userID string, result *core.VerificationResult) error {
	event := VerifiedEvent{
		UserID: userID,
		Wallet: result.Wallet,
		Score:  result.Score.String(),
		Roles:  result.Roles,
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)

	if err := p.publisher.Publish(p.topic, msg); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}
