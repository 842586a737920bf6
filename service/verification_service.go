package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/google/uuid"
	"github.com/human-tech/signatory/core"
	"github.com/human-tech/signatory/internal/eth"
	"github.com/human-tech/signatory/ports"
	"github.com/shopspring/decimal"
)

// Config carries the tunables of the verification flow.
type Config struct {
	// ExternalURL is the externally reachable base URL of the signer page.
	ExternalURL string
	// BaseRole is granted on every successful verification.
	BaseRole string
	// Tiers are additional roles granted when the reputation score reaches
	// their threshold.
	Tiers []core.RoleTier
	// ChallengeTTL bounds how long an issued challenge stays signable.
	ChallengeTTL time.Duration
	// MaxAttempts bounds failed signature submissions per session; the
	// attempt that exhausts the cap consumes the session.
	MaxAttempts int
	// ChannelDeleteDelay is how long the outcome message stays readable
	// before the private channel is torn down.
	ChannelDeleteDelay time.Duration
}

// VerificationService orchestrates the challenge-response wallet
// verification flow: cooldown gating, eligibility, challenge issuance,
// signature verification, role grants and cleanup.
type VerificationService struct {
	store     ports.Store
	registry  ports.EligibilitySource
	passport  ports.ReputationSource
	tokenizer ports.Tokenizer
	guild     ports.Guild
	events    ports.EventPublisher // optional
	log       *slog.Logger
	cfg       Config

	now      func() time.Time
	schedule func(d time.Duration, f func())
}

// New creates a new verification service.
func New(
	store ports.Store,
	registry ports.EligibilitySource,
	passport ports.ReputationSource,
	tokenizer ports.Tokenizer,
	guild ports.Guild,
	events ports.EventPublisher,
	log *slog.Logger,
	cfg Config,
) *VerificationService {
	if cfg.ChallengeTTL <= 0 {
		cfg.ChallengeTTL = 30 * time.Minute
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	if cfg.ChannelDeleteDelay <= 0 {
		cfg.ChannelDeleteDelay = 8 * time.Second
	}
	if log == nil {
		log = slog.Default()
	}

	return &VerificationService{
		store:     store,
		registry:  registry,
		passport:  passport,
		tokenizer: tokenizer,
		guild:     guild,
		events:    events,
		log:       log,
		cfg:       cfg,
		now:       time.Now,
		schedule:  func(d time.Duration, f func()) { time.AfterFunc(d, f) },
	}
}

// IssueChallenge runs the issuance flow for a verification request:
// cooldown check, eligibility check, private channel provisioning, session
// creation and challenge delivery. The cooldown is burned before the
// eligibility check, so an ineligible attempt still costs the window.
func (s *VerificationService) IssueChallenge(ctx context.Context, userID, wallet string) (*core.Issuance, error) {
	wallet = strings.ToLower(strings.TrimSpace(wallet))

	allowed, remaining, err := s.store.CheckCooldown(ctx, userID, s.now())
	if err != nil {
		return nil, fmt.Errorf("cooldown check failed: %w", err)
	}
	if !allowed {
		return nil, &core.CooldownError{Remaining: remaining}
	}

	entry, err := s.registry.Lookup(ctx, wallet)
	if err != nil {
		return nil, fmt.Errorf("whitelist lookup failed: %w", err)
	}
	if entry == nil {
		return nil, core.ErrNotEligible
	}

	name, err := s.guild.MemberName(ctx, userID)
	if err != nil || name == "" {
		name = userID
	}

	channelID, err := s.guild.CreatePrivateChannel(ctx, userID, "verify-"+name)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrChannelCreate, err)
	}

	issuance, err := s.issueInto(ctx, userID, wallet, channelID)
	if err != nil {
		// The channel must not outlive a failed issuance.
		s.deleteChannel(channelID)
		return nil, err
	}

	return issuance, nil
}

func (s *VerificationService) issueInto(ctx context.Context, userID, wallet, channelID string) (*core.Issuance, error) {
	challenge, err := s.newChallenge(userID, wallet)
	if err != nil {
		return nil, fmt.Errorf("failed to create challenge: %w", err)
	}

	token, err := s.tokenizer.ChallengeToToken(challenge)
	if err != nil {
		return nil, fmt.Errorf("failed to encode challenge: %w", err)
	}

	session := &core.Session{
		UserID:    userID,
		Wallet:    wallet,
		Challenge: token,
		ChannelID: channelID,
		CreatedAt: s.now(),
	}
	if err := s.store.PutSession(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}

	signerURL := fmt.Sprintf("%s/signer.html?userId=%s&challenge=%s",
		strings.TrimRight(s.cfg.ExternalURL, "/"),
		url.QueryEscape(userID),
		url.QueryEscape(token),
	)

	content := "# Covenant Signatory Verification\n\n" +
		"Click the link to connect your wallet and sign:\n\n" +
		"🔗 " + signerURL
	if err := s.guild.SendMessage(ctx, channelID, content); err != nil {
		_ = s.store.DeleteSession(ctx, userID)
		return nil, fmt.Errorf("failed to deliver challenge: %w", err)
	}

	return &core.Issuance{ChannelID: channelID, SignerURL: signerURL}, nil
}

func (s *VerificationService) newChallenge(userID, wallet string) (*core.Challenge, error) {
	nonceBytes := make([]byte, 32)
	if _, err := rand.Read(nonceBytes); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	now := s.now()
	return &core.Challenge{
		ID:        uuid.New().String(),
		UserID:    userID,
		Wallet:    wallet,
		Nonce:     hex.EncodeToString(nonceBytes),
		IssuedAt:  now,
		ExpiresAt: now.Add(s.cfg.ChallengeTTL),
	}, nil
}

// Verify checks a submitted signature against the user's pending session.
// On a match it consumes the session, looks up the reputation score
// (defaulting to zero on failure), grants roles, notifies the private
// channel and schedules its deletion.
func (s *VerificationService) Verify(ctx context.Context, userID, signature string) (*core.VerificationResult, error) {
	session, err := s.store.GetSession(ctx, userID)
	if err != nil {
		return nil, err
	}

	if _, err := s.tokenizer.TokenToChallenge(session.Challenge); err != nil {
		// Expired or unreadable challenge: the session is dead, the user
		// must start over.
		_ = s.store.DeleteSession(ctx, userID)
		s.log.Info("discarded session with stale challenge", "user_id", userID, "error", err)
		return nil, core.ErrNoActiveSession
	}

	sigBytes, err := hexutil.Decode(signature)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrInvalidSignature, err)
	}

	recovered, err := eth.RecoverAddress(session.Challenge, sigBytes)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrInvalidSignature, err)
	}

	if !strings.EqualFold(recovered.Hex(), session.Wallet) {
		s.recordMismatch(ctx, userID)
		return nil, core.ErrSignatureMismatch
	}

	// Consume the session before side effects so a concurrent submission
	// cannot be granted twice.
	if err := s.store.DeleteSession(ctx, userID); err != nil {
		return nil, core.ErrNoActiveSession
	}

	score := decimal.Zero
	if fetched, err := s.passport.Score(ctx, session.Wallet); err != nil {
		s.log.Warn("reputation lookup failed, defaulting to zero",
			"user_id", userID, "wallet", session.Wallet, "error", err)
	} else {
		score = fetched
	}

	result := &core.VerificationResult{
		Wallet: session.Wallet,
		Score:  score,
		Roles:  s.grantRoles(ctx, userID, score),
	}

	s.notify(ctx, session.ChannelID, result)

	if s.events != nil {
		if err := s.events.PublishVerified(ctx, userID, result); err != nil {
			s.log.Warn("failed to publish verification event", "user_id", userID, "error", err)
		}
	}

	return result, nil
}

// recordMismatch keeps the session alive for a retry until the attempt cap
// is hit; the attempt that exhausts the cap consumes the session.
func (s *VerificationService) recordMismatch(ctx context.Context, userID string) {
	attempts, err := s.store.BumpAttempts(ctx, userID)
	if err != nil {
		return
	}
	if attempts >= s.cfg.MaxAttempts {
		_ = s.store.DeleteSession(ctx, userID)
		s.log.Info("session consumed after repeated signature mismatches",
			"user_id", userID, "attempts", attempts)
	}
}

// grantRoles applies the base role and every tier whose threshold the score
// reaches. Missing catalog roles and failed grants are logged and skipped;
// the returned list holds the roles actually granted, without duplicates.
func (s *VerificationService) grantRoles(ctx context.Context, userID string, score decimal.Decimal) []string {
	granted := make([]string, 0, len(s.cfg.Tiers)+1)
	seen := make(map[string]bool)

	grant := func(role string) {
		if role == "" || seen[role] {
			return
		}
		if err := s.guild.GrantRole(ctx, userID, role); err != nil {
			if errors.Is(err, core.ErrRoleNotFound) {
				s.log.Warn("role missing from guild catalog", "role", role)
			} else {
				s.log.Warn("role grant failed", "role", role, "user_id", userID, "error", err)
			}
			return
		}
		seen[role] = true
		granted = append(granted, role)
	}

	grant(s.cfg.BaseRole)
	for _, tier := range s.cfg.Tiers {
		if score.GreaterThanOrEqual(tier.Threshold) {
			grant(tier.Role)
		}
	}

	return granted
}

// notify posts the outcome into the private channel and schedules its
// deletion. Both are best-effort; neither failure reaches the caller.
func (s *VerificationService) notify(ctx context.Context, channelID string, result *core.VerificationResult) {
	if channelID == "" {
		return
	}

	roles := "None"
	if len(result.Roles) > 0 {
		roles = strings.Join(result.Roles, ", ")
	}

	content := fmt.Sprintf("✅ **Wallet verified**\n\n🧮 Passport score: **%s**\n🏷 Roles granted: **%s**\n\nChannel will close shortly…",
		result.Score.String(), roles)
	if err := s.guild.SendMessage(ctx, channelID, content); err != nil {
		s.log.Warn("failed to post verification outcome", "channel_id", channelID, "error", err)
	}

	s.schedule(s.cfg.ChannelDeleteDelay, func() {
		s.deleteChannel(channelID)
	})
}

func (s *VerificationService) deleteChannel(channelID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.guild.DeleteChannel(ctx, channelID); err != nil {
		s.log.Debug("channel deletion failed", "channel_id", channelID, "error", err)
	}
}
