package tokenizer

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/human-tech/signatory/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTokenizer(t *testing.T) *JWTTokenizer {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	return NewJWTTokenizer(key).(*JWTTokenizer)
}

func TestChallengeRoundTrip(t *testing.T) {
	tok := newTokenizer(t)

	now := time.Now().Truncate(time.Second)
	challenge := &core.Challenge{
		ID:        uuid.New().String(),
		UserID:    "1234567890",
		Wallet:    "0xabcdef0123456789abcdef0123456789abcdef01",
		Nonce:     "deadbeef",
		IssuedAt:  now,
		ExpiresAt: now.Add(30 * time.Minute),
	}

	token, err := tok.ChallengeToToken(challenge)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	got, err := tok.TokenToChallenge(token)
	require.NoError(t, err)
	assert.Equal(t, challenge.ID, got.ID)
	assert.Equal(t, challenge.UserID, got.UserID)
	assert.Equal(t, challenge.Wallet, got.Wallet)
	assert.Equal(t, challenge.Nonce, got.Nonce)
	assert.True(t, got.IssuedAt.Equal(now))
	assert.True(t, got.ExpiresAt.Equal(now.Add(30*time.Minute)))
}

func TestExpiredChallenge(t *testing.T) {
	tok := newTokenizer(t)

	now := time.Now()
	challenge := &core.Challenge{
		ID:        uuid.New().String(),
		UserID:    "1234567890",
		Wallet:    "0xabc",
		Nonce:     "deadbeef",
		IssuedAt:  now.Add(-time.Hour),
		ExpiresAt: now.Add(-30 * time.Minute),
	}

	token, err := tok.ChallengeToToken(challenge)
	require.NoError(t, err)

	_, err = tok.TokenToChallenge(token)
	assert.ErrorIs(t, err, core.ErrChallengeExpired)
}

func TestGarbageToken(t *testing.T) {
	tok := newTokenizer(t)

	_, err := tok.TokenToChallenge("not.a.token")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, core.ErrChallengeExpired)
}

func TestForeignKeyRejected(t *testing.T) {
	issuer := newTokenizer(t)
	verifier := newTokenizer(t)

	challenge := &core.Challenge{
		ID:        uuid.New().String(),
		UserID:    "1234567890",
		Wallet:    "0xabc",
		Nonce:     "deadbeef",
		IssuedAt:  time.Now(),
		ExpiresAt: time.Now().Add(time.Hour),
	}

	token, err := issuer.ChallengeToToken(challenge)
	require.NoError(t, err)

	_, err = verifier.TokenToChallenge(token)
	assert.Error(t, err)
}
