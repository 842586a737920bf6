package store

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/human-tech/signatory/core"
	"github.com/human-tech/signatory/ports"
	"github.com/redis/go-redis/v9"
)

// cooldownScript performs the cooldown check-and-set in one round trip:
// returns -1 when the attempt is allowed (and the window was armed),
// otherwise the remaining window in milliseconds.
var cooldownScript = redis.NewScript(`
if redis.call("SET", KEYS[1], ARGV[1], "NX", "PX", ARGV[2]) then
  return -1
end
return redis.call("PTTL", KEYS[1])
`)

// bumpScript increments the attempt counter only if the session still
// exists, so a concurrent consume cannot resurrect the key.
var bumpScript = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 0 then
  return -1
end
return redis.call("HINCRBY", KEYS[1], "attempts", 1)
`)

// RedisStore is a Redis implementation of the Store interface. Sessions are
// stored as hashes with a TTL so abandoned ones expire with their challenge.
type RedisStore struct {
	client     *redis.Client
	window     time.Duration
	sessionTTL time.Duration
	prefix     string
}

// NewRedisStore creates a new Redis store.
func NewRedisStore(client *redis.Client, window, sessionTTL time.Duration) ports.Store {
	return &RedisStore{
		client:     client,
		window:     window,
		sessionTTL: sessionTTL,
		prefix:     "signatory:",
	}
}

func (s *RedisStore) cooldownKey(userID string) string { return s.prefix + "cooldown:" + userID }
func (s *RedisStore) sessionKey(userID string) string  { return s.prefix + "session:" + userID }

// CheckCooldown atomically checks and records the user's last attempt.
func (s *RedisStore) CheckCooldown(ctx context.Context, userID string, now time.Time) (bool, time.Duration, error) {
	res, err := cooldownScript.Run(ctx, s.client,
		[]string{s.cooldownKey(userID)},
		now.UnixMilli(), s.window.Milliseconds(),
	).Int64()
	if err != nil {
		return false, 0, fmt.Errorf("cooldown check failed: %w", err)
	}

	if res < 0 {
		return true, 0, nil
	}
	return false, time.Duration(res) * time.Millisecond, nil
}

// PutSession stores the session, replacing any existing one for the user.
func (s *RedisStore) PutSession(ctx context.Context, session *core.Session) error {
	key := s.sessionKey(session.UserID)

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, key)
	pipe.HSet(ctx, key,
		"user_id", session.UserID,
		"wallet", session.Wallet,
		"challenge", session.Challenge,
		"channel_id", session.ChannelID,
		"created_at", session.CreatedAt.UnixMilli(),
		"attempts", session.Attempts,
	)
	pipe.PExpire(ctx, key, s.sessionTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}

	return nil
}

// GetSession returns the user's pending session.
func (s *RedisStore) GetSession(ctx context.Context, userID string) (*core.Session, error) {
	fields, err := s.client.HGetAll(ctx, s.sessionKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if len(fields) == 0 {
		return nil, core.ErrNoActiveSession
	}

	createdAt, _ := strconv.ParseInt(fields["created_at"], 10, 64)
	attempts, _ := strconv.Atoi(fields["attempts"])

	return &core.Session{
		UserID:    fields["user_id"],
		Wallet:    fields["wallet"],
		Challenge: fields["challenge"],
		ChannelID: fields["channel_id"],
		CreatedAt: time.UnixMilli(createdAt),
		Attempts:  attempts,
	}, nil
}

// BumpAttempts increments the session's failed-attempt counter.
func (s *RedisStore) BumpAttempts(ctx context.Context, userID string) (int, error) {
	attempts, err := bumpScript.Run(ctx, s.client, []string{s.sessionKey(userID)}).Int64()
	if err != nil {
		return 0, fmt.Errorf("failed to bump attempts: %w", err)
	}
	if attempts < 0 {
		return 0, core.ErrNoActiveSession
	}

	return int(attempts), nil
}

// DeleteSession consumes the session; only one caller wins.
func (s *RedisStore) DeleteSession(ctx context.Context, userID string) error {
	deleted, err := s.client.Del(ctx, s.sessionKey(userID)).Result()
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	if deleted == 0 {
		return core.ErrNoActiveSession
	}

	return nil
}
