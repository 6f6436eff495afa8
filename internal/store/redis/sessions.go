package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store handles Redis operations for sessions and OAuth state.
// Entries carry a TTL so abandoned sessions and state values expire
// on their own without a sweeper.
type Store struct {
	client *redis.Client
}

// NewStore creates a new Redis store
func NewStore(client *redis.Client) *Store {
	return &Store{
		client: client,
	}
}

// SaveSession marks a session id (jti) as active for the given user
// until ttl elapses or the session is deleted by logout.
func (s *Store) SaveSession(ctx context.Context, jti, userID string, ttl time.Duration) error {
	if err := s.client.Set(ctx, SessionKey(jti), userID, ttl).Err(); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// IsActive reports whether a session id has been issued and not yet
// revoked or expired.
func (s *Store) IsActive(ctx context.Context, jti string) (bool, error) {
	_, err := s.client.Get(ctx, SessionKey(jti)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check session: %w", err)
	}
	return true, nil
}

// DeleteSession revokes a session. Deleting an unknown session is not
// an error, which keeps logout idempotent.
func (s *Store) DeleteSession(ctx context.Context, jti string) error {
	if err := s.client.Del(ctx, SessionKey(jti)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// SaveState records a pending OAuth state value with the provider it
// was issued for.
func (s *Store) SaveState(ctx context.Context, state, provider string, ttl time.Duration) error {
	if err := s.client.Set(ctx, StateKey(state), provider, ttl).Err(); err != nil {
		return fmt.Errorf("failed to save oauth state: %w", err)
	}
	return nil
}

// TakeState consumes a pending OAuth state value and returns the
// provider it was issued for. A state can only be taken once.
func (s *Store) TakeState(ctx context.Context, state string) (string, error) {
	provider, err := s.client.GetDel(ctx, StateKey(state)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", fmt.Errorf("unknown or already used oauth state")
		}
		return "", fmt.Errorf("failed to take oauth state: %w", err)
	}
	return provider, nil
}
