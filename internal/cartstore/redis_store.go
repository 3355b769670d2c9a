package cartstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/passosalansilva-lab/brasil-simple-display/internal/model"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Slots outlive a single page visit but not a customer's patience; drafts
// a week old are stale by any measure.
const slotTTL = 7 * 24 * time.Hour

// redisStore implements Store on Redis, one JSON value per slot.
type redisStore struct {
	client *redis.Client
	logger zerolog.Logger
}

// NewRedisStore creates a Redis-backed session slot store.
func NewRedisStore(client *redis.Client, logger zerolog.Logger) Store {
	return &redisStore{
		client: client,
		logger: logger.With().Str("component", "cart-store").Logger(),
	}
}

func draftKey(sessionID string) string {
	return fmt.Sprintf("cart:%s", sessionID)
}

func identifierKey(sessionID string) string {
	return fmt.Sprintf("last-identifier:%s", sessionID)
}

// SaveDraft overwrites the session's cart draft.
func (s *redisStore) SaveDraft(ctx context.Context, sessionID string, draft *model.CartDraft) error {
	data, err := json.Marshal(draft)
	if err != nil {
		return fmt.Errorf("failed to marshal cart draft: %w", err)
	}

	if err := s.client.Set(ctx, draftKey(sessionID), data, slotTTL).Err(); err != nil {
		return fmt.Errorf("failed to save cart draft: %w", err)
	}

	s.logger.Debug().
		Str("session_id", sessionID).
		Int("item_count", len(draft.Items)).
		Msg("cart draft saved")

	return nil
}

// GetDraft returns the session's cart draft, or ErrNotFound.
func (s *redisStore) GetDraft(ctx context.Context, sessionID string) (*model.CartDraft, error) {
	data, err := s.client.Get(ctx, draftKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load cart draft: %w", err)
	}

	var draft model.CartDraft
	if err := json.Unmarshal(data, &draft); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cart draft: %w", err)
	}

	return &draft, nil
}

// ClearDraft removes the session's cart draft.
func (s *redisStore) ClearDraft(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, draftKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("failed to clear cart draft: %w", err)
	}
	return nil
}

// SaveLastIdentifier overwrites the session's last-used lookup identifier.
func (s *redisStore) SaveLastIdentifier(ctx context.Context, sessionID, identifier string) error {
	if err := s.client.Set(ctx, identifierKey(sessionID), identifier, slotTTL).Err(); err != nil {
		return fmt.Errorf("failed to save last identifier: %w", err)
	}
	return nil
}

// GetLastIdentifier returns the session's last-used identifier, or ErrNotFound.
func (s *redisStore) GetLastIdentifier(ctx context.Context, sessionID string) (string, error) {
	value, err := s.client.Get(ctx, identifierKey(sessionID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to load last identifier: %w", err)
	}
	return value, nil
}
