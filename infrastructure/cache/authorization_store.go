package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"socialhub/domain/model"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "socialhub:oauth"

func pendingKey(userID, platform string) string {
	return fmt.Sprintf("%s:pending:%s:%s", keyPrefix, userID, platform)
}

func confirmationKey(userID, platform, id string) string {
	return fmt.Sprintf("%s:disconnect:%s:%s:%s", keyPrefix, userID, platform, id)
}

// AuthorizationStore keeps pending authorizations and disconnect confirmations
// in Redis. A slot is removed with GETDEL so it can be redeemed exactly once;
// expiry is left to the key TTL.
type AuthorizationStore struct {
	rdb redis.Cmdable
}

func NewAuthorizationStore(rdb redis.Cmdable) *AuthorizationStore {
	return &AuthorizationStore{rdb: rdb}
}

// SavePending overwrites any earlier pending authorization for the same (user, platform).
func (s *AuthorizationStore) SavePending(ctx context.Context, pending model.PendingAuthorization, ttl time.Duration) error {
	return s.set(ctx, pendingKey(pending.UserID, pending.Platform), pending, ttl)
}

func (s *AuthorizationStore) ConsumePending(ctx context.Context, userID, platform string) (*model.PendingAuthorization, error) {
	var pending model.PendingAuthorization
	if err := s.getDel(ctx, pendingKey(userID, platform), &pending); err != nil {
		return nil, err
	}
	return &pending, nil
}

func (s *AuthorizationStore) SaveConfirmation(ctx context.Context, confirmation model.DisconnectConfirmation, ttl time.Duration) error {
	return s.set(ctx, confirmationKey(confirmation.UserID, confirmation.Platform, confirmation.ID), confirmation, ttl)
}

func (s *AuthorizationStore) ConsumeConfirmation(ctx context.Context, userID, platform, id string) (*model.DisconnectConfirmation, error) {
	var confirmation model.DisconnectConfirmation
	if err := s.getDel(ctx, confirmationKey(userID, platform, id), &confirmation); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, model.ErrConfirmationNotFound
		}
		return nil, err
	}
	return &confirmation, nil
}

func (s *AuthorizationStore) set(ctx context.Context, key string, v any, ttl time.Duration) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := s.rdb.Set(ctx, key, b, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (s *AuthorizationStore) getDel(ctx context.Context, key string, v any) error {
	b, err := s.rdb.GetDel(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return model.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("redis getdel %s: %w", key, err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}
