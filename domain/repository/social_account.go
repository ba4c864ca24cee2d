package repository

import (
	"context"
	"time"

	"socialhub/domain/model"
)

// ISocialAccount persists linked accounts, unique per (user_id, platform).
// Lookups that match nothing return model.ErrNotFound.
type ISocialAccount interface {
	GetByUserPlatform(ctx context.Context, userID, platform string) (*model.LinkedAccount, error)
	ListByUser(ctx context.Context, userID string) ([]model.LinkedAccount, error)
	Insert(ctx context.Context, account *model.LinkedAccount) error
	Update(ctx context.Context, account *model.LinkedAccount) error
	Upsert(ctx context.Context, account *model.LinkedAccount) error
	// UpdateTokens writes the token fields only if the row still carries expectedUpdatedAt,
	// otherwise it returns model.ErrConcurrentModification.
	UpdateTokens(ctx context.Context, account *model.LinkedAccount, expectedUpdatedAt time.Time) error
	Delete(ctx context.Context, userID, platform string) error
}

// IPlatformConfig persists per-platform publishing preferences.
type IPlatformConfig interface {
	GetByUserPlatform(ctx context.Context, userID, platform string) (*model.PlatformConfig, error)
	ListByUser(ctx context.Context, userID string) ([]model.PlatformConfig, error)
	Insert(ctx context.Context, cfg *model.PlatformConfig) error
	Delete(ctx context.Context, userID, platform string) error
	// DeleteOrphaned removes configs whose linked account no longer exists.
	DeleteOrphaned(ctx context.Context) (int64, error)
}

type IProfile interface {
	GetByID(ctx context.Context, id string) (*model.Profile, error)
}
