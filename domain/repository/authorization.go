package repository

import (
	"context"
	"time"

	"socialhub/domain/model"
)

// IAuthorizationStore holds short-lived, single-use authorization state.
// Consume* return model.ErrNotFound once a slot is used or expired.
type IAuthorizationStore interface {
	SavePending(ctx context.Context, pending model.PendingAuthorization, ttl time.Duration) error
	ConsumePending(ctx context.Context, userID, platform string) (*model.PendingAuthorization, error)
	SaveConfirmation(ctx context.Context, confirmation model.DisconnectConfirmation, ttl time.Duration) error
	ConsumeConfirmation(ctx context.Context, userID, platform, id string) (*model.DisconnectConfirmation, error)
}

// ILocker grants exclusive access to a key; it returns model.ErrLinkInProgress when held.
type ILocker interface {
	Lock(ctx context.Context, key string, ttl time.Duration) (unlock func(), err error)
}

type IAccountEventSink interface {
	Publish(ctx context.Context, event model.AccountEvent) error
}

// IViewGenerations versions cached per-user views. Bump makes every cached copy
// stale, including copies held by other instances.
type IViewGenerations interface {
	Current(ctx context.Context, userID string) (int64, error)
	Bump(ctx context.Context, userID string) error
}
