package usecase

import (
	"context"
	"errors"
	"time"

	"socialhub/domain/model"
	"socialhub/domain/repository"
	"socialhub/infrastructure/logger"
	"socialhub/infrastructure/metrics"
)

type ITokenLifecycle interface {
	IsExpired(expiresAt time.Time) bool
	ExpirationFrom(seconds int64) time.Time
	// EnsureFresh reports whether account holds a usable access token,
	// refreshing and persisting it when expired. false means re-auth is needed.
	EnsureFresh(ctx context.Context, account *model.LinkedAccount) bool
}

type tokenLifecycle struct {
	accounts repository.ISocialAccount
	oauth    repository.IOAuthClient
	locker   repository.ILocker
	lockTTL  time.Duration
	now      func() time.Time
}

type TokenLifecycleOption func(*tokenLifecycle)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) TokenLifecycleOption {
	return func(t *tokenLifecycle) { t.now = now }
}

func NewTokenLifecycle(accounts repository.ISocialAccount, oauth repository.IOAuthClient, locker repository.ILocker, lockTTL time.Duration, opts ...TokenLifecycleOption) ITokenLifecycle {
	t := &tokenLifecycle{
		accounts: accounts,
		oauth:    oauth,
		locker:   locker,
		lockTTL:  lockTTL,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// IsExpired treats the exact expiry instant as expired.
func (t *tokenLifecycle) IsExpired(expiresAt time.Time) bool {
	return !expiresAt.After(t.now())
}

func (t *tokenLifecycle) ExpirationFrom(seconds int64) time.Time {
	return t.now().Add(time.Duration(seconds) * time.Second)
}

func (t *tokenLifecycle) EnsureFresh(ctx context.Context, account *model.LinkedAccount) bool {
	if account == nil || account.RefreshToken == "" {
		return false
	}
	if !t.IsExpired(account.TokenExpiresAt) {
		return true
	}

	lg := logger.GetLogger().WithField("platform", account.Platform).WithField("user_id", account.UserID)

	unlock, err := t.locker.Lock(ctx, accountLockKey(account.UserID, account.Platform), t.lockTTL)
	if err != nil {
		lg.WithField("error", err).Warn("Token refresh skipped, account is locked")
		metrics.TokenRefreshTotal.WithLabelValues(account.Platform, metrics.OutcomeConflict).Inc()
		return false
	}
	defer unlock()

	tok, err := t.oauth.Refresh(ctx, account.Platform, account.RefreshToken)
	if err != nil {
		lg.WithField("error", err).Error("Token refresh failed")
		metrics.TokenRefreshTotal.WithLabelValues(account.Platform, metrics.OutcomeFailure).Inc()
		return false
	}

	refreshed := *account
	refreshed.AccessToken = tok.AccessToken
	if tok.RefreshToken != "" {
		refreshed.RefreshToken = tok.RefreshToken
	}
	refreshed.TokenExpiresAt = t.ExpirationFrom(expiresInOrDefault(tok.ExpiresIn))

	if err := t.accounts.UpdateTokens(ctx, &refreshed, account.UpdatedAt); err != nil {
		outcome := metrics.OutcomeFailure
		if errors.Is(err, model.ErrConcurrentModification) {
			outcome = metrics.OutcomeConflict
		}
		lg.WithField("error", err).Error("Failed to persist refreshed token")
		metrics.TokenRefreshTotal.WithLabelValues(account.Platform, outcome).Inc()
		return false
	}

	*account = refreshed
	metrics.TokenRefreshTotal.WithLabelValues(account.Platform, metrics.OutcomeSuccess).Inc()
	lg.Info("Access token refreshed")
	return true
}

func expiresInOrDefault(seconds int64) int64 {
	if seconds <= 0 {
		return int64(model.DefaultTokenLifetime / time.Second)
	}
	return seconds
}

func accountLockKey(userID, platform string) string {
	return "account:" + userID + ":" + platform
}
