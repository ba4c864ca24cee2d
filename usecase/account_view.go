package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"socialhub/domain/model"
	"socialhub/domain/repository"
	"socialhub/infrastructure/logger"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

type IAccountView interface {
	Load(ctx context.Context, session *model.Session) (*model.AuthenticatedUser, error)
	Invalidate(ctx context.Context, userID string)
	HandleSessionChange(previous, current *model.Session)
}

// viewEntry is an aggregate tagged with the generation it was read under.
type viewEntry struct {
	generation int64
	user       *model.AuthenticatedUser
}

type accountView struct {
	profiles    repository.IProfile
	accounts    repository.ISocialAccount
	configs     repository.IPlatformConfig
	generations repository.IViewGenerations
	cache       *expirable.LRU[string, viewEntry]
}

// NewAccountView caches aggregates per user id. profiles may be nil. A nil
// generations keeps the counters in process, which is only correct for a single
// instance.
func NewAccountView(profiles repository.IProfile, accounts repository.ISocialAccount, configs repository.IPlatformConfig, generations repository.IViewGenerations, size int, ttl time.Duration) IAccountView {
	if generations == nil {
		generations = newLocalGenerations()
	}
	return &accountView{
		profiles:    profiles,
		accounts:    accounts,
		configs:     configs,
		generations: generations,
		cache:       expirable.NewLRU[string, viewEntry](size, nil, ttl),
	}
}

func (v *accountView) Load(ctx context.Context, session *model.Session) (*model.AuthenticatedUser, error) {
	if !session.Authenticated() {
		return nil, model.ErrNotAuthenticated
	}
	// read before the repositories: an entry is only served while its generation is current
	generation, err := v.generations.Current(ctx, session.UserID)
	cacheable := err == nil
	if err != nil {
		logger.GetLogger().WithField("error", err).WithField("user_id", session.UserID).Warn("View generation unavailable, bypassing cache")
	}
	if cacheable {
		if e, ok := v.cache.Get(session.UserID); ok && e.generation == generation {
			return e.user, nil
		}
	}

	var profile *model.Profile
	if v.profiles != nil {
		p, err := v.profiles.GetByID(ctx, session.UserID)
		switch {
		case err == nil:
			profile = p
		case errors.Is(err, model.ErrNotFound):
		default:
			logger.GetLogger().WithField("error", err).WithField("user_id", session.UserID).Warn("Profile lookup failed, using session identity")
		}
	}

	accounts, err := v.accounts.ListByUser(ctx, session.UserID)
	if err != nil {
		return nil, fmt.Errorf("load linked accounts: %w", err)
	}
	configs, err := v.configs.ListByUser(ctx, session.UserID)
	if err != nil {
		return nil, fmt.Errorf("load platform configs: %w", err)
	}

	u := model.NewAuthenticatedUser(session, profile, accounts, configs)
	if cacheable {
		v.cache.Add(session.UserID, viewEntry{generation: generation, user: u})
	}
	return u, nil
}

// Invalidate bumps the user's generation so no instance serves its cached copy.
func (v *accountView) Invalidate(ctx context.Context, userID string) {
	if userID == "" {
		return
	}
	v.cache.Remove(userID)
	if err := v.generations.Bump(ctx, userID); err != nil {
		logger.GetLogger().WithField("error", err).WithField("user_id", userID).Warn("Failed to invalidate account view")
	}
}

// HandleSessionChange drops the aggregates of both the outgoing and incoming user.
func (v *accountView) HandleSessionChange(previous, current *model.Session) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if previous.Authenticated() {
		v.Invalidate(ctx, previous.UserID)
	}
	if current.Authenticated() {
		v.Invalidate(ctx, current.UserID)
	}
}

type localGenerations struct {
	mu   sync.Mutex
	byID map[string]int64
}

func newLocalGenerations() *localGenerations {
	return &localGenerations{byID: make(map[string]int64)}
}

func (g *localGenerations) Current(_ context.Context, userID string) (int64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.byID[userID], nil
}

func (g *localGenerations) Bump(_ context.Context, userID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.byID[userID]++
	return nil
}
