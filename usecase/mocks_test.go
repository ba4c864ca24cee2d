package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"socialhub/domain/model"

	"github.com/stretchr/testify/mock"
)

type MockOAuthClient struct {
	mock.Mock
}

func (m *MockOAuthClient) NewPKCE(platform string) (*model.PKCE, error) {
	args := m.Called(platform)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PKCE), args.Error(1)
}

func (m *MockOAuthClient) AuthorizationURL(platform, state string, pkce *model.PKCE) (string, error) {
	args := m.Called(platform, state, pkce)
	return args.String(0), args.Error(1)
}

func (m *MockOAuthClient) ExchangeCode(ctx context.Context, platform, code, state, verifier string) (model.TokenResponse, error) {
	args := m.Called(ctx, platform, code, state, verifier)
	return args.Get(0).(model.TokenResponse), args.Error(1)
}

func (m *MockOAuthClient) Refresh(ctx context.Context, platform, refreshToken string) (model.TokenResponse, error) {
	args := m.Called(ctx, platform, refreshToken)
	return args.Get(0).(model.TokenResponse), args.Error(1)
}

func (m *MockOAuthClient) Revoke(ctx context.Context, platform, accessToken string) {
	m.Called(ctx, platform, accessToken)
}

func (m *MockOAuthClient) FetchUserInfo(ctx context.Context, platform, accessToken string) (model.UserInfo, error) {
	args := m.Called(ctx, platform, accessToken)
	return args.Get(0).(model.UserInfo), args.Error(1)
}

type MockEventSink struct {
	mock.Mock
}

func (m *MockEventSink) Publish(ctx context.Context, event model.AccountEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

type MockSocialAccount struct {
	mock.Mock
}

func (m *MockSocialAccount) GetByUserPlatform(ctx context.Context, userID, platform string) (*model.LinkedAccount, error) {
	args := m.Called(ctx, userID, platform)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.LinkedAccount), args.Error(1)
}

func (m *MockSocialAccount) ListByUser(ctx context.Context, userID string) ([]model.LinkedAccount, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.LinkedAccount), args.Error(1)
}

func (m *MockSocialAccount) Insert(ctx context.Context, account *model.LinkedAccount) error {
	return m.Called(ctx, account).Error(0)
}

func (m *MockSocialAccount) Update(ctx context.Context, account *model.LinkedAccount) error {
	return m.Called(ctx, account).Error(0)
}

func (m *MockSocialAccount) Upsert(ctx context.Context, account *model.LinkedAccount) error {
	return m.Called(ctx, account).Error(0)
}

func (m *MockSocialAccount) UpdateTokens(ctx context.Context, account *model.LinkedAccount, expectedUpdatedAt time.Time) error {
	return m.Called(ctx, account, expectedUpdatedAt).Error(0)
}

func (m *MockSocialAccount) Delete(ctx context.Context, userID, platform string) error {
	return m.Called(ctx, userID, platform).Error(0)
}

type MockPlatformConfig struct {
	mock.Mock
}

func (m *MockPlatformConfig) GetByUserPlatform(ctx context.Context, userID, platform string) (*model.PlatformConfig, error) {
	args := m.Called(ctx, userID, platform)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PlatformConfig), args.Error(1)
}

func (m *MockPlatformConfig) ListByUser(ctx context.Context, userID string) ([]model.PlatformConfig, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.PlatformConfig), args.Error(1)
}

func (m *MockPlatformConfig) Insert(ctx context.Context, cfg *model.PlatformConfig) error {
	return m.Called(ctx, cfg).Error(0)
}

func (m *MockPlatformConfig) Delete(ctx context.Context, userID, platform string) error {
	return m.Called(ctx, userID, platform).Error(0)
}

func (m *MockPlatformConfig) DeleteOrphaned(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

type MockProfile struct {
	mock.Mock
}

func (m *MockProfile) GetByID(ctx context.Context, id string) (*model.Profile, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Profile), args.Error(1)
}

// memAccounts is an in-memory ISocialAccount keyed by (user, platform).
type memAccounts struct {
	mu   sync.Mutex
	rows map[string]model.LinkedAccount
	seq  int
}

func newMemAccounts() *memAccounts {
	return &memAccounts{rows: map[string]model.LinkedAccount{}}
}

func rowKey(userID, platform string) string { return userID + "|" + platform }

func (r *memAccounts) GetByUserPlatform(_ context.Context, userID, platform string) (*model.LinkedAccount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.rows[rowKey(userID, platform)]
	if !ok {
		return nil, model.ErrNotFound
	}
	return &a, nil
}

func (r *memAccounts) ListByUser(_ context.Context, userID string) ([]model.LinkedAccount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []model.LinkedAccount{}
	for _, a := range r.rows {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *memAccounts) Insert(_ context.Context, a *model.LinkedAccount) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	a.ID = fmt.Sprintf("acc-%d", r.seq)
	a.CreatedAt = time.Now().UTC()
	a.UpdatedAt = a.CreatedAt
	r.rows[rowKey(a.UserID, a.Platform)] = *a
	return nil
}

func (r *memAccounts) Update(_ context.Context, a *model.LinkedAccount) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := rowKey(a.UserID, a.Platform)
	if _, ok := r.rows[k]; !ok {
		return model.ErrNotFound
	}
	a.UpdatedAt = time.Now().UTC()
	r.rows[k] = *a
	return nil
}

func (r *memAccounts) Upsert(ctx context.Context, a *model.LinkedAccount) error {
	if existing, err := r.GetByUserPlatform(ctx, a.UserID, a.Platform); err == nil {
		a.ID = existing.ID
		a.CreatedAt = existing.CreatedAt
		return r.Update(ctx, a)
	}
	return r.Insert(ctx, a)
}

func (r *memAccounts) UpdateTokens(_ context.Context, a *model.LinkedAccount, expected time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := rowKey(a.UserID, a.Platform)
	cur, ok := r.rows[k]
	if !ok || !cur.UpdatedAt.Equal(expected) {
		return model.ErrConcurrentModification
	}
	cur.AccessToken = a.AccessToken
	cur.RefreshToken = a.RefreshToken
	cur.TokenExpiresAt = a.TokenExpiresAt
	cur.UpdatedAt = expected.Add(time.Microsecond)
	a.UpdatedAt = cur.UpdatedAt
	r.rows[k] = cur
	return nil
}

func (r *memAccounts) Delete(_ context.Context, userID, platform string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.rows, rowKey(userID, platform))
	return nil
}

func (r *memAccounts) count(userID, platform string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[rowKey(userID, platform)]; ok {
		return 1
	}
	return 0
}

type memConfigs struct {
	mu   sync.Mutex
	rows map[string]model.PlatformConfig
	err  error
}

func newMemConfigs() *memConfigs {
	return &memConfigs{rows: map[string]model.PlatformConfig{}}
}

func (r *memConfigs) GetByUserPlatform(_ context.Context, userID, platform string) (*model.PlatformConfig, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.rows[rowKey(userID, platform)]
	if !ok {
		return nil, model.ErrNotFound
	}
	return &c, nil
}

func (r *memConfigs) ListByUser(_ context.Context, userID string) ([]model.PlatformConfig, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []model.PlatformConfig{}
	for _, c := range r.rows {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *memConfigs) Insert(_ context.Context, c *model.PlatformConfig) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	k := rowKey(c.UserID, c.Platform)
	if _, dup := r.rows[k]; dup {
		return errors.New("duplicate platform config")
	}
	c.ID = "cfg-" + c.Platform
	r.rows[k] = *c
	return nil
}

func (r *memConfigs) Delete(_ context.Context, userID, platform string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.rows, rowKey(userID, platform))
	return nil
}

func (r *memConfigs) DeleteOrphaned(context.Context) (int64, error) { return 0, nil }

func (r *memConfigs) count(userID, platform string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[rowKey(userID, platform)]; ok {
		return 1
	}
	return 0
}

// memStore is a single-use in-memory IAuthorizationStore; TTLs are ignored.
type memStore struct {
	mu            sync.Mutex
	pending       map[string]model.PendingAuthorization
	confirmations map[string]model.DisconnectConfirmation
}

func newMemStore() *memStore {
	return &memStore{
		pending:       map[string]model.PendingAuthorization{},
		confirmations: map[string]model.DisconnectConfirmation{},
	}
}

func (s *memStore) SavePending(_ context.Context, p model.PendingAuthorization, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[rowKey(p.UserID, p.Platform)] = p
	return nil
}

func (s *memStore) ConsumePending(_ context.Context, userID, platform string) (*model.PendingAuthorization, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := rowKey(userID, platform)
	p, ok := s.pending[k]
	if !ok {
		return nil, model.ErrNotFound
	}
	delete(s.pending, k)
	return &p, nil
}

func (s *memStore) SaveConfirmation(_ context.Context, c model.DisconnectConfirmation, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.confirmations[rowKey(c.UserID, c.Platform)+"|"+c.ID] = c
	return nil
}

func (s *memStore) ConsumeConfirmation(_ context.Context, userID, platform, id string) (*model.DisconnectConfirmation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := rowKey(userID, platform) + "|" + id
	c, ok := s.confirmations[k]
	if !ok {
		return nil, model.ErrConfirmationNotFound
	}
	delete(s.confirmations, k)
	return &c, nil
}

type memLocker struct {
	mu   sync.Mutex
	held map[string]bool
}

func newMemLocker() *memLocker {
	return &memLocker{held: map[string]bool{}}
}

func (l *memLocker) Lock(_ context.Context, key string, _ time.Duration) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] {
		return nil, model.ErrLinkInProgress
	}
	l.held[key] = true
	return func() {
		l.mu.Lock()
		delete(l.held, key)
		l.mu.Unlock()
	}, nil
}
