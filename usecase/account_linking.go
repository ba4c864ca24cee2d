package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"socialhub/domain/model"
	"socialhub/domain/repository"
	"socialhub/infrastructure/logger"
	"socialhub/infrastructure/metrics"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Placeholder credentials written by a local-only link of an unconfigured platform.
const (
	DemoAccessToken  = "demo_access_token"
	DemoRefreshToken = "demo_refresh_token"
)

type ConnectResult struct {
	State            model.LinkState
	Platform         string
	AuthorizationURL string
	Account          *model.LinkedAccount
}

// CallbackParams are the query parameters of the provider redirect.
type CallbackParams struct {
	Code             string
	State            string
	Error            string
	ErrorDescription string
}

// LinkResult is the outcome of a callback. On failure Err holds the cause and
// Actions the recovery actions offered to the user.
type LinkResult struct {
	State    model.LinkState
	Platform string
	Account  *model.LinkedAccount
	Err      error
	Message  string
	Actions  []string
	Trail    []model.LinkState
}

func (r *LinkResult) Failed() bool {
	return r.State == model.LinkStateFailed
}

type DisconnectIntent struct {
	State          model.LinkState
	Platform       string
	ConfirmationID string
	ExpiresAt      time.Time
}

// DisconnectResult lists every step that failed; earlier steps are never rolled back.
type DisconnectResult struct {
	State    model.LinkState
	Platform string
	Errors   []error
}

type IAccountLinking interface {
	BeginConnect(ctx context.Context, session *model.Session, platform string) (*ConnectResult, error)
	CompleteCallback(ctx context.Context, session *model.Session, platform string, params CallbackParams) *LinkResult
	RequestDisconnect(ctx context.Context, session *model.Session, platform string) (*DisconnectIntent, error)
	ConfirmDisconnect(ctx context.Context, session *model.Session, platform, confirmationID string) (*DisconnectResult, error)
	CancelDisconnect(ctx context.Context, session *model.Session, platform, confirmationID string) error
	RefreshAccount(ctx context.Context, session *model.Session, platform string) (bool, error)
}

// LinkingDependencies are the collaborators of the linking orchestrator.
// Events and View are optional.
type LinkingDependencies struct {
	Registry repository.IPlatformRegistry
	Codec    repository.IStateCodec
	OAuth    repository.IOAuthClient
	Accounts repository.ISocialAccount
	Configs  repository.IPlatformConfig
	Store    repository.IAuthorizationStore
	Locker   repository.ILocker
	Tokens   ITokenLifecycle
	Events   repository.IAccountEventSink
	View     IAccountView

	StateTTL time.Duration
	LockTTL  time.Duration
}

type accountLinking struct {
	LinkingDependencies
	now func() time.Time
}

func NewAccountLinking(deps LinkingDependencies) IAccountLinking {
	return &accountLinking{LinkingDependencies: deps, now: time.Now}
}

// linkRun tracks the states one operation passes through.
type linkRun struct {
	platform string
	state    model.LinkState
	trail    []model.LinkState
}

func newLinkRun(platform string, start model.LinkState) *linkRun {
	return &linkRun{platform: platform, state: start, trail: []model.LinkState{start}}
}

// to moves the run to next. A finished run keeps its outcome.
func (r *linkRun) to(next model.LinkState) {
	if r.state.Terminal() {
		logger.GetLogger().
			WithField("platform", r.platform).
			WithField("state", r.state).
			WithField("to", next).
			Warn("Link run already finished")
		return
	}
	if !r.state.CanTransitionTo(next) {
		logger.GetLogger().
			WithField("platform", r.platform).
			WithField("from", r.state).
			WithField("to", next).
			Error("Illegal link state transition")
		next = model.LinkStateFailed
	}
	r.state = next
	r.trail = append(r.trail, next)
}

func titlePlatform(platform string) string {
	return cases.Title(language.English).String(platform)
}

func (u *accountLinking) BeginConnect(ctx context.Context, session *model.Session, platform string) (*ConnectResult, error) {
	if !session.Authenticated() {
		return nil, model.ErrNotAuthenticated
	}
	d, err := u.Registry.Describe(platform)
	if err != nil {
		return nil, err
	}
	run := newLinkRun(platform, model.LinkStateIdle)
	run.to(model.LinkStateAuthorizationRequested)

	unlock, err := u.Locker.Lock(ctx, accountLockKey(session.UserID, platform), u.LockTTL)
	if err != nil {
		return nil, err
	}
	defer unlock()

	existing, err := u.Accounts.GetByUserPlatform(ctx, session.UserID, platform)
	switch {
	case err == nil:
		run.to(model.LinkStateAlreadyConnected)
		return &ConnectResult{State: run.state, Platform: platform, Account: existing}, nil
	case !errors.Is(err, model.ErrNotFound):
		return nil, fmt.Errorf("check existing %s account: %w", platform, err)
	}

	if !u.Registry.IsConfigured(platform) {
		account, err := u.mockLink(ctx, session, d)
		if err != nil {
			metrics.LinkTotal.WithLabelValues(platform, metrics.OutcomeFailure).Inc()
			return nil, err
		}
		run.to(model.LinkStateMockLinked)
		metrics.LinkTotal.WithLabelValues(platform, metrics.OutcomeMock).Inc()
		u.afterLink(ctx, session.UserID, account, run.state)
		return &ConnectResult{State: run.state, Platform: platform, Account: account}, nil
	}

	state, err := u.Codec.Issue(platform, session.UserID)
	if err != nil {
		return nil, err
	}
	pkce, err := u.OAuth.NewPKCE(platform)
	if err != nil {
		return nil, err
	}
	authURL, err := u.OAuth.AuthorizationURL(platform, state, pkce)
	if err != nil {
		return nil, err
	}
	pending := model.PendingAuthorization{
		UserID:    session.UserID,
		Platform:  platform,
		State:     state,
		CreatedAt: u.now().UTC(),
	}
	if pkce != nil {
		pending.CodeVerifier = pkce.Verifier
	}
	if err := u.Store.SavePending(ctx, pending, u.StateTTL); err != nil {
		return nil, fmt.Errorf("save pending authorization: %w", err)
	}

	run.to(model.LinkStateAwaitingCallback)
	return &ConnectResult{State: run.state, Platform: platform, AuthorizationURL: authURL}, nil
}

// mockLink links an unconfigured platform locally with a synthetic identity.
func (u *accountLinking) mockLink(ctx context.Context, session *model.Session, d model.PlatformDescriptor) (*model.LinkedAccount, error) {
	account := &model.LinkedAccount{
		UserID:         session.UserID,
		Platform:       d.Key,
		PlatformUserID: fmt.Sprintf("demo_%s_%s", d.Key, session.UserID),
		Username:       fmt.Sprintf("demo_%s_user", d.Key),
		DisplayName:    fmt.Sprintf("Demo %s Account", titlePlatform(d.Key)),
		AccessToken:    DemoAccessToken,
		RefreshToken:   DemoRefreshToken,
		TokenExpiresAt: u.Tokens.ExpirationFrom(expiresInOrDefault(0)),
		Scopes:         d.Scopes,
	}
	if err := u.Accounts.Upsert(ctx, account); err != nil {
		return nil, &model.PersistFailedError{Cause: err}
	}
	if _, err := u.Configs.GetByUserPlatform(ctx, session.UserID, d.Key); errors.Is(err, model.ErrNotFound) {
		u.createDefaultConfig(ctx, session.UserID, d.Key)
	}
	return account, nil
}

func (u *accountLinking) CompleteCallback(ctx context.Context, session *model.Session, platform string, params CallbackParams) *LinkResult {
	run := newLinkRun(platform, model.LinkStateAwaitingCallback)
	fail := func(err error) *LinkResult {
		return u.failLink(ctx, session, run, err)
	}

	if !session.Authenticated() {
		return fail(model.ErrNotAuthenticated)
	}
	if _, err := u.Registry.Describe(platform); err != nil {
		return fail(err)
	}

	unlock, err := u.Locker.Lock(ctx, accountLockKey(session.UserID, platform), u.LockTTL)
	if err != nil {
		return fail(err)
	}
	defer unlock()

	// the slot is spent by the first callback whatever its outcome
	pending, err := u.Store.ConsumePending(ctx, session.UserID, platform)
	if err != nil && !errors.Is(err, model.ErrNotFound) {
		return fail(fmt.Errorf("load pending authorization: %w", err))
	}

	switch {
	case params.Error != "":
		return fail(&model.ProviderError{Code: params.Error, Description: params.ErrorDescription})
	case params.Code == "":
		return fail(model.ErrMissingCode)
	case params.State == "":
		return fail(model.ErrMissingState)
	case !u.Codec.Validate(params.State, platform, session.UserID),
		pending == nil,
		pending.State != params.State:
		return fail(model.ErrInvalidState)
	}

	run.to(model.LinkStateExchangingToken)
	tok, err := u.OAuth.ExchangeCode(ctx, platform, params.Code, params.State, pending.CodeVerifier)
	if err != nil {
		return fail(err)
	}

	run.to(model.LinkStateFetchingProfile)
	info, err := u.OAuth.FetchUserInfo(ctx, platform, tok.AccessToken)
	if err != nil {
		return fail(err)
	}

	run.to(model.LinkStatePersisting)
	account := &model.LinkedAccount{
		UserID:            session.UserID,
		Platform:          platform,
		PlatformUserID:    info.ID,
		Username:          info.Username,
		DisplayName:       info.DisplayName,
		FollowerCount:     info.FollowerCount,
		IsBusinessAccount: info.IsBusinessAccount,
		AccessToken:       tok.AccessToken,
		RefreshToken:      tok.RefreshToken,
		TokenExpiresAt:    u.Tokens.ExpirationFrom(expiresInOrDefault(tok.ExpiresIn)),
		Scopes:            tok.Scopes(),
	}
	if err := u.persist(ctx, account); err != nil {
		return fail(err)
	}

	run.to(model.LinkStateLinked)
	metrics.LinkTotal.WithLabelValues(platform, metrics.OutcomeSuccess).Inc()
	u.afterLink(ctx, session.UserID, account, run.state)
	logger.GetLogger().WithField("platform", platform).WithField("user_id", session.UserID).Info("Account linked")

	return &LinkResult{
		State:    run.state,
		Platform: platform,
		Account:  account,
		Message:  fmt.Sprintf("Successfully connected to %s!", platform),
		Trail:    run.trail,
	}
}

// persist updates the existing (user, platform) row in place, or inserts it
// together with a default PlatformConfig.
func (u *accountLinking) persist(ctx context.Context, account *model.LinkedAccount) error {
	existing, err := u.Accounts.GetByUserPlatform(ctx, account.UserID, account.Platform)
	switch {
	case err == nil:
		account.ID = existing.ID
		account.CreatedAt = existing.CreatedAt
		if account.RefreshToken == "" {
			account.RefreshToken = existing.RefreshToken
		}
		if err := u.Accounts.Update(ctx, account); err != nil {
			return &model.PersistFailedError{Cause: err}
		}
		return nil
	case !errors.Is(err, model.ErrNotFound):
		return &model.PersistFailedError{Cause: err}
	}

	if err := u.Accounts.Insert(ctx, account); err != nil {
		return &model.PersistFailedError{Cause: err}
	}
	u.createDefaultConfig(ctx, account.UserID, account.Platform)
	return nil
}

// createDefaultConfig is non-fatal; the account stays linked without a config.
func (u *accountLinking) createDefaultConfig(ctx context.Context, userID, platform string) {
	cfg := model.DefaultPlatformConfig(userID, platform)
	if err := u.Configs.Insert(ctx, &cfg); err != nil {
		logger.GetLogger().
			WithField("error", err).
			WithField("platform", platform).
			WithField("user_id", userID).
			Warn("Failed to create platform config")
	}
}

func (u *accountLinking) failLink(ctx context.Context, session *model.Session, run *linkRun, err error) *LinkResult {
	run.to(model.LinkStateFailed)
	metrics.LinkTotal.WithLabelValues(run.platform, metrics.OutcomeFailure).Inc()

	lg := logger.GetLogger().WithField("error", err).WithField("platform", run.platform)
	var userID string
	if session.Authenticated() {
		userID = session.UserID
		lg = lg.WithField("user_id", userID)
	}
	lg.Warn("Account link failed")

	msg := model.FailureMessage(err)
	if userID != "" {
		u.publish(ctx, model.AccountEvent{
			Type:     model.EventAccountLinkFailed,
			UserID:   userID,
			Platform: run.platform,
			State:    run.state,
			Message:  msg,
		})
	}
	return &LinkResult{
		State:    run.state,
		Platform: run.platform,
		Err:      err,
		Message:  msg,
		Actions:  []string{model.ActionReturnToDashboard, model.ActionGoToSettings},
		Trail:    run.trail,
	}
}

func (u *accountLinking) afterLink(ctx context.Context, userID string, account *model.LinkedAccount, state model.LinkState) {
	if u.View != nil {
		u.View.Invalidate(ctx, userID)
	}
	u.publish(ctx, model.AccountEvent{
		Type:     model.EventAccountLinked,
		UserID:   userID,
		Platform: account.Platform,
		State:    state,
		Username: account.Username,
	})
}

func (u *accountLinking) publish(ctx context.Context, event model.AccountEvent) {
	if u.Events == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = u.now().UTC()
	}
	if err := u.Events.Publish(ctx, event); err != nil {
		logger.GetLogger().WithField("error", err).WithField("type", event.Type).Warn("Failed to publish account event")
	}
}

func (u *accountLinking) RequestDisconnect(ctx context.Context, session *model.Session, platform string) (*DisconnectIntent, error) {
	if !session.Authenticated() {
		return nil, model.ErrNotAuthenticated
	}
	if _, err := u.Registry.Describe(platform); err != nil {
		return nil, err
	}
	run := newLinkRun(platform, model.LinkStateIdle)

	now := u.now().UTC()
	confirmation := model.DisconnectConfirmation{
		ID:        uuid.NewString(),
		UserID:    session.UserID,
		Platform:  platform,
		CreatedAt: now,
	}
	if err := u.Store.SaveConfirmation(ctx, confirmation, u.StateTTL); err != nil {
		return nil, fmt.Errorf("save disconnect confirmation: %w", err)
	}
	run.to(model.LinkStatePendingConfirmation)
	return &DisconnectIntent{
		State:          run.state,
		Platform:       platform,
		ConfirmationID: confirmation.ID,
		ExpiresAt:      now.Add(u.StateTTL),
	}, nil
}

// ConfirmDisconnect revokes, then deletes the account and its config. Unlinking a
// platform that is not linked succeeds.
func (u *accountLinking) ConfirmDisconnect(ctx context.Context, session *model.Session, platform, confirmationID string) (*DisconnectResult, error) {
	if !session.Authenticated() {
		return nil, model.ErrNotAuthenticated
	}
	if _, err := u.Registry.Describe(platform); err != nil {
		return nil, err
	}
	// a held lock leaves the confirmation redeemable for a retry
	unlock, err := u.Locker.Lock(ctx, accountLockKey(session.UserID, platform), u.LockTTL)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if _, err := u.Store.ConsumeConfirmation(ctx, session.UserID, platform, confirmationID); err != nil {
		return nil, err
	}
	run := newLinkRun(platform, model.LinkStatePendingConfirmation)

	lg := logger.GetLogger().WithField("platform", platform).WithField("user_id", session.UserID)
	var errs []error

	account, err := u.Accounts.GetByUserPlatform(ctx, session.UserID, platform)
	switch {
	case err == nil:
		if account.AccessToken != DemoAccessToken {
			u.OAuth.Revoke(ctx, platform, account.AccessToken)
		}
	case errors.Is(err, model.ErrNotFound):
	default:
		// revoke is skipped but the rows are still removed
		lg.WithField("error", err).Warn("Could not load account before disconnect")
	}

	if err := u.Accounts.Delete(ctx, session.UserID, platform); err != nil {
		lg.WithField("error", err).Error("Failed to delete social account")
		errs = append(errs, fmt.Errorf("delete social account: %w", err))
	}
	if err := u.Configs.Delete(ctx, session.UserID, platform); err != nil {
		lg.WithField("error", err).Error("Failed to delete platform config")
		errs = append(errs, fmt.Errorf("delete platform config: %w", err))
	}

	if u.View != nil {
		u.View.Invalidate(ctx, session.UserID)
	}

	outcome := metrics.OutcomeSuccess
	if len(errs) > 0 {
		run.to(model.LinkStateFailed)
		outcome = metrics.OutcomeFailure
	} else {
		run.to(model.LinkStateDisconnected)
		u.publish(ctx, model.AccountEvent{
			Type:     model.EventAccountUnlinked,
			UserID:   session.UserID,
			Platform: platform,
			State:    run.state,
		})
	}
	metrics.UnlinkTotal.WithLabelValues(platform, outcome).Inc()

	return &DisconnectResult{State: run.state, Platform: platform, Errors: errs}, nil
}

func (u *accountLinking) CancelDisconnect(ctx context.Context, session *model.Session, platform, confirmationID string) error {
	if !session.Authenticated() {
		return model.ErrNotAuthenticated
	}
	_, err := u.Store.ConsumeConfirmation(ctx, session.UserID, platform, confirmationID)
	return err
}

// RefreshAccount makes sure the stored access token is usable. false means the
// user has to reconnect.
func (u *accountLinking) RefreshAccount(ctx context.Context, session *model.Session, platform string) (bool, error) {
	if !session.Authenticated() {
		return false, model.ErrNotAuthenticated
	}
	account, err := u.Accounts.GetByUserPlatform(ctx, session.UserID, platform)
	if err != nil {
		return false, err
	}
	previous := account.AccessToken
	fresh := u.Tokens.EnsureFresh(ctx, account)
	if fresh && account.AccessToken != previous {
		if u.View != nil {
			u.View.Invalidate(ctx, session.UserID)
		}
		u.publish(ctx, model.AccountEvent{
			Type:     model.EventTokenRefreshed,
			UserID:   session.UserID,
			Platform: platform,
			State:    model.LinkStateLinked,
		})
	}
	return fresh, nil
}
