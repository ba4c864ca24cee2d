package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"socialhub/domain/dto"
	"socialhub/domain/model"
	oauthclient "socialhub/infrastructure/clients/oauth"
	"socialhub/infrastructure/utils"
	"socialhub/interfaces/middleware"
	"socialhub/usecase"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	testSecret   = "handler-secret"
	testFrontend = "https://app.example.com"
)

type MockLinking struct {
	mock.Mock
}

func (m *MockLinking) BeginConnect(ctx context.Context, s *model.Session, platform string) (*usecase.ConnectResult, error) {
	args := m.Called(ctx, s, platform)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.ConnectResult), args.Error(1)
}

func (m *MockLinking) CompleteCallback(ctx context.Context, s *model.Session, platform string, p usecase.CallbackParams) *usecase.LinkResult {
	return m.Called(ctx, s, platform, p).Get(0).(*usecase.LinkResult)
}

func (m *MockLinking) RequestDisconnect(ctx context.Context, s *model.Session, platform string) (*usecase.DisconnectIntent, error) {
	args := m.Called(ctx, s, platform)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.DisconnectIntent), args.Error(1)
}

func (m *MockLinking) ConfirmDisconnect(ctx context.Context, s *model.Session, platform, id string) (*usecase.DisconnectResult, error) {
	args := m.Called(ctx, s, platform, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.DisconnectResult), args.Error(1)
}

func (m *MockLinking) CancelDisconnect(ctx context.Context, s *model.Session, platform, id string) error {
	return m.Called(ctx, s, platform, id).Error(0)
}

func (m *MockLinking) RefreshAccount(ctx context.Context, s *model.Session, platform string) (bool, error) {
	args := m.Called(ctx, s, platform)
	return args.Bool(0), args.Error(1)
}

type stubView struct {
	user        *model.AuthenticatedUser
	err         error
	invalidated []string
}

func (v *stubView) Load(_ context.Context, s *model.Session) (*model.AuthenticatedUser, error) {
	if !s.Authenticated() {
		return nil, model.ErrNotAuthenticated
	}
	return v.user, v.err
}

func (v *stubView) Invalidate(_ context.Context, userID string) {
	v.invalidated = append(v.invalidated, userID)
}

func (v *stubView) HandleSessionChange(prev, cur *model.Session) {
	if prev.Authenticated() {
		v.Invalidate(context.Background(), prev.UserID)
	}
	if cur.Authenticated() {
		v.Invalidate(context.Background(), cur.UserID)
	}
}

type stubStream struct{}

func (stubStream) Serve(c *gin.Context) { c.String(http.StatusOK, "stream:"+c.GetString("user_id")) }

var sessionMatcher = mock.MatchedBy(func(s *model.Session) bool { return s != nil && s.UserID == "u1" })

type handlerFixture struct {
	router  *gin.Engine
	linking *MockLinking
	view    *stubView
	events  *usecase.SessionEvents
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	reg, err := oauthclient.NewRegistryFromDescriptors(
		model.PlatformDescriptor{Key: "twitter", ClientID: "id", RedirectURI: testFrontend + "/auth/callback/twitter", AuthorizeURL: "https://x.example.com/authorize", TokenURL: "https://x.example.com/token", Scopes: []string{"tweet.read"}},
		model.PlatformDescriptor{Key: "tiktok", RedirectURI: testFrontend + "/auth/callback/tiktok", AuthorizeURL: "https://t.example.com/authorize", TokenURL: "https://t.example.com/token"},
	)
	require.NoError(t, err)

	f := &handlerFixture{
		linking: new(MockLinking),
		view:    &stubView{user: &model.AuthenticatedUser{ID: "u1", ConnectedPlatforms: map[string]bool{"twitter": true}}},
		events:  usecase.NewSessionEvents(),
	}
	f.events.Subscribe(f.view.HandleSessionChange)

	accounts := NewAccountHandler(f.linking, f.view, reg, stubStream{})
	callback := NewOAuthCallbackHandler(f.linking, testFrontend+"/")
	sessions := NewSessionHandler(f.events, testSecret, time.Hour)

	r := gin.New()
	r.GET("/auth/callback/:platform", middleware.OptionalAuth(testSecret), callback.Callback)
	api := r.Group("/api", middleware.Auth(testSecret))
	api.POST("/accounts/:platform/connect", accounts.Connect)
	api.POST("/accounts/:platform/disconnect", accounts.RequestDisconnect)
	api.POST("/accounts/:platform/disconnect/confirm", accounts.ConfirmDisconnect)
	api.DELETE("/accounts/:platform/disconnect/:confirmationId", accounts.CancelDisconnect)
	api.POST("/accounts/:platform/refresh", accounts.Refresh)
	api.GET("/accounts/stream", accounts.Stream)
	api.GET("/me", accounts.Me)
	api.GET("/platforms", accounts.Platforms)
	api.POST("/session/refresh", sessions.Refresh)
	api.POST("/session/signout", sessions.SignOut)
	f.router = r
	return f
}

func (f *handlerFixture) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	token, err := utils.GenerateSessionToken(&model.Session{UserID: "u1", Email: "u1@example.com"}, testSecret, time.Hour)
	require.NoError(t, err)
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	return v
}

func TestConnect(t *testing.T) {
	f := newHandlerFixture(t)
	f.linking.On("BeginConnect", mock.Anything, sessionMatcher, "twitter").Return(&usecase.ConnectResult{
		State:            model.LinkStateAwaitingCallback,
		Platform:         "twitter",
		AuthorizationURL: "https://x.example.com/authorize?state=s",
	}, nil)

	w := f.do(t, http.MethodPost, "/api/accounts/twitter/connect", "")
	require.Equal(t, http.StatusOK, w.Code)
	res := decode[dto.ConnectResponse](t, w)
	assert.Equal(t, model.LinkStateAwaitingCallback, res.State)
	assert.Equal(t, "https://x.example.com/authorize?state=s", res.AuthorizationURL)
}

func TestConnect_Errors(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{model.ErrUnknownPlatform, http.StatusNotFound},
		{model.ErrLinkInProgress, http.StatusConflict},
		{errors.New("redis down"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			f := newHandlerFixture(t)
			f.linking.On("BeginConnect", mock.Anything, mock.Anything, "twitter").Return(nil, tt.err)

			w := f.do(t, http.MethodPost, "/api/accounts/twitter/connect", "")
			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestConnect_RequiresAuth(t *testing.T) {
	f := newHandlerFixture(t)
	req := httptest.NewRequest(http.MethodPost, "/api/accounts/twitter/connect", nil)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	f.linking.AssertNotCalled(t, "BeginConnect", mock.Anything, mock.Anything, mock.Anything)
}

func TestCallback_SuccessRedirects(t *testing.T) {
	f := newHandlerFixture(t)
	f.linking.On("CompleteCallback", mock.Anything, sessionMatcher, "youtube", usecase.CallbackParams{Code: "abc", State: "st"}).
		Return(&usecase.LinkResult{State: model.LinkStateLinked, Platform: "youtube", Message: "Successfully connected to youtube!"})

	w := f.do(t, http.MethodGet, "/auth/callback/youtube?code=abc&state=st", "")
	require.Equal(t, http.StatusFound, w.Code)
	loc, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "app.example.com", loc.Host)
	assert.Equal(t, "/dashboard", loc.Path)
	assert.Equal(t, "Successfully connected to youtube!", loc.Query().Get("message"))
}

func TestCallback_SuccessJSON(t *testing.T) {
	f := newHandlerFixture(t)
	f.linking.On("CompleteCallback", mock.Anything, mock.Anything, "youtube", mock.Anything).
		Return(&usecase.LinkResult{State: model.LinkStateLinked, Platform: "youtube", Message: "Successfully connected to youtube!"})

	w := f.do(t, http.MethodGet, "/auth/callback/youtube?code=abc&state=st&format=json", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, model.LinkStateLinked, decode[dto.ConnectResponse](t, w).State)
}

func TestCallback_FailureRendersInPlace(t *testing.T) {
	f := newHandlerFixture(t)
	params := usecase.CallbackParams{State: "st", Error: "access_denied", ErrorDescription: "denied"}
	f.linking.On("CompleteCallback", mock.Anything, mock.Anything, "facebook", params).Return(&usecase.LinkResult{
		State:    model.LinkStateFailed,
		Platform: "facebook",
		Err:      &model.ProviderError{Code: "access_denied", Description: "denied"},
		Message:  "denied",
		Actions:  []string{model.ActionReturnToDashboard, model.ActionGoToSettings},
	})

	w := f.do(t, http.MethodGet, "/auth/callback/facebook?state=st&error=access_denied&error_description=denied", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Location"))
	res := decode[dto.LinkFailureResponse](t, w)
	assert.Equal(t, model.LinkStateFailed, res.State)
	assert.Equal(t, "denied", res.Message)
	assert.Equal(t, []dto.RecoveryAction{
		{Action: model.ActionReturnToDashboard, Label: "Return to Dashboard", Href: testFrontend + "/dashboard"},
		{Action: model.ActionGoToSettings, Label: "Go to Settings", Href: testFrontend + "/settings"},
	}, res.Actions)
}

func TestCallback_WithoutSession(t *testing.T) {
	f := newHandlerFixture(t)
	f.linking.On("CompleteCallback", mock.Anything, (*model.Session)(nil), "youtube", mock.Anything).Return(&usecase.LinkResult{
		State:   model.LinkStateFailed,
		Err:     model.ErrNotAuthenticated,
		Message: model.FailureMessage(model.ErrNotAuthenticated),
	})

	req := httptest.NewRequest(http.MethodGet, "/auth/callback/youtube?code=abc&state=st", nil)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestDisconnectFlow(t *testing.T) {
	f := newHandlerFixture(t)
	expires := time.Date(2024, 6, 1, 12, 10, 0, 0, time.UTC)
	f.linking.On("RequestDisconnect", mock.Anything, sessionMatcher, "youtube").Return(&usecase.DisconnectIntent{
		State: model.LinkStatePendingConfirmation, Platform: "youtube", ConfirmationID: "c-1", ExpiresAt: expires,
	}, nil)
	f.linking.On("ConfirmDisconnect", mock.Anything, sessionMatcher, "youtube", "c-1").Return(&usecase.DisconnectResult{
		State: model.LinkStateDisconnected, Platform: "youtube",
	}, nil).Once()
	f.linking.On("ConfirmDisconnect", mock.Anything, sessionMatcher, "youtube", "c-1").Return(nil, model.ErrConfirmationNotFound)

	w := f.do(t, http.MethodPost, "/api/accounts/youtube/disconnect", "")
	require.Equal(t, http.StatusOK, w.Code)
	intent := decode[dto.DisconnectIntentResponse](t, w)
	assert.Equal(t, "c-1", intent.ConfirmationID)
	assert.Equal(t, model.LinkStatePendingConfirmation, intent.State)

	w = f.do(t, http.MethodPost, "/api/accounts/youtube/disconnect/confirm", `{"confirmation_id":"c-1"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, model.LinkStateDisconnected, decode[dto.DisconnectResponse](t, w).State)

	w = f.do(t, http.MethodPost, "/api/accounts/youtube/disconnect/confirm", `{"confirmation_id":"c-1"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestConfirmDisconnect_Validation(t *testing.T) {
	f := newHandlerFixture(t)

	w := f.do(t, http.MethodPost, "/api/accounts/youtube/disconnect/confirm", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestConfirmDisconnect_PartialFailure(t *testing.T) {
	f := newHandlerFixture(t)
	f.linking.On("ConfirmDisconnect", mock.Anything, mock.Anything, "youtube", "c-2").Return(&usecase.DisconnectResult{
		State: model.LinkStateFailed, Platform: "youtube", Errors: []error{errors.New("delete platform config: timeout")},
	}, nil)

	w := f.do(t, http.MethodPost, "/api/accounts/youtube/disconnect/confirm", `{"confirmation_id":"c-2"}`)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, []string{"delete platform config: timeout"}, decode[dto.DisconnectResponse](t, w).Errors)
}

func TestCancelDisconnect(t *testing.T) {
	f := newHandlerFixture(t)
	f.linking.On("CancelDisconnect", mock.Anything, sessionMatcher, "youtube", "c-3").Return(nil)

	w := f.do(t, http.MethodDelete, "/api/accounts/youtube/disconnect/c-3", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, model.LinkStateIdle, decode[dto.DisconnectResponse](t, w).State)
}

func TestRefresh(t *testing.T) {
	f := newHandlerFixture(t)
	f.linking.On("RefreshAccount", mock.Anything, sessionMatcher, "youtube").Return(false, nil)

	w := f.do(t, http.MethodPost, "/api/accounts/youtube/refresh", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, dto.RefreshResponse{Platform: "youtube", Fresh: false}, decode[dto.RefreshResponse](t, w))
}

func TestMeAndPlatforms(t *testing.T) {
	f := newHandlerFixture(t)

	w := f.do(t, http.MethodGet, "/api/me", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "u1", decode[model.AuthenticatedUser](t, w).ID)

	w = f.do(t, http.MethodGet, "/api/platforms", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []dto.PlatformSummary{
		{Key: "tiktok", Configured: false, Connected: false},
		{Key: "twitter", Configured: true, Connected: true, Scopes: []string{"tweet.read"}},
	}, decode[[]dto.PlatformSummary](t, w))
}

func TestStream(t *testing.T) {
	f := newHandlerFixture(t)

	w := f.do(t, http.MethodGet, "/api/accounts/stream", "")
	assert.Equal(t, "stream:u1", w.Body.String())
}

func TestSessionRefreshAndSignOut(t *testing.T) {
	f := newHandlerFixture(t)

	w := f.do(t, http.MethodPost, "/api/session/refresh", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, decode[sessionResponse](t, w).Token)
	assert.Contains(t, w.Header().Get("Set-Cookie"), middleware.SessionCookie+"=")
	assert.Equal(t, []string{"u1", "u1"}, f.view.invalidated)

	w = f.do(t, http.MethodPost, "/api/session/signout", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Contains(t, w.Header().Get("Set-Cookie"), "Max-Age=0")
	assert.Equal(t, []string{"u1", "u1", "u1"}, f.view.invalidated)
}
