package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	httpHandler "socialhub/interfaces/http"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type nopAccounts struct{}

func (nopAccounts) Connect(c *gin.Context)           { c.Status(http.StatusOK) }
func (nopAccounts) RequestDisconnect(c *gin.Context) { c.Status(http.StatusOK) }
func (nopAccounts) ConfirmDisconnect(c *gin.Context) { c.Status(http.StatusOK) }
func (nopAccounts) CancelDisconnect(c *gin.Context)  { c.Status(http.StatusOK) }
func (nopAccounts) Refresh(c *gin.Context)           { c.Status(http.StatusOK) }
func (nopAccounts) Me(c *gin.Context)                { c.Status(http.StatusOK) }
func (nopAccounts) Platforms(c *gin.Context)         { c.Status(http.StatusOK) }
func (nopAccounts) Stream(c *gin.Context)            { c.Status(http.StatusOK) }

type nopCallback struct{}

func (nopCallback) Callback(c *gin.Context) { c.String(http.StatusOK, c.Param("platform")) }

type nopSessions struct{}

func (nopSessions) Refresh(c *gin.Context) { c.Status(http.StatusOK) }
func (nopSessions) SignOut(c *gin.Context) { c.Status(http.StatusNoContent) }

func newTestRouter(checks map[string]httpHandler.Pinger) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return InitiateRouter(
		RouterConfig{SecretKey: "s", AllowedOrigins: []string{"https://app.example.com"}},
		nopAccounts{},
		nopCallback{},
		nopSessions{},
		httpHandler.NewHealthHandler(checks),
	)
}

func serve(r *gin.Engine, method, target string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRouter_PublicRoutes(t *testing.T) {
	r := newTestRouter(nil)

	w := serve(r, http.MethodPost, "/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = serve(r, http.MethodGet, "/auth/callback/youtube?code=x", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "youtube", w.Body.String())

	w = serve(r, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "socialhub_http_requests_total"))
}

func TestRouter_APIRequiresSession(t *testing.T) {
	r := newTestRouter(nil)

	for _, target := range []string{"/api/me", "/api/platforms", "/api/accounts/stream"} {
		w := serve(r, http.MethodGet, target, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, target)
	}
	w := serve(r, http.MethodPost, "/api/accounts/twitter/connect", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRouter_CORS(t *testing.T) {
	r := newTestRouter(nil)

	w := serve(r, http.MethodOptions, "/api/me", map[string]string{
		"Origin":                        "https://app.example.com",
		"Access-Control-Request-Method": "GET",
	})
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))

	w = serve(r, http.MethodOptions, "/api/me", map[string]string{
		"Origin":                        "https://evil.example.com",
		"Access-Control-Request-Method": "GET",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRouter_HealthReportsDependencies(t *testing.T) {
	r := newTestRouter(map[string]httpHandler.Pinger{
		"redis":    func(context.Context) error { return nil },
		"database": func(context.Context) error { return errors.New("connection refused") },
	})

	w := serve(r, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.JSONEq(t, `{"status":"degraded","dependencies":{"redis":"ok","database":"connection refused"}}`, w.Body.String())
}
