package http

import (
	"net/http"
	"time"

	"socialhub/domain/dto"
	"socialhub/infrastructure/logger"
	"socialhub/infrastructure/utils"
	"socialhub/interfaces/middleware"
	"socialhub/usecase"

	"github.com/gin-gonic/gin"
)

type ISessionHandler interface {
	Refresh(c *gin.Context)
	SignOut(c *gin.Context)
}

type SessionHandler struct {
	events    *usecase.SessionEvents
	secretKey string
	ttl       time.Duration
}

func NewSessionHandler(events *usecase.SessionEvents, secretKey string, ttl time.Duration) ISessionHandler {
	return &SessionHandler{events: events, secretKey: secretKey, ttl: ttl}
}

type sessionResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Refresh reissues the session token and drops cached account data for the user.
func (h *SessionHandler) Refresh(c *gin.Context) {
	session := middleware.SessionFrom(c)
	token, err := utils.GenerateSessionToken(session, h.secretKey, h.ttl)
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.Res{ResponseCode: "500", ResponseMessage: "could not issue session"})
		return
	}
	h.events.Notify(session, session)

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookie, token, int(h.ttl/time.Second), "/", "", c.Request.TLS != nil, true)
	c.JSON(http.StatusOK, sessionResponse{Token: token, ExpiresAt: utils.GetCurrentTime().Add(h.ttl)})
}

func (h *SessionHandler) SignOut(c *gin.Context) {
	session := middleware.SessionFrom(c)
	h.events.Notify(session, nil)
	logger.GetLogger().WithField("user_id", session.UserID).Info("Signed out")

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookie, "", -1, "/", "", c.Request.TLS != nil, true)
	c.Status(http.StatusNoContent)
}
