package http

import (
	"errors"
	"net/http"

	"socialhub/domain/dto"
	"socialhub/domain/model"
	"socialhub/domain/repository"
	"socialhub/infrastructure/logger"
	"socialhub/interfaces/middleware"
	"socialhub/usecase"

	"github.com/gin-gonic/gin"
)

const ErrorUnmarshal = "Error while unmarshal"

type IAccountHandler interface {
	Connect(c *gin.Context)
	RequestDisconnect(c *gin.Context)
	ConfirmDisconnect(c *gin.Context)
	CancelDisconnect(c *gin.Context)
	Refresh(c *gin.Context)
	Me(c *gin.Context)
	Platforms(c *gin.Context)
	Stream(c *gin.Context)
}

// EventStream serves a user's account events as server-sent events.
type EventStream interface {
	Serve(c *gin.Context)
}

type AccountHandler struct {
	linking  usecase.IAccountLinking
	view     usecase.IAccountView
	registry repository.IPlatformRegistry
	stream   EventStream
}

func NewAccountHandler(linking usecase.IAccountLinking, view usecase.IAccountView, registry repository.IPlatformRegistry, stream EventStream) IAccountHandler {
	return &AccountHandler{linking: linking, view: view, registry: registry, stream: stream}
}

// statusFor maps a usecase error to an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrNotAuthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, model.ErrUnknownPlatform),
		errors.Is(err, model.ErrNotFound),
		errors.Is(err, model.ErrConfirmationNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrLinkInProgress):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func abortWithError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.GetLogger().WithField("error", err).WithField("path", c.FullPath()).Error("Request failed")
	}
	c.AbortWithStatusJSON(status, dto.Res{
		ResponseCode:    http.StatusText(status),
		ResponseMessage: model.FailureMessage(err),
	})
}

func (h *AccountHandler) Connect(c *gin.Context) {
	res, err := h.linking.BeginConnect(c.Request.Context(), middleware.SessionFrom(c), c.Param("platform"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	out := dto.ConnectResponse{
		State:            res.State,
		Platform:         res.Platform,
		AuthorizationURL: res.AuthorizationURL,
		Account:          res.Account,
	}
	switch res.State {
	case model.LinkStateAlreadyConnected:
		out.Message = "Account is already connected"
	case model.LinkStateMockLinked:
		out.Message = "Platform is not configured; connected a demo account"
	}
	c.JSON(http.StatusOK, out)
}

func (h *AccountHandler) RequestDisconnect(c *gin.Context) {
	intent, err := h.linking.RequestDisconnect(c.Request.Context(), middleware.SessionFrom(c), c.Param("platform"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.DisconnectIntentResponse{
		State:          intent.State,
		Platform:       intent.Platform,
		ConfirmationID: intent.ConfirmationID,
		ExpiresAt:      intent.ExpiresAt,
	})
}

func (h *AccountHandler) ConfirmDisconnect(c *gin.Context) {
	var req dto.ConfirmDisconnectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.GetLogger().WithField("error", err).Error(ErrorUnmarshal)
		c.JSON(http.StatusBadRequest, dto.Res{ResponseCode: "400", ResponseMessage: "confirmation_id is required"})
		return
	}
	res, err := h.linking.ConfirmDisconnect(c.Request.Context(), middleware.SessionFrom(c), c.Param("platform"), req.ConfirmationID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	out := dto.DisconnectResponse{State: res.State, Platform: res.Platform}
	for _, e := range res.Errors {
		out.Errors = append(out.Errors, e.Error())
	}
	status := http.StatusOK
	if len(out.Errors) > 0 {
		status = http.StatusBadGateway
	}
	c.JSON(status, out)
}

func (h *AccountHandler) CancelDisconnect(c *gin.Context) {
	err := h.linking.CancelDisconnect(c.Request.Context(), middleware.SessionFrom(c), c.Param("platform"), c.Param("confirmationId"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.DisconnectResponse{State: model.LinkStateIdle, Platform: c.Param("platform")})
}

func (h *AccountHandler) Refresh(c *gin.Context) {
	platform := c.Param("platform")
	fresh, err := h.linking.RefreshAccount(c.Request.Context(), middleware.SessionFrom(c), platform)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.RefreshResponse{Platform: platform, Fresh: fresh})
}

func (h *AccountHandler) Me(c *gin.Context) {
	user, err := h.view.Load(c.Request.Context(), middleware.SessionFrom(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *AccountHandler) Platforms(c *gin.Context) {
	connected := map[string]bool{}
	if session := middleware.SessionFrom(c); session.Authenticated() {
		if user, err := h.view.Load(c.Request.Context(), session); err == nil {
			connected = user.ConnectedPlatforms
		} else {
			logger.GetLogger().WithField("error", err).Warn("Could not load connected platforms")
		}
	}

	keys := h.registry.Keys()
	out := make([]dto.PlatformSummary, 0, len(keys))
	for _, key := range keys {
		d, err := h.registry.Describe(key)
		if err != nil {
			continue
		}
		out = append(out, dto.PlatformSummary{
			Key:        key,
			Configured: h.registry.IsConfigured(key),
			Connected:  connected[key],
			Scopes:     d.Scopes,
		})
	}
	c.JSON(http.StatusOK, out)
}

func (h *AccountHandler) Stream(c *gin.Context) {
	h.stream.Serve(c)
}
