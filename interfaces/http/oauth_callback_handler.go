package http

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"socialhub/domain/dto"
	"socialhub/domain/model"
	"socialhub/interfaces/middleware"
	"socialhub/usecase"

	"github.com/gin-gonic/gin"
)

type IOAuthCallbackHandler interface {
	Callback(c *gin.Context)
}

type OAuthCallbackHandler struct {
	linking     usecase.IAccountLinking
	frontendURL string
}

func NewOAuthCallbackHandler(linking usecase.IAccountLinking, frontendURL string) IOAuthCallbackHandler {
	return &OAuthCallbackHandler{linking: linking, frontendURL: strings.TrimRight(frontendURL, "/")}
}

var actionLabels = map[string]struct{ label, path string }{
	model.ActionReturnToDashboard: {"Return to Dashboard", "/dashboard"},
	model.ActionGoToSettings:      {"Go to Settings", "/settings"},
}

// Callback completes the provider redirect. Success navigates back to the
// dashboard; failure is rendered in place with recovery actions.
func (h *OAuthCallbackHandler) Callback(c *gin.Context) {
	params := usecase.CallbackParams{
		Code:             c.Query("code"),
		State:            c.Query("state"),
		Error:            c.Query("error"),
		ErrorDescription: c.Query("error_description"),
	}
	res := h.linking.CompleteCallback(c.Request.Context(), middleware.SessionFrom(c), c.Param("platform"), params)

	if res.Failed() {
		c.JSON(failureStatus(res.Err), h.failure(res))
		return
	}
	if c.Query("format") == "json" {
		c.JSON(http.StatusOK, dto.ConnectResponse{
			State:    res.State,
			Platform: res.Platform,
			Message:  res.Message,
			Account:  res.Account,
		})
		return
	}
	c.Redirect(http.StatusFound, h.frontendURL+"/dashboard?message="+url.QueryEscape(res.Message))
}

func (h *OAuthCallbackHandler) failure(res *usecase.LinkResult) dto.LinkFailureResponse {
	out := dto.LinkFailureResponse{
		State:    res.State,
		Platform: res.Platform,
		Message:  res.Message,
		Actions:  make([]dto.RecoveryAction, 0, len(res.Actions)),
	}
	if res.Err != nil {
		out.Error = res.Err.Error()
	}
	for _, a := range res.Actions {
		l, ok := actionLabels[a]
		if !ok {
			continue
		}
		out.Actions = append(out.Actions, dto.RecoveryAction{Action: a, Label: l.label, Href: h.frontendURL + l.path})
	}
	return out
}

// failureStatus keeps the failure page at 200 except where the request itself was refused.
func failureStatus(err error) int {
	switch {
	case errors.Is(err, model.ErrNotAuthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, model.ErrUnknownPlatform):
		return http.StatusNotFound
	case errors.Is(err, model.ErrLinkInProgress):
		return http.StatusConflict
	default:
		return http.StatusOK
	}
}
