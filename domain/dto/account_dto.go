package dto

import (
	"time"

	"socialhub/domain/model"
)

// RecoveryAction is a follow-up offered after a failed link
type RecoveryAction struct {
	Action string `json:"action"`
	Label  string `json:"label"`
	Href   string `json:"href"`
}

// LinkFailureResponse is rendered in place when a callback fails
type LinkFailureResponse struct {
	State    model.LinkState  `json:"state"`
	Platform string           `json:"platform"`
	Error    string           `json:"error"`
	Message  string           `json:"message"`
	Actions  []RecoveryAction `json:"actions"`
}

// ConnectResponse is returned when a connect flow starts
type ConnectResponse struct {
	State            model.LinkState      `json:"state"`
	Platform         string               `json:"platform"`
	AuthorizationURL string               `json:"auth_url,omitempty"`
	Message          string               `json:"message,omitempty"`
	Account          *model.LinkedAccount `json:"account,omitempty"`
}

// DisconnectIntentResponse asks the client to confirm an unlink
type DisconnectIntentResponse struct {
	State          model.LinkState `json:"state"`
	Platform       string          `json:"platform"`
	ConfirmationID string          `json:"confirmation_id"`
	ExpiresAt      time.Time       `json:"expires_at"`
}

type ConfirmDisconnectRequest struct {
	ConfirmationID string `json:"confirmation_id" binding:"required"`
}

type DisconnectResponse struct {
	State    model.LinkState `json:"state"`
	Platform string          `json:"platform"`
	Errors   []string        `json:"errors,omitempty"`
}

type RefreshResponse struct {
	Platform string `json:"platform"`
	Fresh    bool   `json:"fresh"`
}

// PlatformSummary lists a supported platform for the connect screen
type PlatformSummary struct {
	Key        string   `json:"key"`
	Configured bool     `json:"configured"`
	Connected  bool     `json:"connected"`
	Scopes     []string `json:"scopes"`
}
