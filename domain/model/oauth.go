package model

import (
	"strings"
	"time"
)

// DefaultTokenLifetime applies when a provider omits expires_in.
const DefaultTokenLifetime = time.Hour

// TokenResponse is a provider token endpoint reply.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresIn    int64  `json:"expires_in,omitempty"`
	TokenType    string `json:"token_type,omitempty"`
	Scope        string `json:"scope,omitempty"`
}

// Scopes splits the granted scope string on whitespace.
func (t TokenResponse) Scopes() []string {
	return strings.Fields(t.Scope)
}

// UserInfo is the provider-neutral profile of a linked account.
type UserInfo struct {
	ID                string `json:"id"`
	Username          string `json:"username,omitempty"`
	DisplayName       string `json:"display_name,omitempty"`
	Email             string `json:"email,omitempty"`
	AvatarURL         string `json:"avatar_url,omitempty"`
	FollowerCount     int64  `json:"follower_count,omitempty"`
	IsBusinessAccount bool   `json:"is_business_account,omitempty"`
}

// PendingAuthorization is the server-side slot created when an authorize URL is handed out.
type PendingAuthorization struct {
	UserID       string    `json:"user_id"`
	Platform     string    `json:"platform"`
	State        string    `json:"state"`
	CodeVerifier string    `json:"code_verifier,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// DisconnectConfirmation is an outstanding request to unlink a platform.
type DisconnectConfirmation struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Platform  string    `json:"platform"`
	CreatedAt time.Time `json:"created_at"`
}
