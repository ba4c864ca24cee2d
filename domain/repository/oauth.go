package repository

import (
	"context"

	"socialhub/domain/model"
)

type IPlatformRegistry interface {
	Describe(platform string) (model.PlatformDescriptor, error)
	IsConfigured(platform string) bool
	Keys() []string
}

type IStateCodec interface {
	Issue(platform, userID string) (string, error)
	Validate(token, platform, userID string) bool
}

// IOAuthClient talks to provider authorization, token and profile endpoints.
type IOAuthClient interface {
	NewPKCE(platform string) (*model.PKCE, error)
	AuthorizationURL(platform, state string, pkce *model.PKCE) (string, error)
	ExchangeCode(ctx context.Context, platform, code, state, verifier string) (model.TokenResponse, error)
	Refresh(ctx context.Context, platform, refreshToken string) (model.TokenResponse, error)
	Revoke(ctx context.Context, platform, accessToken string)
	FetchUserInfo(ctx context.Context, platform, accessToken string) (model.UserInfo, error)
}
