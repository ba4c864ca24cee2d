package oauth

import (
	"context"
	"errors"
	"strings"
	"time"

	"socialhub/domain/model"
	"socialhub/infrastructure/logger"

	"golang.org/x/oauth2"
)

// ExchangeCode trades an authorization code for tokens.
func (c *Client) ExchangeCode(ctx context.Context, platform, code, state, verifier string) (model.TokenResponse, error) {
	d, err := c.configured(platform)
	if err != nil {
		return model.TokenResponse{}, err
	}
	if issued, ok := IssuedAt(state); ok {
		logger.GetLogger().WithField("platform", platform).WithField("state_age", time.Since(issued).String()).Debug("Exchanging authorization code")
	}

	var opts []oauth2.AuthCodeOption
	if verifier != "" {
		opts = append(opts, oauth2.VerifierOption(verifier))
	}
	tok, err := oauth2Config(d).Exchange(c.context(ctx), code, opts...)
	if err != nil {
		return model.TokenResponse{}, tokenError(err)
	}
	return tokenResponse(tok), nil
}

// Refresh obtains a new access token with a refresh token.
func (c *Client) Refresh(ctx context.Context, platform, refreshToken string) (model.TokenResponse, error) {
	d, err := c.configured(platform)
	if err != nil {
		return model.TokenResponse{}, err
	}
	src := oauth2Config(d).TokenSource(c.context(ctx), &oauth2.Token{RefreshToken: refreshToken})
	tok, err := src.Token()
	if err != nil {
		return model.TokenResponse{}, tokenError(err)
	}
	return tokenResponse(tok), nil
}

func tokenError(err error) error {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) {
		status := 0
		if re.Response != nil {
			status = re.Response.StatusCode
		}
		return &model.TokenExchangeFailedError{HTTPStatus: status, Body: string(re.Body)}
	}
	if strings.Contains(err.Error(), "missing access_token") {
		return model.ErrNoAccessToken
	}
	return &model.TokenExchangeFailedError{Body: err.Error()}
}

func tokenResponse(tok *oauth2.Token) model.TokenResponse {
	resp := model.TokenResponse{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.TokenType,
		ExpiresIn:    tok.ExpiresIn,
	}
	if resp.ExpiresIn == 0 && !tok.Expiry.IsZero() {
		resp.ExpiresIn = int64(time.Until(tok.Expiry).Round(time.Second) / time.Second)
	}
	if scope, ok := tok.Extra("scope").(string); ok {
		resp.Scope = scope
	}
	return resp
}
