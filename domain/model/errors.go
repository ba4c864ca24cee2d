package model

import (
	"errors"
	"fmt"
)

var (
	ErrNotAuthenticated        = errors.New("not authenticated")
	ErrUnknownPlatform         = errors.New("unknown platform")
	ErrUnconfiguredPlatform    = errors.New("platform is not configured")
	ErrMissingCode             = errors.New("missing authorization code")
	ErrMissingState            = errors.New("missing state parameter")
	ErrInvalidState            = errors.New("invalid state parameter")
	ErrNoAccessToken           = errors.New("no access token received")
	ErrMissingUserInfoEndpoint = errors.New("user info endpoint not configured")
	ErrLinkInProgress          = errors.New("another link operation is in progress")
	ErrConcurrentModification  = errors.New("account was modified concurrently")
	ErrNotFound                = errors.New("not found")
	ErrConfirmationNotFound    = errors.New("disconnect confirmation not found or expired")
)

// ProviderError is an error reported by the provider on the callback.
type ProviderError struct {
	Code        string
	Description string
}

func (e *ProviderError) Error() string {
	if e.Description != "" {
		return e.Description
	}
	return e.Code
}

// TokenExchangeFailedError is a non-2xx reply from a token endpoint.
type TokenExchangeFailedError struct {
	HTTPStatus int
	Body       string
}

func (e *TokenExchangeFailedError) Error() string {
	return fmt.Sprintf("token exchange failed: status %d: %s", e.HTTPStatus, e.Body)
}

// UserInfoFetchFailedError is a failed or unreadable reply from a user info endpoint.
type UserInfoFetchFailedError struct {
	HTTPStatus int
	Body       string
}

func (e *UserInfoFetchFailedError) Error() string {
	return fmt.Sprintf("user info fetch failed: status %d: %s", e.HTTPStatus, e.Body)
}

// PersistFailedError wraps a storage failure while saving a link.
type PersistFailedError struct {
	Cause error
}

func (e *PersistFailedError) Error() string {
	return fmt.Sprintf("failed to save account: %v", e.Cause)
}

func (e *PersistFailedError) Unwrap() error {
	return e.Cause
}

// FailureMessage renders err for display next to a failed link.
func FailureMessage(err error) string {
	var (
		providerErr *ProviderError
		exchangeErr *TokenExchangeFailedError
		infoErr     *UserInfoFetchFailedError
		persistErr  *PersistFailedError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &providerErr):
		return providerErr.Error()
	case errors.Is(err, ErrNotAuthenticated):
		return "Please sign in before connecting an account"
	case errors.Is(err, ErrMissingCode), errors.Is(err, ErrMissingState):
		return "Missing authorization code or state parameter"
	case errors.Is(err, ErrInvalidState):
		return "Invalid state parameter"
	case errors.As(err, &exchangeErr), errors.Is(err, ErrNoAccessToken):
		return "Failed to exchange authorization code for an access token"
	case errors.As(err, &infoErr), errors.Is(err, ErrMissingUserInfoEndpoint):
		return "Failed to fetch account profile from the platform"
	case errors.As(err, &persistErr):
		return "Failed to save the connected account"
	case errors.Is(err, ErrLinkInProgress):
		return "A connection for this platform is already in progress"
	default:
		return err.Error()
	}
}
