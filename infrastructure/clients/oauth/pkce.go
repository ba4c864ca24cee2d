package oauth

import (
	"fmt"

	"socialhub/domain/model"

	"golang.org/x/oauth2"
)

// NewPKCE returns a fresh verifier and its challenge, or nil when method is empty.
func NewPKCE(method string) (*model.PKCE, error) {
	switch method {
	case "":
		return nil, nil
	case model.PKCEMethodS256:
		verifier := oauth2.GenerateVerifier()
		return &model.PKCE{
			Verifier:  verifier,
			Challenge: oauth2.S256ChallengeFromVerifier(verifier),
			Method:    model.PKCEMethodS256,
		}, nil
	case model.PKCEMethodPlain:
		verifier := oauth2.GenerateVerifier()
		return &model.PKCE{Verifier: verifier, Challenge: verifier, Method: model.PKCEMethodPlain}, nil
	default:
		return nil, fmt.Errorf("unsupported PKCE method %q", method)
	}
}
