package oauth

import (
	"socialhub/domain/model"

	"golang.org/x/oauth2"
)

// AuthorizationURL builds the provider consent URL. It performs no I/O.
func (c *Client) AuthorizationURL(platform, state string, pkce *model.PKCE) (string, error) {
	d, err := c.configured(platform)
	if err != nil {
		return "", err
	}
	opts := make([]oauth2.AuthCodeOption, 0, len(d.ExtraAuthParams)+2)
	for k, v := range d.ExtraAuthParams {
		opts = append(opts, oauth2.SetAuthURLParam(k, v))
	}
	if pkce != nil {
		opts = append(opts,
			oauth2.SetAuthURLParam("code_challenge", pkce.Challenge),
			oauth2.SetAuthURLParam("code_challenge_method", pkce.Method),
		)
	}
	return oauth2Config(d).AuthCodeURL(state, opts...), nil
}
