package oauth

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"socialhub/domain/model"

	"golang.org/x/oauth2"
)

// Enricher adds provider data that the user info endpoint does not return.
type Enricher interface {
	Enrich(ctx context.Context, accessToken string, info *model.UserInfo)
}

// Client performs the network side of the OAuth flow for every registered platform.
type Client struct {
	registry   *Registry
	httpClient *http.Client
	enrichers  map[string]Enricher
}

func NewClient(registry *Registry, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{
		registry:   registry,
		httpClient: httpClient,
		enrichers:  map[string]Enricher{},
	}
}

// WithEnricher runs e after every successful profile fetch for platform.
func (c *Client) WithEnricher(platform string, e Enricher) *Client {
	c.enrichers[platform] = e
	return c
}

// NewPKCE returns the PKCE pair the platform's descriptor asks for, or nil.
func (c *Client) NewPKCE(platform string) (*model.PKCE, error) {
	d, err := c.registry.Describe(platform)
	if err != nil {
		return nil, err
	}
	return NewPKCE(d.PKCEMethod)
}

// configured returns the descriptor of a platform that has client credentials.
func (c *Client) configured(platform string) (model.PlatformDescriptor, error) {
	d, err := c.registry.Describe(platform)
	if err != nil {
		return d, err
	}
	if !d.Configured() {
		return d, fmt.Errorf("%w: %s", model.ErrUnconfiguredPlatform, platform)
	}
	return d, nil
}

func (c *Client) context(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
}

func oauth2Config(d model.PlatformDescriptor) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     d.ClientID,
		ClientSecret: d.ClientSecret,
		RedirectURL:  d.RedirectURI,
		Scopes:       d.Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:   d.AuthorizeURL,
			TokenURL:  d.TokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}
