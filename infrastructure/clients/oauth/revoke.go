package oauth

import (
	"context"
	"io"
	"net/http"
	"strings"

	"socialhub/infrastructure/logger"
	"socialhub/infrastructure/metrics"

	"github.com/google/go-querystring/query"
)

type revokeForm struct {
	Token         string `url:"token"`
	TokenTypeHint string `url:"token_type_hint,omitempty"`
	ClientID      string `url:"client_id,omitempty"`
}

// Revoke asks the provider to invalidate accessToken. Failures are logged and never returned.
func (c *Client) Revoke(ctx context.Context, platform, accessToken string) {
	lg := logger.GetLogger().WithField("platform", platform)
	d, err := c.registry.Describe(platform)
	if err != nil || d.RevokeURL == "" {
		lg.Info("Token revocation not supported for platform")
		metrics.RevokeTotal.WithLabelValues(platform, metrics.OutcomeUnsupported).Inc()
		return
	}

	form, err := query.Values(revokeForm{Token: accessToken, TokenTypeHint: "access_token", ClientID: d.ClientID})
	if err != nil {
		lg.WithField("error", err).Warn("Failed to encode revoke request")
		metrics.RevokeTotal.WithLabelValues(platform, metrics.OutcomeFailure).Inc()
		return
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.RevokeURL, strings.NewReader(form.Encode()))
	if err != nil {
		lg.WithField("error", err).Warn("Failed to build revoke request")
		metrics.RevokeTotal.WithLabelValues(platform, metrics.OutcomeFailure).Inc()
		return
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		lg.WithField("error", err).Warn("Failed to revoke token")
		metrics.RevokeTotal.WithLabelValues(platform, metrics.OutcomeFailure).Inc()
		return
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		lg.WithField("status", resp.StatusCode).Warn("Token revocation rejected by platform")
		metrics.RevokeTotal.WithLabelValues(platform, metrics.OutcomeFailure).Inc()
		return
	}
	metrics.RevokeTotal.WithLabelValues(platform, metrics.OutcomeSuccess).Inc()
}
