package oauth

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"socialhub/domain/model"
	"socialhub/infrastructure/logger"
)

const (
	maxUserInfoBody = 1 << 20
	maxErrorBody    = 512
)

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// FetchUserInfo reads the account profile with accessToken and normalizes it.
func (c *Client) FetchUserInfo(ctx context.Context, platform, accessToken string) (model.UserInfo, error) {
	d, err := c.registry.Describe(platform)
	if err != nil {
		return model.UserInfo{}, err
	}
	if d.UserInfoURL == "" {
		return model.UserInfo{}, fmt.Errorf("%w: %s", model.ErrMissingUserInfoEndpoint, platform)
	}

	endpoint, err := url.Parse(d.UserInfoURL)
	if err != nil {
		return model.UserInfo{}, fmt.Errorf("parse user info url: %w", err)
	}
	if len(d.UserInfoFields) > 0 {
		param := d.UserInfoFieldsParam
		if param == "" {
			param = "fields"
		}
		q := endpoint.Query()
		q.Set(param, strings.Join(d.UserInfoFields, ","))
		endpoint.RawQuery = q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return model.UserInfo{}, fmt.Errorf("build user info request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return model.UserInfo{}, &model.UserInfoFetchFailedError{Body: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxUserInfoBody))
	if err != nil {
		return model.UserInfo{}, &model.UserInfoFetchFailedError{HTTPStatus: resp.StatusCode, Body: err.Error()}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return model.UserInfo{}, &model.UserInfoFetchFailedError{HTTPStatus: resp.StatusCode, Body: string(body)}
	}

	info, err := Normalize(platform, body)
	if err != nil {
		logger.GetLogger().WithField("error", err).WithField("platform", platform).Warn("Undecodable user info reply")
		return model.UserInfo{}, &model.UserInfoFetchFailedError{HTTPStatus: resp.StatusCode, Body: truncate(string(body), maxErrorBody)}
	}
	if e, ok := c.enrichers[platform]; ok {
		e.Enrich(ctx, accessToken, &info)
	}
	return info, nil
}
