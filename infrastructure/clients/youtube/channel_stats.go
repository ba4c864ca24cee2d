package youtube

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"socialhub/domain/model"
	"socialhub/infrastructure/logger"

	"golang.org/x/oauth2"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

// ChannelStatsEnricher fills the subscriber count of a linked YouTube account,
// which the Google user info endpoint does not return.
type ChannelStatsEnricher struct {
	httpClient *http.Client
	opts       []option.ClientOption
}

const defaultTimeout = 10 * time.Second

// NewChannelStatsEnricher uses httpClient for channels.list; nil gets a client
// bounded by defaultTimeout.
func NewChannelStatsEnricher(httpClient *http.Client, opts ...option.ClientOption) *ChannelStatsEnricher {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &ChannelStatsEnricher{httpClient: httpClient, opts: opts}
}

// Enrich is best-effort: failures are logged and info is left as is.
func (e *ChannelStatsEnricher) Enrich(ctx context.Context, accessToken string, info *model.UserInfo) {
	channel, err := e.myChannel(ctx, accessToken)
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("Failed to load YouTube channel statistics")
		return
	}
	if channel == nil {
		return
	}
	if channel.Statistics != nil && !channel.Statistics.HiddenSubscriberCount {
		info.FollowerCount = int64(channel.Statistics.SubscriberCount)
	}
	if channel.Snippet != nil {
		if info.Username == "" && channel.Snippet.CustomUrl != "" {
			info.Username = strings.TrimPrefix(channel.Snippet.CustomUrl, "@")
		}
		if info.DisplayName == "" {
			info.DisplayName = channel.Snippet.Title
		}
	}
}

func (e *ChannelStatsEnricher) myChannel(ctx context.Context, accessToken string) (*youtube.Channel, error) {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"})
	httpClient := oauth2.NewClient(context.WithValue(ctx, oauth2.HTTPClient, e.httpClient), ts)

	opts := append([]option.ClientOption{option.WithHTTPClient(httpClient)}, e.opts...)
	service, err := youtube.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create YouTube service: %w", err)
	}

	response, err := service.Channels.List([]string{"snippet", "statistics"}).Mine(true).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get my channel: %w", err)
	}
	if len(response.Items) == 0 {
		return nil, nil
	}
	return response.Items[0], nil
}
