package model

import "time"

// Platform config defaults applied when an account is first linked.
const (
	DefaultPostFormat      = "optimized"
	DefaultHashtagStrategy = "platform_optimized"
	DefaultImageQuality    = "high"
)

// DefaultPostingTimes are the initial optimal posting slots (HH:MM).
var DefaultPostingTimes = []string{"09:00", "12:00", "17:00"}

// LinkedAccount stores a user's credentials and profile for one platform
type LinkedAccount struct {
	ID                string    `json:"id"`
	UserID            string    `json:"user_id"`
	Platform          string    `json:"platform"`
	PlatformUserID    string    `json:"platform_user_id"`
	Username          string    `json:"username"`
	DisplayName       string    `json:"display_name"`
	FollowerCount     int64     `json:"follower_count"`
	IsBusinessAccount bool      `json:"is_business_account"`
	AccessToken       string    `json:"-"`
	RefreshToken      string    `json:"-"`
	TokenExpiresAt    time.Time `json:"token_expires_at"`
	Scopes            []string  `json:"scopes"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// PlatformConfig holds per-user publishing preferences for a platform
type PlatformConfig struct {
	ID                  string         `json:"id"`
	UserID              string         `json:"user_id"`
	Platform            string         `json:"platform"`
	DefaultPostFormat   string         `json:"default_post_format"`
	OptimalPostingTimes []string       `json:"optimal_posting_times"`
	HashtagStrategy     string         `json:"hashtag_strategy"`
	ImageQuality        string         `json:"image_quality"`
	AutoPublish         bool           `json:"auto_publish"`
	Settings            map[string]any `json:"settings"`
	CreatedAt           time.Time      `json:"created_at"`
	UpdatedAt           time.Time      `json:"updated_at"`
}

// DefaultPlatformConfig returns the config created alongside a first link.
func DefaultPlatformConfig(userID, platform string) PlatformConfig {
	times := make([]string, len(DefaultPostingTimes))
	copy(times, DefaultPostingTimes)
	return PlatformConfig{
		UserID:              userID,
		Platform:            platform,
		DefaultPostFormat:   DefaultPostFormat,
		OptimalPostingTimes: times,
		HashtagStrategy:     DefaultHashtagStrategy,
		ImageQuality:        DefaultImageQuality,
		AutoPublish:         false,
		Settings: map[string]any{
			"auto_hashtags":      true,
			"cross_post":         true,
			"analytics_tracking": true,
		},
	}
}
