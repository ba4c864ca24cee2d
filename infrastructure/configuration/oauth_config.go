package configuration

import (
	"strings"
	"time"

	"socialhub/domain/model"
)

// platformEnv lists the environment keys read per platform, most specific first.
var platformEnv = map[string]struct {
	id     []string
	secret []string
}{
	"youtube":   {id: []string{"YOUTUBE_CLIENT_ID", "GOOGLE_CLIENT_ID"}, secret: []string{"YOUTUBE_CLIENT_SECRET", "GOOGLE_CLIENT_SECRET"}},
	"facebook":  {id: []string{"FACEBOOK_CLIENT_ID", "FACEBOOK_APP_ID"}, secret: []string{"FACEBOOK_CLIENT_SECRET", "FACEBOOK_APP_SECRET"}},
	"instagram": {id: []string{"INSTAGRAM_CLIENT_ID", "INSTAGRAM_APP_ID"}, secret: []string{"INSTAGRAM_CLIENT_SECRET", "INSTAGRAM_APP_SECRET"}},
	"twitter":   {id: []string{"TWITTER_CLIENT_ID"}, secret: []string{"TWITTER_CLIENT_SECRET"}},
	"linkedin":  {id: []string{"LINKEDIN_CLIENT_ID"}, secret: []string{"LINKEDIN_CLIENT_SECRET"}},
	"tiktok":    {id: []string{"TIKTOK_CLIENT_KEY", "TIKTOK_CLIENT_ID"}, secret: []string{"TIKTOK_CLIENT_SECRET"}},
}

const defaultStateTTL = 10 * time.Minute

func initOAuth(C *Config) {
	if C.OAuth.Platforms == nil {
		C.OAuth.Platforms = map[string]OAuthClient{}
	}
	for platform, keys := range platformEnv {
		client := C.OAuth.Platforms[platform]
		client.ClientID = firstEnv(keys.id, client.ClientID)
		client.ClientSecret = firstEnv(keys.secret, client.ClientSecret)
		C.OAuth.Platforms[platform] = client
	}
	// Instagram logins go through the Facebook app unless given their own.
	if ig := C.OAuth.Platforms["instagram"]; ig.ClientID == "" {
		C.OAuth.Platforms["instagram"] = C.OAuth.Platforms["facebook"]
	}
	C.OAuth.PKCEMethod = getConfigValue(C.OAuth.PKCEMethod, "OAUTH_PKCE_METHOD", model.PKCEMethodS256)
}

// PlatformCredentials returns the client credentials keyed by platform.
func PlatformCredentials() map[string]model.ClientCredentials {
	out := make(map[string]model.ClientCredentials, len(C.OAuth.Platforms))
	for platform, client := range C.OAuth.Platforms {
		out[strings.ToLower(platform)] = model.ClientCredentials{
			ClientID:     client.ClientID,
			ClientSecret: client.ClientSecret,
		}
	}
	return out
}

// StateTTL bounds how long an issued authorization request stays redeemable.
func StateTTL() time.Duration {
	if C.OAuth.StateTTLSeconds <= 0 {
		return defaultStateTTL
	}
	return time.Duration(C.OAuth.StateTTLSeconds) * time.Second
}

func LockTTL() time.Duration {
	if C.OAuth.LockTTLSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(C.OAuth.LockTTLSeconds) * time.Second
}

func firstEnv(keys []string, fallback string) string {
	for _, k := range keys {
		if v := getConfigValue("", k, ""); v != "" {
			return v
		}
	}
	if strings.HasPrefix(fallback, "YOUR_") {
		return ""
	}
	return fallback
}
