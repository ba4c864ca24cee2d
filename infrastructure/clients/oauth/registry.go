package oauth

import (
	"fmt"
	"sort"
	"strings"

	"socialhub/domain/model"

	"github.com/go-playground/validator/v10"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/youtube/v3"
)

const (
	callbackPath = "/auth/callback/"

	googleAuthorizeURL = "https://accounts.google.com/o/oauth2/v2/auth"
	googleRevokeURL    = "https://oauth2.googleapis.com/revoke"
	googleUserInfoURL  = "https://www.googleapis.com/oauth2/v2/userinfo"

	facebookAuthorizeURL = "https://www.facebook.com/v18.0/dialog/oauth"
	facebookTokenURL     = "https://graph.facebook.com/v18.0/oauth/access_token"

	graphUserInfoURL    = "https://graph.facebook.com/me"
	graphAccountsURL    = "https://graph.facebook.com/me/accounts"
	graphPermissionsURL = "https://graph.facebook.com/me/permissions"
)

// defaultDescriptors is the provider table. Credentials and redirect URIs are filled in by NewRegistry.
func defaultDescriptors() []model.PlatformDescriptor {
	return []model.PlatformDescriptor{
		{
			Key:          "youtube",
			AuthorizeURL: googleAuthorizeURL,
			TokenURL:     google.Endpoint.TokenURL,
			UserInfoURL:  googleUserInfoURL,
			RevokeURL:    googleRevokeURL,
			Scopes: []string{
				youtube.YoutubeUploadScope,
				youtube.YoutubeReadonlyScope,
				youtube.YoutubeForceSslScope,
			},
			ExtraAuthParams: map[string]string{"access_type": "offline", "prompt": "consent"},
		},
		{
			Key:                 "facebook",
			AuthorizeURL:        facebookAuthorizeURL,
			TokenURL:            facebookTokenURL,
			UserInfoURL:         graphUserInfoURL,
			UserInfoFieldsParam: "fields",
			UserInfoFields:      []string{"id", "name", "email", "picture"},
			RevokeURL:           graphPermissionsURL,
			Scopes: []string{
				"pages_manage_posts",
				"pages_read_engagement",
				"pages_show_list",
				"publish_to_groups",
				"user_posts",
			},
			ExtraAuthParams: map[string]string{"display": "popup"},
		},
		{
			Key:                 "instagram",
			AuthorizeURL:        facebookAuthorizeURL,
			TokenURL:            facebookTokenURL,
			UserInfoURL:         graphAccountsURL,
			UserInfoFieldsParam: "fields",
			UserInfoFields:      []string{"id", "name", "username", "profile_picture_url", "followers_count", "account_type"},
			RevokeURL:           graphPermissionsURL,
			Scopes: []string{
				"instagram_basic",
				"instagram_content_publish",
				"pages_show_list",
				"pages_read_engagement",
			},
			ExtraAuthParams: map[string]string{"display": "popup"},
		},
		{
			Key:                 "twitter",
			AuthorizeURL:        "https://twitter.com/i/oauth2/authorize",
			TokenURL:            "https://api.twitter.com/2/oauth2/token",
			UserInfoURL:         "https://api.twitter.com/2/users/me",
			UserInfoFieldsParam: "user.fields",
			UserInfoFields:      []string{"profile_image_url", "public_metrics"},
			RevokeURL:           "https://api.twitter.com/2/oauth2/revoke",
			Scopes:              []string{"tweet.read", "tweet.write", "users.read", "offline.access"},
			PKCEMethod:          model.PKCEMethodS256,
		},
		{
			Key:          "linkedin",
			AuthorizeURL: "https://www.linkedin.com/oauth/v2/authorization",
			TokenURL:     "https://www.linkedin.com/oauth/v2/accessToken",
			UserInfoURL:  "https://api.linkedin.com/v2/me",
			RevokeURL:    "https://www.linkedin.com/oauth/v2/revoke",
			Scopes:       []string{"r_liteprofile", "r_emailaddress", "w_member_social"},
		},
		{
			Key:          "tiktok",
			AuthorizeURL: "https://www.tiktok.com/auth/authorize/",
			TokenURL:     "https://open-api.tiktok.com/oauth/access_token/",
			UserInfoURL:  "https://open-api.tiktok.com/user/info/",
			Scopes:       []string{"user.info.basic", "video.publish", "video.list"},
		},
	}
}

// Registry is the immutable set of supported platforms.
type Registry struct {
	descriptors map[string]model.PlatformDescriptor
	keys        []string
}

// RegistryOption adjusts a descriptor before validation.
type RegistryOption func(*model.PlatformDescriptor)

// WithPKCEMethod makes every descriptor that declares PKCE use method.
func WithPKCEMethod(method string) RegistryOption {
	return func(d *model.PlatformDescriptor) {
		if d.PKCEMethod != "" && method != "" {
			d.PKCEMethod = method
		}
	}
}

// NewRegistry builds the default provider table for an app served at baseURL.
func NewRegistry(baseURL string, credentials map[string]model.ClientCredentials, opts ...RegistryOption) (*Registry, error) {
	base := strings.TrimRight(baseURL, "/")
	descriptors := defaultDescriptors()
	for i := range descriptors {
		d := &descriptors[i]
		creds := credentials[d.Key]
		d.ClientID = creds.ClientID
		d.ClientSecret = creds.ClientSecret
		d.RedirectURI = base + callbackPath + d.Key
		for _, opt := range opts {
			opt(d)
		}
	}
	return NewRegistryFromDescriptors(descriptors...)
}

// NewRegistryFromDescriptors validates and indexes descriptors.
func NewRegistryFromDescriptors(descriptors ...model.PlatformDescriptor) (*Registry, error) {
	validate := validator.New()
	r := &Registry{descriptors: make(map[string]model.PlatformDescriptor, len(descriptors))}
	for _, d := range descriptors {
		if d.ResponseType == "" {
			d.ResponseType = "code"
		}
		if err := validate.Struct(d); err != nil {
			return nil, fmt.Errorf("invalid descriptor %q: %w", d.Key, err)
		}
		if _, dup := r.descriptors[d.Key]; dup {
			return nil, fmt.Errorf("duplicate descriptor %q", d.Key)
		}
		r.descriptors[d.Key] = cloneDescriptor(d)
		r.keys = append(r.keys, d.Key)
	}
	sort.Strings(r.keys)
	return r, nil
}

// Describe returns a copy of the descriptor for platform.
func (r *Registry) Describe(platform string) (model.PlatformDescriptor, error) {
	d, ok := r.descriptors[platform]
	if !ok {
		return model.PlatformDescriptor{}, fmt.Errorf("%w: %s", model.ErrUnknownPlatform, platform)
	}
	return cloneDescriptor(d), nil
}

func (r *Registry) IsConfigured(platform string) bool {
	d, ok := r.descriptors[platform]
	return ok && d.Configured()
}

func (r *Registry) Keys() []string {
	out := make([]string, len(r.keys))
	copy(out, r.keys)
	return out
}

func cloneDescriptor(d model.PlatformDescriptor) model.PlatformDescriptor {
	d.Scopes = append([]string(nil), d.Scopes...)
	d.UserInfoFields = append([]string(nil), d.UserInfoFields...)
	if d.ExtraAuthParams != nil {
		params := make(map[string]string, len(d.ExtraAuthParams))
		for k, v := range d.ExtraAuthParams {
			params[k] = v
		}
		d.ExtraAuthParams = params
	}
	return d
}
