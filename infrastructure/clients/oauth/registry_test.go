package oauth

import (
	"testing"

	"socialhub/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistryDefaults(t *testing.T) {
	reg, err := NewRegistry("http://localhost:5173/", map[string]model.ClientCredentials{
		"twitter": {ClientID: "tw-id", ClientSecret: "tw-secret"},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"facebook", "instagram", "linkedin", "tiktok", "twitter", "youtube"}, reg.Keys())

	tw, err := reg.Describe("twitter")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:5173/auth/callback/twitter", tw.RedirectURI)
	assert.Equal(t, "S256", tw.PKCEMethod)
	assert.Equal(t, "code", tw.ResponseType)
	assert.True(t, reg.IsConfigured("twitter"))
	assert.False(t, reg.IsConfigured("linkedin"))
	assert.False(t, reg.IsConfigured("myspace"))

	fb, err := reg.Describe("facebook")
	require.NoError(t, err)
	assert.Equal(t, "popup", fb.ExtraAuthParams["display"])

	tt, err := reg.Describe("tiktok")
	require.NoError(t, err)
	assert.Empty(t, tt.RevokeURL)
}

func TestDefaultProviderRequestQuirks(t *testing.T) {
	reg, err := NewRegistry("http://localhost:5173", nil)
	require.NoError(t, err)

	yt, err := reg.Describe("youtube")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"access_type": "offline", "prompt": "consent"}, yt.ExtraAuthParams)

	for key, param := range map[string]string{"facebook": "fields", "instagram": "fields", "twitter": "user.fields"} {
		d, err := reg.Describe(key)
		require.NoError(t, err)
		assert.Equal(t, param, d.UserInfoFieldsParam, key)
		assert.NotEmpty(t, d.UserInfoFields, key)
	}

	li, err := reg.Describe("linkedin")
	require.NoError(t, err)
	assert.Empty(t, li.UserInfoFields)
}

func TestDescribeUnknownPlatform(t *testing.T) {
	reg, err := NewRegistry("http://localhost:5173", nil)
	require.NoError(t, err)

	_, err = reg.Describe("myspace")
	assert.ErrorIs(t, err, model.ErrUnknownPlatform)
}

func TestDescribeReturnsCopy(t *testing.T) {
	reg, err := NewRegistry("http://localhost:5173", nil)
	require.NoError(t, err)

	d, err := reg.Describe("facebook")
	require.NoError(t, err)
	d.Scopes[0] = "tampered"
	d.ExtraAuthParams["display"] = "page"

	again, err := reg.Describe("facebook")
	require.NoError(t, err)
	assert.Equal(t, "pages_manage_posts", again.Scopes[0])
	assert.Equal(t, "popup", again.ExtraAuthParams["display"])
}

func TestWithPKCEMethodOnlyTouchesPKCEPlatforms(t *testing.T) {
	reg, err := NewRegistry("http://localhost:5173", nil, WithPKCEMethod(model.PKCEMethodPlain))
	require.NoError(t, err)

	tw, _ := reg.Describe("twitter")
	yt, _ := reg.Describe("youtube")
	assert.Equal(t, model.PKCEMethodPlain, tw.PKCEMethod)
	assert.Empty(t, yt.PKCEMethod)
}

func TestNewRegistryFromDescriptorsValidates(t *testing.T) {
	_, err := NewRegistryFromDescriptors(model.PlatformDescriptor{
		Key:          "broken",
		RedirectURI:  "not a url",
		AuthorizeURL: "https://example.com/authorize",
		TokenURL:     "https://example.com/token",
	})
	assert.Error(t, err)

	_, err = NewRegistryFromDescriptors(model.PlatformDescriptor{
		Key:          "bad|key",
		RedirectURI:  "https://example.com/cb",
		AuthorizeURL: "https://example.com/authorize",
		TokenURL:     "https://example.com/token",
	})
	assert.Error(t, err)

	d := model.PlatformDescriptor{
		Key:          "mastodon",
		RedirectURI:  "https://example.com/cb",
		AuthorizeURL: "https://example.com/authorize",
		TokenURL:     "https://example.com/token",
	}
	_, err = NewRegistryFromDescriptors(d, d)
	assert.Error(t, err)

	reg, err := NewRegistryFromDescriptors(d)
	require.NoError(t, err)
	assert.Equal(t, []string{"mastodon"}, reg.Keys())
}
