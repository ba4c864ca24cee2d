package oauth

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"socialhub/domain/model"
)

type mapper func(raw []byte) (model.UserInfo, error)

var mappers = map[string]mapper{
	"youtube":   normalizeGoogle,
	"facebook":  normalizeFacebook,
	"instagram": normalizeInstagram,
	"twitter":   normalizeTwitter,
	"linkedin":  normalizeLinkedIn,
	"tiktok":    normalizeTikTok,
}

// Normalize maps a provider user info payload to model.UserInfo.
// Missing optional fields are left empty; only malformed JSON is an error.
func Normalize(platform string, raw []byte) (model.UserInfo, error) {
	m, ok := mappers[platform]
	if !ok {
		m = normalizeGeneric
	}
	info, err := m(raw)
	if err != nil {
		return model.UserInfo{}, fmt.Errorf("decode %s user info: %w", platform, err)
	}
	return info, nil
}

func normalizeGoogle(raw []byte) (model.UserInfo, error) {
	var p struct {
		ID      string `json:"id"`
		Email   string `json:"email"`
		Name    string `json:"name"`
		Picture string `json:"picture"`
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		return model.UserInfo{}, err
	}
	username, _, _ := strings.Cut(p.Email, "@")
	return model.UserInfo{
		ID:          p.ID,
		Username:    username,
		DisplayName: p.Name,
		Email:       p.Email,
		AvatarURL:   p.Picture,
	}, nil
}

func normalizeFacebook(raw []byte) (model.UserInfo, error) {
	var p struct {
		ID       string `json:"id"`
		Username string `json:"username"`
		Name     string `json:"name"`
		Email    string `json:"email"`
		Picture  struct {
			Data struct {
				URL string `json:"url"`
			} `json:"data"`
		} `json:"picture"`
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		return model.UserInfo{}, err
	}
	username := p.Username
	if username == "" {
		username = p.ID
	}
	return model.UserInfo{
		ID:          p.ID,
		Username:    username,
		DisplayName: p.Name,
		Email:       p.Email,
		AvatarURL:   p.Picture.Data.URL,
	}, nil
}

type instagramAccount struct {
	ID                string `json:"id"`
	Username          string `json:"username"`
	Name              string `json:"name"`
	ProfilePictureURL string `json:"profile_picture_url"`
	FollowersCount    int64  `json:"followers_count"`
	AccountType       string `json:"account_type"`
}

func normalizeInstagram(raw []byte) (model.UserInfo, error) {
	var p struct {
		instagramAccount
		// me/accounts wraps the accounts in a page list.
		Data []instagramAccount `json:"data"`
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		return model.UserInfo{}, err
	}
	acct := p.instagramAccount
	if acct.ID == "" && len(p.Data) > 0 {
		acct = p.Data[0]
	}
	display := acct.Name
	if display == "" {
		display = acct.Username
	}
	return model.UserInfo{
		ID:                acct.ID,
		Username:          acct.Username,
		DisplayName:       display,
		AvatarURL:         acct.ProfilePictureURL,
		FollowerCount:     acct.FollowersCount,
		IsBusinessAccount: acct.AccountType == "BUSINESS",
	}, nil
}

type twitterUser struct {
	ID              string `json:"id"`
	Username        string `json:"username"`
	Name            string `json:"name"`
	ProfileImageURL string `json:"profile_image_url"`
	PublicMetrics   struct {
		FollowersCount int64 `json:"followers_count"`
	} `json:"public_metrics"`
}

func normalizeTwitter(raw []byte) (model.UserInfo, error) {
	var p struct {
		twitterUser
		Data *twitterUser `json:"data"`
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		return model.UserInfo{}, err
	}
	u := p.twitterUser
	if p.Data != nil {
		u = *p.Data
	}
	return model.UserInfo{
		ID:            u.ID,
		Username:      u.Username,
		DisplayName:   u.Name,
		AvatarURL:     u.ProfileImageURL,
		FollowerCount: u.PublicMetrics.FollowersCount,
	}, nil
}

func normalizeLinkedIn(raw []byte) (model.UserInfo, error) {
	var p struct {
		ID                 string `json:"id"`
		LocalizedFirstName string `json:"localizedFirstName"`
		LocalizedLastName  string `json:"localizedLastName"`
		ProfilePicture     struct {
			DisplayImage struct {
				Elements []struct {
					Identifiers []struct {
						Identifier string `json:"identifier"`
					} `json:"identifiers"`
				} `json:"elements"`
			} `json:"displayImage~"`
		} `json:"profilePicture"`
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		return model.UserInfo{}, err
	}
	info := model.UserInfo{
		ID:          p.ID,
		DisplayName: strings.TrimSpace(p.LocalizedFirstName + " " + p.LocalizedLastName),
	}
	if els := p.ProfilePicture.DisplayImage.Elements; len(els) > 0 && len(els[0].Identifiers) > 0 {
		info.AvatarURL = els[0].Identifiers[0].Identifier
	}
	return info, nil
}

func normalizeTikTok(raw []byte) (model.UserInfo, error) {
	var p struct {
		Data struct {
			User struct {
				OpenID        string `json:"open_id"`
				UniqueID      string `json:"unique_id"`
				DisplayName   string `json:"display_name"`
				AvatarURL     string `json:"avatar_url"`
				FollowerCount int64  `json:"follower_count"`
			} `json:"user"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		return model.UserInfo{}, err
	}
	u := p.Data.User
	return model.UserInfo{
		ID:            u.OpenID,
		Username:      u.UniqueID,
		DisplayName:   u.DisplayName,
		AvatarURL:     u.AvatarURL,
		FollowerCount: u.FollowerCount,
	}, nil
}

func normalizeGeneric(raw []byte) (model.UserInfo, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var p map[string]any
	if err := dec.Decode(&p); err != nil {
		return model.UserInfo{}, err
	}
	return model.UserInfo{
		ID:          firstString(p, "id", "user_id"),
		Username:    firstString(p, "username", "screen_name"),
		DisplayName: firstString(p, "name", "display_name"),
		Email:       firstString(p, "email"),
		AvatarURL:   firstString(p, "avatar_url", "profile_image_url"),
	}, nil
}

func firstString(p map[string]any, keys ...string) string {
	for _, k := range keys {
		switch v := p[k].(type) {
		case string:
			if v != "" {
				return v
			}
		case json.Number:
			return v.String()
		}
	}
	return ""
}
