package model

import (
	"time"
)

type Profile struct {
	ID        string    `json:"id"         gorm:"primaryKey;size:64"`
	Email     string    `json:"email"      gorm:"size:255"`
	Name      string    `json:"name"       gorm:"size:255"`
	AvatarURL string    `json:"avatar_url" gorm:"size:1024"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime;index"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime;index"`
}

func (Profile) TableName() string {
	return "profiles"
}

// AuthenticatedUser is the account view of the signed-in user.
type AuthenticatedUser struct {
	ID                 string           `json:"id"`
	Email              string           `json:"email"`
	Name               string           `json:"name"`
	Avatar             string           `json:"avatar,omitempty"`
	Accounts           []LinkedAccount  `json:"social_accounts"`
	Configs            []PlatformConfig `json:"platform_configs"`
	ConnectedPlatforms map[string]bool  `json:"connected_platforms"`
}

// NewAuthenticatedUser builds the aggregate; profile may be nil.
func NewAuthenticatedUser(session *Session, profile *Profile, accounts []LinkedAccount, configs []PlatformConfig) *AuthenticatedUser {
	u := &AuthenticatedUser{
		ID:                 session.UserID,
		Email:              session.Email,
		Name:               session.Name,
		Avatar:             session.Avatar,
		Accounts:           accounts,
		Configs:            configs,
		ConnectedPlatforms: make(map[string]bool, len(accounts)),
	}
	if profile != nil {
		if profile.Name != "" {
			u.Name = profile.Name
		}
		if profile.AvatarURL != "" {
			u.Avatar = profile.AvatarURL
		}
		if u.Email == "" {
			u.Email = profile.Email
		}
	}
	if u.Accounts == nil {
		u.Accounts = []LinkedAccount{}
	}
	if u.Configs == nil {
		u.Configs = []PlatformConfig{}
	}
	for _, a := range accounts {
		u.ConnectedPlatforms[a.Platform] = true
	}
	return u
}
