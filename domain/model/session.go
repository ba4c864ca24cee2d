package model

import "github.com/golang-jwt/jwt"

// Session is the signed-in identity passed explicitly to every operation.
type Session struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	Avatar string `json:"avatar,omitempty"`
}

func (s *Session) Authenticated() bool {
	return s != nil && s.UserID != ""
}

// UserClaims are the JWT claims issued by the identity provider.
type UserClaims struct {
	jwt.StandardClaims
	Email  string `json:"email"`
	Name   string `json:"name"`
	Avatar string `json:"avatar,omitempty"`
}

func (c UserClaims) Session() *Session {
	return &Session{
		UserID: c.Subject,
		Email:  c.Email,
		Name:   c.Name,
		Avatar: c.Avatar,
	}
}
