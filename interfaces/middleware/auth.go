package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"socialhub/domain/dto"
	"socialhub/domain/model"
	"socialhub/infrastructure/logger"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt"
)

const (
	// SessionCookie carries the session JWT on browser redirects.
	SessionCookie = "session_token"

	sessionKey = "session"
	userIDKey  = "user_id"
)

// Auth rejects requests without a valid session JWT.
func Auth(secretKey string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		res := dto.Res{ResponseCode: "401", ResponseMessage: "Unauthorized"}

		raw := tokenFrom(ctx)
		if raw == "" {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, res)
			return
		}
		session, err := parseSession(raw, secretKey)
		if err != nil {
			res.ResponseMessage = rejection(err)
			logger.GetLogger().WithField("error", err).Debug("Rejected session token")
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, res)
			return
		}
		setSession(ctx, session)
		ctx.Next()
	}
}

// OptionalAuth attaches the session when a valid token is present and lets the
// request through either way.
func OptionalAuth(secretKey string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if raw := tokenFrom(ctx); raw != "" {
			if session, err := parseSession(raw, secretKey); err == nil {
				setSession(ctx, session)
			}
		}
		ctx.Next()
	}
}

// SessionFrom returns the session attached by Auth or OptionalAuth, or nil.
func SessionFrom(ctx *gin.Context) *model.Session {
	v, ok := ctx.Get(sessionKey)
	if !ok {
		return nil
	}
	s, _ := v.(*model.Session)
	return s
}

func setSession(ctx *gin.Context, s *model.Session) {
	ctx.Set(sessionKey, s)
	ctx.Set(userIDKey, s.UserID)
}

func tokenFrom(ctx *gin.Context) string {
	if h := ctx.GetHeader("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
		return ""
	}
	if c, err := ctx.Cookie(SessionCookie); err == nil {
		return c
	}
	return ""
}

func parseSession(raw, secretKey string) (*model.Session, error) {
	var claims model.UserClaims
	token, err := jwt.ParseWithClaims(raw, &claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(secretKey), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.Subject == "" {
		return nil, errors.New("token has no subject")
	}
	return claims.Session(), nil
}

func rejection(err error) string {
	var ve *jwt.ValidationError
	if errors.As(err, &ve) {
		switch {
		case ve.Errors&jwt.ValidationErrorMalformed != 0:
			return "That's not even a token"
		case ve.Errors&(jwt.ValidationErrorExpired|jwt.ValidationErrorNotValidYet) != 0:
			return "Timing is everything"
		}
	}
	return "Unauthorized"
}
