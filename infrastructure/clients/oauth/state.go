package oauth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	stateDelimiter = "|"
	nonceBytes     = 16
)

// StateCodec issues and checks the opaque state parameter of an authorization request.
// A token reads platform|userID|issuedAtMillis|nonce.
type StateCodec struct {
	now func() time.Time
}

func NewStateCodec() *StateCodec {
	return &StateCodec{now: time.Now}
}

func (c *StateCodec) Issue(platform, userID string) (string, error) {
	if platform == "" || userID == "" {
		return "", fmt.Errorf("state: platform and user id are required")
	}
	if strings.Contains(platform, stateDelimiter) || strings.Contains(userID, stateDelimiter) {
		return "", fmt.Errorf("state: platform and user id must not contain %q", stateDelimiter)
	}
	nonce := make([]byte, nonceBytes)
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("state: read nonce: %w", err)
	}
	return strings.Join([]string{
		platform,
		userID,
		strconv.FormatInt(c.now().UnixMilli(), 10),
		hex.EncodeToString(nonce),
	}, stateDelimiter), nil
}

// Validate checks that token was issued for platform and userID. It does not check age;
// expiry and single use belong to the pending authorization slot.
func (c *StateCodec) Validate(token, platform, userID string) bool {
	parts := strings.Split(token, stateDelimiter)
	if len(parts) < 4 {
		return false
	}
	return parts[0] == platform && parts[1] == userID
}

// IssuedAt extracts the issue time embedded in token.
func IssuedAt(token string) (time.Time, bool) {
	parts := strings.Split(token, stateDelimiter)
	if len(parts) < 4 {
		return time.Time{}, false
	}
	ms, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	return time.UnixMilli(ms), true
}
