package model

import "time"

// Account event types.
const (
	EventAccountLinked     = "account.linked"
	EventAccountUnlinked   = "account.unlinked"
	EventAccountLinkFailed = "account.link_failed"
	EventTokenRefreshed    = "account.token_refreshed"
)

// AccountEvent describes a change to a user's linked accounts
type AccountEvent struct {
	ID         string    `json:"id"                bson:"_id"`
	Type       string    `json:"type"              bson:"type"`
	UserID     string    `json:"user_id"           bson:"userId"`
	Platform   string    `json:"platform"          bson:"platform"`
	State      LinkState `json:"state"             bson:"state"`
	Message    string    `json:"message,omitempty" bson:"message,omitempty"`
	Username   string    `json:"username,omitempty" bson:"username,omitempty"`
	OccurredAt time.Time `json:"occurred_at"       bson:"occurredAt"`
}
