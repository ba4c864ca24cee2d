package model

// PKCE challenge methods a descriptor may declare.
const (
	PKCEMethodPlain = "plain"
	PKCEMethodS256  = "S256"
)

// ClientCredentials are the app credentials registered with a provider.
type ClientCredentials struct {
	ClientID     string
	ClientSecret string
}

// PlatformDescriptor is the static OAuth metadata of one provider.
type PlatformDescriptor struct {
	Key                 string            `json:"key" validate:"required,excludesall=0x7C"`
	ClientID            string            `json:"-"`
	ClientSecret        string            `json:"-"`
	RedirectURI         string            `json:"redirect_uri" validate:"required,url"`
	Scopes              []string          `json:"scopes"`
	AuthorizeURL        string            `json:"authorize_url" validate:"required,url"`
	TokenURL            string            `json:"token_url" validate:"required,url"`
	UserInfoURL         string            `json:"user_info_url,omitempty" validate:"omitempty,url"`
	UserInfoFieldsParam string            `json:"-"`
	UserInfoFields      []string          `json:"-"`
	RevokeURL           string            `json:"revoke_url,omitempty" validate:"omitempty,url"`
	ResponseType        string            `json:"response_type" validate:"eq=code"`
	ExtraAuthParams     map[string]string `json:"-"`
	PKCEMethod          string            `json:"pkce_method,omitempty" validate:"omitempty,oneof=plain S256"`
}

// Configured reports whether real OAuth can be attempted.
func (d PlatformDescriptor) Configured() bool {
	return d.ClientID != ""
}

// PKCE is a verifier/challenge pair for one authorization request.
type PKCE struct {
	Verifier  string
	Challenge string
	Method    string
}
