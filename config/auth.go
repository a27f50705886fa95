package config

import (
	"errors"
	"fmt"
	"strings"
)

// AuthMode represents the authentication mode for the application.
type AuthMode string

const (
	// AuthModeOAuth uses the external OIDC identity platform for registered sign-in.
	AuthModeOAuth AuthMode = "oauth"
	// AuthModeMock uses mock/dev authentication (for development only).
	AuthModeMock AuthMode = "mock"
)

// UnmarshalText implements encoding.TextUnmarshaler for AuthMode.
func (a *AuthMode) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	switch v {
	case "oauth", "mock":
		*a = AuthMode(v)
		return nil
	default:
		return fmt.Errorf("invalid AuthMode: %q (valid options: oauth, mock)", v)
	}
}

// OAuthConfig contains the identity provider registration.
// CLIENT_ID and AUTHORITY are required for real sign-in.
type OAuthConfig struct {
	ClientID string `env:"CLIENT_ID"`
	// ClientSecret is optional; without it the app signs in as a public client using PKCE.
	ClientSecret string `env:"CLIENT_SECRET"`
	// Authority is the issuer URL, e.g. https://login.microsoftonline.com/<tenant>/v2.0.
	Authority             string   `env:"AUTHORITY"`
	RedirectURL           string   `env:"REDIRECT_URL"             envDefault:"http://localhost:8080/auth/callback"`
	PostLogoutRedirectURL string   `env:"POST_LOGOUT_REDIRECT_URL" envDefault:"http://localhost:8080/login"`
	TokenScopes           []string `env:"TOKEN_SCOPES"             envDefault:"User.Read"                         envSeparator:" "`
}

// DevAuthConfig controls the mock identity used when AUTH_MODE=mock.
type DevAuthConfig struct {
	UserID   string `env:"USER_ID"  envDefault:"dev-user"`
	Name     string `env:"NAME"     envDefault:"Dev User"`
	Username string `env:"USERNAME" envDefault:"dev@example.com"`
}

// AuthConfig groups all authentication-related configuration.
type AuthConfig struct {
	// Mode determines which identity provider adapter to use.
	Mode AuthMode `env:"AUTH_MODE" envDefault:"oauth"`

	// OAuth configuration (used when Mode=oauth). Keys are unprefixed.
	OAuth OAuthConfig

	// DevAuth configuration (used when Mode=mock).
	DevAuth DevAuthConfig `envPrefix:"DEV_AUTH_"`

	// GuestEnabled allows the "continue as guest" action on the sign-in page.
	GuestEnabled bool `env:"AUTH_GUEST_ENABLED" envDefault:"true"`
}

// Sanitize trims identity provider settings and drops empty scopes.
func (a *AuthConfig) Sanitize() {
	a.OAuth.ClientID = strings.TrimSpace(a.OAuth.ClientID)
	a.OAuth.Authority = strings.TrimRight(strings.TrimSpace(a.OAuth.Authority), "/")
	a.OAuth.RedirectURL = strings.TrimSpace(a.OAuth.RedirectURL)
	a.OAuth.PostLogoutRedirectURL = strings.TrimSpace(a.OAuth.PostLogoutRedirectURL)

	scopes := a.OAuth.TokenScopes[:0]
	for _, s := range a.OAuth.TokenScopes {
		if s = strings.TrimSpace(s); s != "" {
			scopes = append(scopes, s)
		}
	}
	a.OAuth.TokenScopes = scopes
}

// Validate ensures the selected mode has what it needs.
func (a *AuthConfig) Validate() error {
	if a.Mode != AuthModeOAuth {
		return nil
	}
	var errs []error
	if a.OAuth.ClientID == "" {
		errs = append(errs, errors.New("CLIENT_ID is required when AUTH_MODE=oauth"))
	}
	if a.OAuth.Authority == "" {
		errs = append(errs, errors.New("AUTHORITY is required when AUTH_MODE=oauth"))
	}
	if a.OAuth.RedirectURL == "" {
		errs = append(errs, errors.New("REDIRECT_URL is required when AUTH_MODE=oauth"))
	}
	return errors.Join(errs...)
}
