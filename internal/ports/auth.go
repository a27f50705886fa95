package ports

// Package ports defines interfaces (hexagonal ports) for identity and storage behavior.
// Implementations live in internal/adapters; orchestration in internal/service.

import (
	"context"
	"errors"

	domainauth "github.com/target/tbrd-ui/internal/domain/auth"
)

var (
	// ErrNoAccount is returned when an operation needs a registered account and none is signed in.
	ErrNoAccount = errors.New("no active account")

	// ErrSilentRenewal is returned when a cached credential can no longer be renewed
	// without user interaction (consent revoked, session expired).
	ErrSilentRenewal = errors.New("silent token renewal failed")
)

// Storage is a profile-scoped key/value store. A profile is one browser,
// identified by its profile cookie; keys are namespaced by their owner.
type Storage interface {
	// Get returns the stored value and true, or "" and false when absent.
	Get(ctx context.Context, profile, key string) (string, bool, error)
	// Set overwrites the value for key.
	Set(ctx context.Context, profile, key, value string) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, profile, key string) error
}

// BeginInput carries inputs for initiating an interactive sign-in.
type BeginInput struct {
	RedirectURL string
}

// SignInRequest is where to send the browser plus the values that must
// survive the round-trip to validate the callback.
type SignInRequest struct {
	AuthURL  string
	State    string
	Nonce    string
	Verifier string // PKCE code verifier; empty when the provider does not use PKCE
}

// ExchangeInput groups parameters for the code/token exchange.
type ExchangeInput struct {
	Code     string
	State    string
	Nonce    string
	Verifier string
}

// SignOutInput groups parameters for interactive sign-out.
type SignOutInput struct {
	PostLogoutRedirectURL string
}

// IdentityProvider bridges to an external identity platform for one profile at a time.
// Interactive legs return URLs for the HTTP layer to redirect to; nothing here blocks on the user.
type IdentityProvider interface {
	// Accounts returns zero or one signed-in accounts for the profile.
	Accounts(ctx context.Context, profile string) ([]domainauth.Account, error)

	// BeginSignIn starts the redirect-based sign-in.
	BeginSignIn(ctx context.Context, in BeginInput) (SignInRequest, error)

	// CompleteSignIn finishes the redirect-back leg and caches the account for the profile.
	CompleteSignIn(ctx context.Context, profile string, in ExchangeInput) (domainauth.Account, error)

	// BeginSignOut forgets the profile's account and returns the provider sign-out URL.
	// With no account present it does nothing and returns "".
	BeginSignOut(ctx context.Context, profile string, in SignOutInput) (string, error)

	// AcquireTokenSilent returns an access token for account without user interaction.
	// It fails with ErrNoAccount or ErrSilentRenewal and never prompts.
	AcquireTokenSilent(ctx context.Context, profile string, account *domainauth.Account) (domainauth.AccessToken, error)
}
