package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	domainauth "github.com/target/tbrd-ui/internal/domain/auth"
	"github.com/target/tbrd-ui/internal/observability/metrics"
	"github.com/target/tbrd-ui/internal/observability/statsd"
	"github.com/target/tbrd-ui/internal/ports"
)

// ErrGuestDisabled is returned by LoginAsGuest when guest access is turned off.
var ErrGuestDisabled = errors.New("guest access is disabled")

// AuthServiceOptions groups dependencies for AuthService.
type AuthServiceOptions struct {
	Provider     ports.IdentityProvider
	Guests       *GuestSessionStore
	GuestEnabled bool
	Logger       *slog.Logger
	Metrics      statsd.Sink
}

// AuthService is the application-wide auth root. It is built once at startup and
// opens one AuthContext per request.
type AuthService struct {
	provider     ports.IdentityProvider
	guests       *GuestSessionStore
	guestEnabled bool
	logger       *slog.Logger
	metrics      statsd.Sink
}

// NewAuthService constructs a new AuthService.
func NewAuthService(opts AuthServiceOptions) *AuthService {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{
		provider:     opts.Provider,
		guests:       opts.Guests,
		guestEnabled: opts.GuestEnabled,
		logger:       logger.With("component", "auth"),
		metrics:      opts.Metrics,
	}
}

// Provider exposes the identity provider for collaborators that call the backend.
func (s *AuthService) Provider() ports.IdentityProvider { return s.provider }

// GuestEnabled reports whether guest sign-in is offered.
func (s *AuthService) GuestEnabled() bool { return s.guestEnabled }

// Open loads the profile's identity state: the persisted guest record (read exactly
// once here) and the provider's cached accounts.
func (s *AuthService) Open(ctx context.Context, profile string) (*AuthContext, error) {
	guest, err := s.guests.Load(ctx, profile)
	if err != nil {
		return nil, err
	}
	accounts, err := s.provider.Accounts(ctx, profile)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	return &AuthContext{svc: s, profile: profile, accounts: accounts, guest: guest}, nil
}

// BeginLoginResult contains what the HTTP layer needs to start the redirect flow.
type BeginLoginResult struct {
	AuthURL  string
	State    string
	Nonce    string
	Verifier string
}

// BeginLogin initiates an interactive sign-in.
func (s *AuthService) BeginLogin(ctx context.Context, redirectURL string) (*BeginLoginResult, error) {
	if redirectURL == "" {
		return nil, errors.New("redirect URL is required")
	}
	req, err := s.provider.BeginSignIn(ctx, ports.BeginInput{RedirectURL: redirectURL})
	s.emit(metrics.AuthEventSignInBegin, "", err)
	if err != nil {
		return nil, fmt.Errorf("begin auth flow: %w", err)
	}
	return &BeginLoginResult{AuthURL: req.AuthURL, State: req.State, Nonce: req.Nonce, Verifier: req.Verifier}, nil
}

// CompleteLoginInput groups parameters for completing a login flow.
type CompleteLoginInput struct {
	Profile  string
	Code     string
	State    string
	Nonce    string
	Verifier string
}

// CompleteLogin finishes the redirect-back leg; the provider caches the account for the profile.
func (s *AuthService) CompleteLogin(ctx context.Context, in CompleteLoginInput) (domainauth.Account, error) {
	if in.Profile == "" {
		return domainauth.Account{}, errors.New("profile is required")
	}
	if in.Code == "" {
		return domainauth.Account{}, errors.New("authorization code is required")
	}
	if in.State == "" {
		return domainauth.Account{}, errors.New("state parameter is required")
	}
	if in.Nonce == "" {
		return domainauth.Account{}, errors.New("nonce parameter is required")
	}

	account, err := s.provider.CompleteSignIn(ctx, in.Profile, ports.ExchangeInput{
		Code:     in.Code,
		State:    in.State,
		Nonce:    in.Nonce,
		Verifier: in.Verifier,
	})
	s.emit(metrics.AuthEventSignInFinish, string(domainauth.KindRegistered), err)
	if err != nil {
		return domainauth.Account{}, fmt.Errorf("complete sign-in: %w", err)
	}
	s.logger.InfoContext(ctx, "user signed in", "account_id", account.ID)
	return account, nil
}

func (s *AuthService) emit(event, kind string, err error) {
	result := metrics.ResultSuccess
	if err != nil {
		result = metrics.ResultError
	}
	metrics.EmitAuthEvent(s.metrics, metrics.AuthMetric{Event: event, Kind: kind, Result: result, Err: err})
}

// AuthContext is one request's view of who is using the app.
// Mutations update the in-memory view so later reads in the same request see them.
type AuthContext struct {
	svc     *AuthService
	profile string

	mu       sync.Mutex
	accounts []domainauth.Account
	guest    *domainauth.GuestRecord
}

// Profile returns the browser profile this context belongs to.
func (c *AuthContext) Profile() string { return c.profile }

// State returns an immutable snapshot of the current identity.
func (c *AuthContext) State() domainauth.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return domainauth.Resolve(c.accounts, c.guest)
}

// Account returns the active registered account or nil.
func (c *AuthContext) Account() *domainauth.Account {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.accounts) == 0 {
		return nil
	}
	a := c.accounts[0]
	return &a
}

// LoginAsGuest persists the guest record and makes it current. It never touches the network
// and calling it again only rewrites the same record.
func (c *AuthContext) LoginAsGuest(ctx context.Context) error {
	if !c.svc.guestEnabled {
		c.svc.emit(metrics.AuthEventGuestLogin, string(domainauth.KindGuest), ErrGuestDisabled)
		return ErrGuestDisabled
	}
	rec := domainauth.NewGuestRecord()
	if err := c.svc.guests.Save(ctx, c.profile, rec); err != nil {
		c.svc.emit(metrics.AuthEventGuestLogin, string(domainauth.KindGuest), err)
		return err
	}

	c.mu.Lock()
	c.guest = &rec
	c.mu.Unlock()

	c.svc.emit(metrics.AuthEventGuestLogin, string(domainauth.KindGuest), nil)
	c.svc.logger.InfoContext(ctx, "guest session started")
	return nil
}

// LogoutResult tells the HTTP layer where to send the browser.
// An empty RedirectURL means no provider sign-out was needed.
type LogoutResult struct {
	RedirectURL string
}

// Logout drops the guest session unconditionally and, when a registered account is
// present, starts provider sign-out exactly once. A failure to clear the guest record
// does not prevent the provider sign-out; both errors are reported together.
func (c *AuthContext) Logout(ctx context.Context, postLogoutURL string) (LogoutResult, error) {
	c.mu.Lock()
	c.guest = nil
	hadAccount := len(c.accounts) > 0
	c.accounts = nil
	c.mu.Unlock()

	clearErr := c.svc.guests.Clear(ctx, c.profile)
	if clearErr != nil {
		c.svc.logger.WarnContext(ctx, "failed to clear guest session", "error", clearErr)
	}

	var (
		result     LogoutResult
		signOutErr error
		kind       = string(domainauth.KindGuest)
	)
	if hadAccount {
		kind = string(domainauth.KindRegistered)
		result.RedirectURL, signOutErr = c.svc.provider.BeginSignOut(ctx, c.profile, ports.SignOutInput{
			PostLogoutRedirectURL: postLogoutURL,
		})
		if signOutErr != nil {
			signOutErr = fmt.Errorf("begin sign-out: %w", signOutErr)
		}
	}

	err := errors.Join(clearErr, signOutErr)
	c.svc.emit(metrics.AuthEventLogout, kind, err)
	return result, err
}
