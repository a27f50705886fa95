package devauth

// Package devauth provides a config-driven IdentityProvider for local development (AUTH_MODE=mock).

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/target/tbrd-ui/internal/adapters/idpcache"
	domainauth "github.com/target/tbrd-ui/internal/domain/auth"
	"github.com/target/tbrd-ui/internal/ports"
)

var _ ports.IdentityProvider = (*Provider)(nil)

// Config controls the dev identity provider behavior.
type Config struct {
	UserID   string
	Name     string
	Username string
	Scopes   []string
	TokenTTL time.Duration // default 1h when zero
	Cache    *idpcache.Cache
	Now      func() time.Time
}

// Provider implements ports.IdentityProvider for local development.
// It short-circuits the OAuth flow by redirecting back to our own callback
// with locally generated state and nonce, and issues opaque tokens on demand.
type Provider struct {
	account  domainauth.Account
	scopes   []string
	tokenTTL time.Duration
	cache    *idpcache.Cache
	now      func() time.Time
}

// NewProvider constructs a dev identity provider from Config.
func NewProvider(cfg Config) (*Provider, error) {
	if cfg.UserID == "" {
		return nil, errors.New("dev auth: UserID is required")
	}
	if cfg.Username == "" {
		return nil, errors.New("dev auth: Username is required")
	}
	if cfg.Cache == nil {
		return nil, errors.New("dev auth: account cache is required")
	}
	ttl := cfg.TokenTTL
	if ttl == 0 {
		ttl = time.Hour
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	name := cfg.Name
	if name == "" {
		name = cfg.Username
	}
	return &Provider{
		account:  domainauth.Account{ID: cfg.UserID, Name: name, Username: cfg.Username},
		scopes:   append([]string(nil), cfg.Scopes...),
		tokenTTL: ttl,
		cache:    cfg.Cache,
		now:      now,
	}, nil
}

func (p *Provider) Accounts(ctx context.Context, profile string) ([]domainauth.Account, error) {
	return p.cache.Accounts(ctx, profile)
}

// BeginSignIn returns a local callback URL and cryptographically secure state and nonce.
func (p *Provider) BeginSignIn(_ context.Context, _ ports.BeginInput) (ports.SignInRequest, error) {
	state, err := randomString(24)
	if err != nil {
		return ports.SignInRequest{}, fmt.Errorf("generate state: %w", err)
	}
	nonce, err := randomString(24)
	if err != nil {
		return ports.SignInRequest{}, fmt.Errorf("generate nonce: %w", err)
	}
	// The standard callback handler expects GET /auth/callback?code=...&state=...
	return ports.SignInRequest{AuthURL: "/auth/callback?code=dev&state=" + state, State: state, Nonce: nonce}, nil
}

// CompleteSignIn ignores the code (state validation happens in the handler) and caches the dev account.
func (p *Provider) CompleteSignIn(ctx context.Context, profile string, _ ports.ExchangeInput) (domainauth.Account, error) {
	tok, err := p.issue()
	if err != nil {
		return domainauth.Account{}, err
	}
	if saveErr := p.cache.Save(ctx, profile, idpcache.Entry{Account: p.account, Token: tok}); saveErr != nil {
		return domainauth.Account{}, saveErr
	}
	return p.account, nil
}

func (p *Provider) BeginSignOut(ctx context.Context, profile string, in ports.SignOutInput) (string, error) {
	entry, err := p.cache.Load(ctx, profile)
	if err != nil || entry == nil {
		return "", err
	}
	if clearErr := p.cache.Clear(ctx, profile); clearErr != nil {
		return "", clearErr
	}
	return in.PostLogoutRedirectURL, nil
}

// AcquireTokenSilent re-issues a synthetic token once the cached one expires.
func (p *Provider) AcquireTokenSilent(
	ctx context.Context,
	profile string,
	account *domainauth.Account,
) (domainauth.AccessToken, error) {
	entry, err := p.cache.Lookup(ctx, profile, account)
	if err != nil {
		return domainauth.AccessToken{}, err
	}
	if cred := entry.Token.Credential(); !cred.Expired(p.now(), 0) {
		return cred, nil
	}
	tok, err := p.issue()
	if err != nil {
		return domainauth.AccessToken{}, fmt.Errorf("%w: %w", ports.ErrSilentRenewal, err)
	}
	entry.Token = tok
	if saveErr := p.cache.Save(ctx, profile, *entry); saveErr != nil {
		return domainauth.AccessToken{}, saveErr
	}
	return tok.Credential(), nil
}

func (p *Provider) issue() (idpcache.Token, error) {
	value, err := randomString(32)
	if err != nil {
		return idpcache.Token{}, fmt.Errorf("generate token: %w", err)
	}
	return idpcache.Token{
		AccessToken: "dev-" + value,
		TokenType:   "Bearer",
		Expiry:      p.now().Add(p.tokenTTL),
		Scopes:      p.scopes,
	}, nil
}

func randomString(n int) (string, error) {
	if n <= 0 {
		return "", nil
	}
	b := make([]byte, (n*3+3)/4+1)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b)[:n], nil
}
