package oidc

// Package oidc provides the OpenID Connect identity provider adapter for the TBRD portal.

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	gooidc "github.com/coreos/go-oidc/v3/oidc"
	"github.com/target/tbrd-ui/internal/adapters/idpcache"
	domainauth "github.com/target/tbrd-ui/internal/domain/auth"
	"github.com/target/tbrd-ui/internal/ports"
	"golang.org/x/oauth2"
)

var _ ports.IdentityProvider = (*Provider)(nil)

// tokenSkew renews access tokens this long before they expire.
const tokenSkew = 60 * time.Second

// baseScopes are always requested; offline_access yields the refresh token used for silent renewal.
var baseScopes = []string{gooidc.ScopeOpenID, "profile", "email", gooidc.ScopeOfflineAccess}

// Provider implements ports.IdentityProvider using OIDC authorization code + PKCE.
type Provider struct {
	config      *oauth2.Config
	httpClient  *http.Client
	verifier    *gooidc.IDTokenVerifier
	endSession  string
	tokenScopes []string
	cache       *idpcache.Cache
	now         func() time.Time
}

// ProviderConfig holds configuration for the OIDC provider.
type ProviderConfig struct {
	ClientID     string
	ClientSecret string // optional; public clients rely on PKCE
	RedirectURL  string
	Authority    string
	TokenScopes  []string // scopes of the backend API access token
	Cache        *idpcache.Cache
	HTTPClient   *http.Client // Optional, defaults to a 30s client
	Now          func() time.Time
}

// DiscoveryDocument represents the subset of the OIDC discovery document this adapter reads.
type DiscoveryDocument struct {
	Issuer                string   `json:"issuer"`
	AuthorizationEndpoint string   `json:"authorization_endpoint"`
	TokenEndpoint         string   `json:"token_endpoint"`
	UserinfoEndpoint      string   `json:"userinfo_endpoint,omitempty"`
	JwksURI               string   `json:"jwks_uri"`
	EndSessionEndpoint    string   `json:"end_session_endpoint,omitempty"`
	SigningAlgs           []string `json:"id_token_signing_alg_values_supported,omitempty"`
}

// NewProvider runs discovery against the authority and creates the provider.
func NewProvider(ctx context.Context, cfg ProviderConfig) (*Provider, error) {
	if cfg.ClientID == "" {
		return nil, errors.New("client ID is required")
	}
	if cfg.RedirectURL == "" {
		return nil, errors.New("redirect URL is required")
	}
	if cfg.Authority == "" {
		return nil, errors.New("authority is required")
	}
	if cfg.Cache == nil {
		return nil, errors.New("account cache is required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	op, err := gooidc.NewProvider(gooidc.ClientContext(ctx, httpClient), IssuerFromAuthority(cfg.Authority))
	if err != nil {
		return nil, fmt.Errorf("oidc new provider: %w", err)
	}
	var meta DiscoveryDocument
	if claimsErr := op.Claims(&meta); claimsErr != nil {
		return nil, fmt.Errorf("decode discovery metadata: %w", claimsErr)
	}

	return &Provider{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       mergeScopes(baseScopes, cfg.TokenScopes),
			Endpoint:     op.Endpoint(),
		},
		httpClient:  httpClient,
		verifier:    op.Verifier(&gooidc.Config{ClientID: cfg.ClientID, Now: now}),
		endSession:  meta.EndSessionEndpoint,
		tokenScopes: append([]string(nil), cfg.TokenScopes...),
		cache:       cfg.Cache,
		now:         now,
	}, nil
}

// IssuerFromAuthority strips a trailing discovery path and slash from the authority URL.
func IssuerFromAuthority(authority string) string {
	issuer := strings.TrimSpace(authority)
	issuer = strings.TrimSuffix(issuer, "/")
	issuer = strings.TrimSuffix(issuer, "/.well-known/openid-configuration")
	return strings.TrimSuffix(issuer, "/")
}

func (p *Provider) clientContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
}

func (p *Provider) Accounts(ctx context.Context, profile string) ([]domainauth.Account, error) {
	return p.cache.Accounts(ctx, profile)
}

func (p *Provider) BeginSignIn(_ context.Context, in ports.BeginInput) (ports.SignInRequest, error) {
	if in.RedirectURL == "" {
		return ports.SignInRequest{}, errors.New("redirect URL is required")
	}

	state, err := generateRandomString(32)
	if err != nil {
		return ports.SignInRequest{}, fmt.Errorf("generate state: %w", err)
	}
	nonce, err := generateRandomString(32)
	if err != nil {
		return ports.SignInRequest{}, fmt.Errorf("generate nonce: %w", err)
	}
	verifier := oauth2.GenerateVerifier()

	// redirect_uri comes from the config and must match the registration exactly.
	authURL := p.config.AuthCodeURL(state,
		oauth2.SetAuthURLParam("nonce", nonce),
		oauth2.SetAuthURLParam("prompt", "select_account"),
		oauth2.S256ChallengeOption(verifier),
	)

	return ports.SignInRequest{AuthURL: authURL, State: state, Nonce: nonce, Verifier: verifier}, nil
}

func (p *Provider) CompleteSignIn(ctx context.Context, profile string, in ports.ExchangeInput) (domainauth.Account, error) {
	if in.Code == "" {
		return domainauth.Account{}, errors.New("authorization code is required")
	}
	if in.State == "" {
		return domainauth.Account{}, errors.New("state is required")
	}
	if in.Nonce == "" {
		return domainauth.Account{}, errors.New("nonce is required")
	}

	var opts []oauth2.AuthCodeOption
	if in.Verifier != "" {
		opts = append(opts, oauth2.VerifierOption(in.Verifier))
	}
	tok, err := p.config.Exchange(p.clientContext(ctx), in.Code, opts...)
	if err != nil {
		return domainauth.Account{}, fmt.Errorf("exchange code for token: %w", err)
	}

	rawID, err := getIDTokenFromToken(tok)
	if err != nil {
		return domainauth.Account{}, err
	}
	claims, err := p.verifyIDToken(ctx, rawID, in.Nonce)
	if err != nil {
		return domainauth.Account{}, err
	}

	account := mapClaims(claims)
	if account.ID == "" {
		return domainauth.Account{}, errors.New("id_token has no subject")
	}

	entry := idpcache.Entry{Account: account, Token: p.cacheToken(tok, idpcache.Token{IDToken: rawID})}
	if saveErr := p.cache.Save(ctx, profile, entry); saveErr != nil {
		return domainauth.Account{}, saveErr
	}
	return account, nil
}

func (p *Provider) BeginSignOut(ctx context.Context, profile string, in ports.SignOutInput) (string, error) {
	entry, err := p.cache.Load(ctx, profile)
	if err != nil {
		return "", err
	}
	if entry == nil {
		return "", nil
	}
	if clearErr := p.cache.Clear(ctx, profile); clearErr != nil {
		return "", clearErr
	}
	if p.endSession == "" {
		return in.PostLogoutRedirectURL, nil
	}

	u, err := url.Parse(p.endSession)
	if err != nil {
		return "", fmt.Errorf("parse end_session_endpoint: %w", err)
	}
	q := u.Query()
	q.Set("client_id", p.config.ClientID)
	if in.PostLogoutRedirectURL != "" {
		q.Set("post_logout_redirect_uri", in.PostLogoutRedirectURL)
	}
	if entry.Token.IDToken != "" {
		q.Set("id_token_hint", entry.Token.IDToken)
	}
	if entry.Account.Username != "" {
		q.Set("logout_hint", entry.Account.Username)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (p *Provider) AcquireTokenSilent(
	ctx context.Context,
	profile string,
	account *domainauth.Account,
) (domainauth.AccessToken, error) {
	entry, err := p.cache.Lookup(ctx, profile, account)
	if err != nil {
		return domainauth.AccessToken{}, err
	}

	current := entry.Token.Credential()
	if current.Value != "" && !current.Expired(p.now(), tokenSkew) {
		return current, nil
	}
	if entry.Token.RefreshToken == "" {
		return domainauth.AccessToken{}, fmt.Errorf("%w: no refresh token cached", ports.ErrSilentRenewal)
	}

	// An empty access token forces the token source to refresh.
	src := p.config.TokenSource(p.clientContext(ctx), &oauth2.Token{RefreshToken: entry.Token.RefreshToken})
	tok, err := src.Token()
	if err != nil {
		return domainauth.AccessToken{}, fmt.Errorf("%w: %w", ports.ErrSilentRenewal, err)
	}

	entry.Token = p.cacheToken(tok, entry.Token)
	if saveErr := p.cache.Save(ctx, profile, *entry); saveErr != nil {
		return domainauth.AccessToken{}, saveErr
	}
	return entry.Token.Credential(), nil
}

// cacheToken maps an oauth2 token into the cache layout, keeping prev values
// the provider omitted (refresh tokens are not always rotated).
func (p *Provider) cacheToken(tok *oauth2.Token, prev idpcache.Token) idpcache.Token {
	out := idpcache.Token{
		AccessToken:  tok.AccessToken,
		TokenType:    tok.TokenType,
		RefreshToken: firstNonEmpty(tok.RefreshToken, prev.RefreshToken),
		IDToken:      prev.IDToken,
		Expiry:       tok.Expiry,
		Scopes:       p.tokenScopes,
	}
	if raw, ok := tok.Extra("id_token").(string); ok && raw != "" {
		out.IDToken = raw
	}
	return out
}

// idTokenClaims is the superset of claims Entra ID and generic OIDC issuers put in ID tokens.
type idTokenClaims struct {
	Sub               string `json:"sub"`
	OID               string `json:"oid"`
	Name              string `json:"name"`
	PreferredUsername string `json:"preferred_username"`
	Email             string `json:"email"`
	Nonce             string `json:"nonce"`
}

func (p *Provider) verifyIDToken(ctx context.Context, rawID, expectedNonce string) (idTokenClaims, error) {
	var claims idTokenClaims
	idTok, err := p.verifier.Verify(p.clientContext(ctx), rawID)
	if err != nil {
		return claims, fmt.Errorf("verify id_token: %w", err)
	}
	if claimsErr := idTok.Claims(&claims); claimsErr != nil {
		return claims, fmt.Errorf("parse id_token claims: %w", claimsErr)
	}
	if claims.Nonce != expectedNonce {
		return claims, errors.New("invalid nonce")
	}
	return claims, nil
}

// mapClaims maps ID token claims into an Account using precedence rules.
func mapClaims(c idTokenClaims) domainauth.Account {
	username := firstNonEmpty(c.PreferredUsername, c.Email)
	return domainauth.Account{
		ID:       firstNonEmpty(c.OID, c.Sub),
		Name:     firstNonEmpty(c.Name, username),
		Username: username,
	}
}

func mergeScopes(groups ...[]string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, g := range groups {
		for _, s := range g {
			if _, dup := seen[s]; dup || s == "" {
				continue
			}
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}
	return out
}

// firstNonEmpty returns the first non-empty string from vals, or empty string if none.
func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// generateRandomString generates a cryptographically secure URL-safe random string of exact length.
func generateRandomString(length int) (string, error) {
	if length <= 0 {
		return "", nil
	}
	b := make([]byte, (length*3+3)/4+1)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b)[:length], nil
}

// getIDTokenFromToken extracts the id_token from oauth2.Token.
func getIDTokenFromToken(tok *oauth2.Token) (string, error) {
	if tok == nil {
		return "", errors.New("nil token")
	}
	s, ok := tok.Extra("id_token").(string)
	if !ok || s == "" {
		return "", errors.New("missing id_token in token response")
	}
	return s, nil
}
