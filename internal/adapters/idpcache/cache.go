// Package idpcache keeps the identity provider's per-profile account and token cache
// in a ports.Storage. Both the OIDC and the dev provider share the layout.
package idpcache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	domainauth "github.com/target/tbrd-ui/internal/domain/auth"
	"github.com/target/tbrd-ui/internal/ports"
)

// Key is the storage key of the cached account entry.
const Key = "idp.account"

// Token mirrors the oauth2 token fields the providers need to renew silently.
type Token struct {
	AccessToken  string    `json:"access_token"`
	TokenType    string    `json:"token_type,omitempty"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	IDToken      string    `json:"id_token,omitempty"`
	Expiry       time.Time `json:"expiry,omitempty"`
	Scopes       []string  `json:"scopes,omitempty"`
}

// Credential converts the cached token into the domain credential.
func (t Token) Credential() domainauth.AccessToken {
	return domainauth.AccessToken{Value: t.AccessToken, ExpiresAt: t.Expiry, Scopes: t.Scopes}
}

// Entry is one profile's signed-in account.
type Entry struct {
	Account domainauth.Account `json:"account"`
	Token   Token              `json:"token"`
}

// Cache reads and writes Entry values.
type Cache struct {
	store  ports.Storage
	logger *slog.Logger
}

// New builds a Cache over store. A nil logger falls back to slog.Default.
func New(store ports.Storage, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{store: store, logger: logger.With("component", "idpcache")}
}

// Load returns the profile's entry or nil when none is cached.
// An unreadable entry is treated as absent so a corrupt cache signs the user out
// instead of wedging every request.
func (c *Cache) Load(ctx context.Context, profile string) (*Entry, error) {
	raw, ok, err := c.store.Get(ctx, profile, Key)
	if err != nil {
		return nil, fmt.Errorf("load account cache: %w", err)
	}
	if !ok {
		return nil, nil
	}
	var e Entry
	if jsonErr := json.Unmarshal([]byte(raw), &e); jsonErr != nil || e.Account.ID == "" {
		c.logger.WarnContext(ctx, "discarding unreadable account cache entry", "error", jsonErr)
		return nil, nil
	}
	return &e, nil
}

// Save overwrites the profile's entry.
func (c *Cache) Save(ctx context.Context, profile string, e Entry) error {
	raw, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode account cache: %w", err)
	}
	if setErr := c.store.Set(ctx, profile, Key, string(raw)); setErr != nil {
		return fmt.Errorf("save account cache: %w", setErr)
	}
	return nil
}

// Clear drops the profile's entry.
func (c *Cache) Clear(ctx context.Context, profile string) error {
	if err := c.store.Delete(ctx, profile, Key); err != nil {
		return fmt.Errorf("clear account cache: %w", err)
	}
	return nil
}

// Accounts lists zero or one cached accounts.
func (c *Cache) Accounts(ctx context.Context, profile string) ([]domainauth.Account, error) {
	e, err := c.Load(ctx, profile)
	if err != nil || e == nil {
		return nil, err
	}
	return []domainauth.Account{e.Account}, nil
}

// Lookup returns the cached entry when it belongs to account, or ports.ErrNoAccount.
func (c *Cache) Lookup(ctx context.Context, profile string, account *domainauth.Account) (*Entry, error) {
	if account == nil {
		return nil, ports.ErrNoAccount
	}
	e, err := c.Load(ctx, profile)
	if err != nil {
		return nil, err
	}
	if e == nil || e.Account.ID != account.ID {
		return nil, ports.ErrNoAccount
	}
	return e, nil
}
