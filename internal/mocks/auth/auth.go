package auth

// Package auth contains simple hand-written test doubles for auth ports.
// These are lightweight and suitable for unit tests without codegen.

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	domainauth "github.com/target/tbrd-ui/internal/domain/auth"
	"github.com/target/tbrd-ui/internal/ports"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.IdentityProvider = (*MockIdentityProvider)(nil)
	_ ports.Storage          = (*FailingStorage)(nil)
)

// MockIdentityProvider simulates an IdP for tests with a per-profile account map,
// deterministic state/nonce values and call counters.
type MockIdentityProvider struct {
	BeginSignInFunc  func(ctx context.Context, in ports.BeginInput) (ports.SignInRequest, error)
	CompleteFunc     func(ctx context.Context, profile string, in ports.ExchangeInput) (domainauth.Account, error)
	BeginSignOutFunc func(ctx context.Context, profile string, in ports.SignOutInput) (string, error)
	AcquireFunc      func(ctx context.Context, profile string, account *domainauth.Account) (domainauth.AccessToken, error)

	// Deterministic values for predictable testing
	AuthURL     string
	SignOutURL  string
	DefaultUser domainauth.Account
	Token       string

	mu            sync.Mutex
	accounts      map[string]domainauth.Account
	beginCount    int
	signOutCount  int
	acquireCount  int
	completeCount int
}

// NewMockIdentityProvider creates a MockIdentityProvider with sensible defaults.
func NewMockIdentityProvider() *MockIdentityProvider {
	return &MockIdentityProvider{
		AuthURL:     "https://mock-idp/authorize",
		SignOutURL:  "https://mock-idp/logout",
		DefaultUser: domainauth.Account{ID: "mock-user-1", Name: "Mock User", Username: "mock.user@example.com"},
		Token:       "mock-token",
	}
}

// SignIn caches the default account for profile as if a redirect flow had completed.
func (m *MockIdentityProvider) SignIn(profile string) domainauth.Account {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.accounts == nil {
		m.accounts = make(map[string]domainauth.Account)
	}
	m.accounts[profile] = m.DefaultUser
	return m.DefaultUser
}

func (m *MockIdentityProvider) Accounts(_ context.Context, profile string) ([]domainauth.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a, ok := m.accounts[profile]; ok {
		return []domainauth.Account{a}, nil
	}
	return nil, nil
}

func (m *MockIdentityProvider) BeginSignIn(ctx context.Context, in ports.BeginInput) (ports.SignInRequest, error) {
	if m.BeginSignInFunc != nil {
		return m.BeginSignInFunc(ctx, in)
	}
	m.mu.Lock()
	m.beginCount++
	n := m.beginCount
	m.mu.Unlock()
	return ports.SignInRequest{
		AuthURL:  m.AuthURL,
		State:    fmt.Sprintf("state-%d", n),
		Nonce:    fmt.Sprintf("nonce-%d", n),
		Verifier: fmt.Sprintf("verifier-%d", n),
	}, nil
}

func (m *MockIdentityProvider) CompleteSignIn(
	ctx context.Context,
	profile string,
	in ports.ExchangeInput,
) (domainauth.Account, error) {
	m.mu.Lock()
	m.completeCount++
	m.mu.Unlock()
	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, profile, in)
	}
	return m.SignIn(profile), nil
}

func (m *MockIdentityProvider) BeginSignOut(ctx context.Context, profile string, in ports.SignOutInput) (string, error) {
	m.mu.Lock()
	m.signOutCount++
	_, had := m.accounts[profile]
	delete(m.accounts, profile)
	m.mu.Unlock()
	if m.BeginSignOutFunc != nil {
		return m.BeginSignOutFunc(ctx, profile, in)
	}
	if !had {
		return "", nil
	}
	return m.SignOutURL, nil
}

func (m *MockIdentityProvider) AcquireTokenSilent(
	ctx context.Context,
	profile string,
	account *domainauth.Account,
) (domainauth.AccessToken, error) {
	m.mu.Lock()
	m.acquireCount++
	cached, ok := m.accounts[profile]
	m.mu.Unlock()
	if m.AcquireFunc != nil {
		return m.AcquireFunc(ctx, profile, account)
	}
	if account == nil || !ok || cached.ID != account.ID {
		return domainauth.AccessToken{}, ports.ErrNoAccount
	}
	return domainauth.AccessToken{Value: m.Token, ExpiresAt: time.Now().Add(time.Hour)}, nil
}

// SignOutCalls reports how many times BeginSignOut ran.
func (m *MockIdentityProvider) SignOutCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.signOutCount
}

// AcquireCalls reports how many times AcquireTokenSilent ran.
func (m *MockIdentityProvider) AcquireCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.acquireCount
}

// CompleteCalls reports how many times CompleteSignIn ran.
func (m *MockIdentityProvider) CompleteCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.completeCount
}

// ErrStorageDown is returned by FailingStorage for every failing operation.
var ErrStorageDown = errors.New("storage unavailable")

// FailingStorage wraps a Storage and fails the selected operations.
type FailingStorage struct {
	ports.Storage
	FailGet    bool
	FailSet    bool
	FailDelete bool

	mu   sync.Mutex
	gets int
	sets int
	dels int
}

func (f *FailingStorage) Get(ctx context.Context, profile, key string) (string, bool, error) {
	f.mu.Lock()
	f.gets++
	f.mu.Unlock()
	if f.FailGet {
		return "", false, ErrStorageDown
	}
	return f.Storage.Get(ctx, profile, key)
}

func (f *FailingStorage) Set(ctx context.Context, profile, key, value string) error {
	f.mu.Lock()
	f.sets++
	f.mu.Unlock()
	if f.FailSet {
		return ErrStorageDown
	}
	return f.Storage.Set(ctx, profile, key, value)
}

func (f *FailingStorage) Delete(ctx context.Context, profile, key string) error {
	f.mu.Lock()
	f.dels++
	f.mu.Unlock()
	if f.FailDelete {
		return ErrStorageDown
	}
	return f.Storage.Delete(ctx, profile, key)
}

// Calls returns the number of Get, Set and Delete calls observed.
func (f *FailingStorage) Calls() (gets, sets, deletes int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.gets, f.sets, f.dels
}
