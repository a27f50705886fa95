package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/tbrd-ui/internal/adapters/memory"
	domainauth "github.com/target/tbrd-ui/internal/domain/auth"
	"github.com/target/tbrd-ui/internal/mocks"
	mockauth "github.com/target/tbrd-ui/internal/mocks/auth"
	"github.com/target/tbrd-ui/internal/observability/statsd"
	"github.com/target/tbrd-ui/internal/ports"
	"go.uber.org/mock/gomock"
)

const profile = "profile-1"

type authFixture struct {
	svc      *AuthService
	provider *mockauth.MockIdentityProvider
	storage  *mockauth.FailingStorage
	metrics  *statsd.Recorder
}

func newAuthFixture(t *testing.T, guestEnabled bool) *authFixture {
	t.Helper()
	f := &authFixture{
		provider: mockauth.NewMockIdentityProvider(),
		storage:  &mockauth.FailingStorage{Storage: memory.NewStorage()},
		metrics:  &statsd.Recorder{},
	}
	f.svc = NewAuthService(AuthServiceOptions{
		Provider:     f.provider,
		Guests:       NewGuestSessionStore(f.storage, nil),
		GuestEnabled: guestEnabled,
		Metrics:      f.metrics,
	})
	return f
}

func (f *authFixture) open(t *testing.T) *AuthContext {
	t.Helper()
	ac, err := f.svc.Open(context.Background(), profile)
	require.NoError(t, err)
	return ac
}

func TestAuthContext_AuthenticatedIffAccountOrGuest(t *testing.T) {
	tests := []struct {
		name       string
		signedIn   bool
		guest      bool
		wantAuth   bool
		wantKind   domainauth.Kind
		wantAnonym bool
	}{
		{name: "nobody"},
		{name: "guest", guest: true, wantAuth: true, wantKind: domainauth.KindGuest, wantAnonym: true},
		{name: "registered", signedIn: true, wantAuth: true, wantKind: domainauth.KindRegistered},
		{name: "both", signedIn: true, guest: true, wantAuth: true, wantKind: domainauth.KindRegistered},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAuthFixture(t, true)
			if tt.signedIn {
				f.provider.SignIn(profile)
			}
			if tt.guest {
				require.NoError(t, f.open(t).LoginAsGuest(context.Background()))
			}

			state := f.open(t).State()
			assert.Equal(t, tt.wantAuth, state.IsAuthenticated)
			if !tt.wantAuth {
				assert.Nil(t, state.User)
				return
			}
			require.NotNil(t, state.User)
			assert.Equal(t, tt.wantKind, state.User.Kind)
			assert.Equal(t, tt.wantAnonym, state.User.IsAnonymous)
		})
	}
}

func TestAuthService_Open_LoadsGuestOnce(t *testing.T) {
	f := newAuthFixture(t, true)
	ac := f.open(t)

	for range 3 {
		_ = ac.State()
	}
	_ = ac.Account()

	gets, _, _ := f.storage.Calls()
	assert.Equal(t, 1, gets)
}

func TestAuthService_Open_StorageFailure(t *testing.T) {
	f := newAuthFixture(t, true)
	f.storage.FailGet = true

	_, err := f.svc.Open(context.Background(), profile)
	assert.ErrorIs(t, err, mockauth.ErrStorageDown)
}

func TestAuthContext_LoginAsGuest(t *testing.T) {
	f := newAuthFixture(t, true)
	ctx := context.Background()
	ac := f.open(t)

	require.NoError(t, ac.LoginAsGuest(ctx))

	state := ac.State()
	require.True(t, state.IsAuthenticated)
	assert.Equal(t, "Anonymous User", state.User.Username)
	assert.Equal(t, "Guest", state.User.Name)
	assert.True(t, state.User.IsAnonymous)

	// Idempotent and local only.
	require.NoError(t, ac.LoginAsGuest(ctx))
	assert.Equal(t, state, ac.State())
	assert.Equal(t, 0, f.provider.AcquireCalls())
	assert.Equal(t, 0, f.provider.CompleteCalls())

	// Survives into a fresh context (a new request or restart).
	assert.True(t, f.open(t).State().IsAuthenticated)

	samples := f.metrics.Named("auth.event")
	require.NotEmpty(t, samples)
	assert.Equal(t, "guest_login", samples[0].Tags["event"])
	assert.Equal(t, "success", samples[0].Tags["result"])
}

func TestAuthContext_LoginAsGuest_Disabled(t *testing.T) {
	f := newAuthFixture(t, false)
	ac := f.open(t)

	err := ac.LoginAsGuest(context.Background())
	assert.ErrorIs(t, err, ErrGuestDisabled)
	assert.False(t, ac.State().IsAuthenticated)

	_, sets, _ := f.storage.Calls()
	assert.Equal(t, 0, sets)
}

func TestAuthContext_LoginAsGuest_SaveFailureKeepsState(t *testing.T) {
	f := newAuthFixture(t, true)
	ac := f.open(t)
	f.storage.FailSet = true

	err := ac.LoginAsGuest(context.Background())
	assert.ErrorIs(t, err, mockauth.ErrStorageDown)
	assert.False(t, ac.State().IsAuthenticated)
}

func TestAuthContext_Logout_GuestOnly(t *testing.T) {
	ctrl := gomock.NewController(t)
	provider := mocks.NewMockIdentityProvider(ctrl)
	provider.EXPECT().Accounts(gomock.Any(), profile).Return(nil, nil).AnyTimes()
	// No BeginSignOut expectation: any call fails the test.

	backing := memory.NewStorage()
	svc := NewAuthService(AuthServiceOptions{
		Provider:     provider,
		Guests:       NewGuestSessionStore(backing, nil),
		GuestEnabled: true,
	})
	ctx := context.Background()

	ac, err := svc.Open(ctx, profile)
	require.NoError(t, err)
	require.NoError(t, ac.LoginAsGuest(ctx))

	result, err := ac.Logout(ctx, "http://localhost:8080/login")
	require.NoError(t, err)
	assert.Empty(t, result.RedirectURL)
	assert.False(t, ac.State().IsAuthenticated)

	_, ok, err := backing.Get(ctx, profile, GuestSessionKey)
	require.NoError(t, err)
	assert.False(t, ok, "guest record must be removed from storage")
}

func TestAuthContext_Logout_RegisteredSignsOutOnce(t *testing.T) {
	ctrl := gomock.NewController(t)
	provider := mocks.NewMockIdentityProvider(ctrl)
	account := domainauth.Account{ID: "oid-1", Name: "Ada", Username: "ada@example.com"}

	provider.EXPECT().Accounts(gomock.Any(), profile).Return([]domainauth.Account{account}, nil)
	provider.EXPECT().
		BeginSignOut(gomock.Any(), profile, ports.SignOutInput{PostLogoutRedirectURL: "http://localhost:8080/login"}).
		Return("https://idp/logout", nil).
		Times(1)

	backing := memory.NewStorage()
	guests := NewGuestSessionStore(backing, nil)
	ctx := context.Background()
	require.NoError(t, guests.Save(ctx, profile, domainauth.NewGuestRecord()))

	svc := NewAuthService(AuthServiceOptions{Provider: provider, Guests: guests, GuestEnabled: true})
	ac, err := svc.Open(ctx, profile)
	require.NoError(t, err)
	assert.Equal(t, domainauth.KindRegistered, ac.State().User.Kind, "registered wins over guest")

	result, err := ac.Logout(ctx, "http://localhost:8080/login")
	require.NoError(t, err)
	assert.Equal(t, "https://idp/logout", result.RedirectURL)
	assert.False(t, ac.State().IsAuthenticated)

	rec, err := guests.Load(ctx, profile)
	require.NoError(t, err)
	assert.Nil(t, rec, "coexisting guest record is cleared too")
}

func TestAuthContext_Logout_ClearFailureStillSignsOut(t *testing.T) {
	f := newAuthFixture(t, true)
	f.provider.SignIn(profile)
	ac := f.open(t)
	f.storage.FailDelete = true

	result, err := ac.Logout(context.Background(), "/login")
	require.Error(t, err)
	assert.ErrorIs(t, err, mockauth.ErrStorageDown)
	assert.Equal(t, "https://mock-idp/logout", result.RedirectURL)
	assert.Equal(t, 1, f.provider.SignOutCalls())
	assert.False(t, ac.State().IsAuthenticated)
}

func TestAuthContext_Logout_SignOutError(t *testing.T) {
	f := newAuthFixture(t, true)
	f.provider.SignIn(profile)
	f.provider.BeginSignOutFunc = func(context.Context, string, ports.SignOutInput) (string, error) {
		return "", errors.New("idp unreachable")
	}
	ac := f.open(t)

	_, err := ac.Logout(context.Background(), "/login")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "begin sign-out")
	assert.Equal(t, 1, f.provider.SignOutCalls())
}

func TestAuthService_BeginLogin(t *testing.T) {
	f := newAuthFixture(t, true)

	result, err := f.svc.BeginLogin(context.Background(), "/cases")
	require.NoError(t, err)
	assert.Equal(t, "https://mock-idp/authorize", result.AuthURL)
	assert.Equal(t, "state-1", result.State)
	assert.Equal(t, "nonce-1", result.Nonce)
	assert.Equal(t, "verifier-1", result.Verifier)

	_, err = f.svc.BeginLogin(context.Background(), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redirect URL is required")
}

func TestAuthService_BeginLogin_ProviderError(t *testing.T) {
	f := newAuthFixture(t, true)
	f.provider.BeginSignInFunc = func(context.Context, ports.BeginInput) (ports.SignInRequest, error) {
		return ports.SignInRequest{}, errors.New("provider error")
	}

	_, err := f.svc.BeginLogin(context.Background(), "/")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "begin auth flow")
}

func TestAuthService_CompleteLogin(t *testing.T) {
	f := newAuthFixture(t, true)
	ctx := context.Background()

	account, err := f.svc.CompleteLogin(ctx, CompleteLoginInput{
		Profile: profile, Code: "code", State: "state-1", Nonce: "nonce-1", Verifier: "verifier-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "mock-user-1", account.ID)

	state := f.open(t).State()
	require.True(t, state.IsAuthenticated)
	assert.Equal(t, domainauth.KindRegistered, state.User.Kind)
}

func TestAuthService_CompleteLogin_Validation(t *testing.T) {
	f := newAuthFixture(t, true)

	tests := []struct {
		name   string
		input  CompleteLoginInput
		errMsg string
	}{
		{name: "missing profile", input: CompleteLoginInput{Code: "c", State: "s", Nonce: "n"}, errMsg: "profile is required"},
		{name: "missing code", input: CompleteLoginInput{Profile: profile, State: "s", Nonce: "n"}, errMsg: "authorization code is required"},
		{name: "missing state", input: CompleteLoginInput{Profile: profile, Code: "c", Nonce: "n"}, errMsg: "state parameter is required"},
		{name: "missing nonce", input: CompleteLoginInput{Profile: profile, Code: "c", State: "s"}, errMsg: "nonce parameter is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.CompleteLogin(context.Background(), tt.input)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
	assert.Equal(t, 0, f.provider.CompleteCalls())
}
