package httpx

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/target/tbrd-ui/internal/adapters/memory"
	"github.com/target/tbrd-ui/internal/apiclient"
	mockauth "github.com/target/tbrd-ui/internal/mocks/auth"
	"github.com/target/tbrd-ui/internal/service"
)

const (
	testProfile = "3f8a1d6e-2b7c-4c1e-9f0a-5d6b7c8e9f01"
	testCSRF    = "test-csrf-token"
)

type envOptions struct {
	GuestDisabled bool
	// Backend serves the TBRD API; defaults to a handler that fails the test.
	Backend      http.Handler
	HealthChecks map[string]HealthCheck
}

// testEnv is a full router wired to a real AuthService over in-memory storage and
// the mock identity provider.
type testEnv struct {
	provider *mockauth.MockIdentityProvider
	storage  *mockauth.FailingStorage
	auth     *service.AuthService
	handler  http.Handler
}

func newTestEnv(t *testing.T, opts envOptions) *testEnv {
	t.Helper()
	env := &testEnv{
		provider: mockauth.NewMockIdentityProvider(),
		storage:  &mockauth.FailingStorage{Storage: memory.NewStorage()},
	}
	env.auth = service.NewAuthService(service.AuthServiceOptions{
		Provider:     env.provider,
		Guests:       service.NewGuestSessionStore(env.storage, nil),
		GuestEnabled: !opts.GuestDisabled,
	})

	backend := opts.Backend
	if backend == nil {
		backend = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Errorf("unexpected backend call: %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusTeapot)
		})
	}
	srv := httptest.NewServer(backend)
	t.Cleanup(srv.Close)

	api, err := apiclient.New(apiclient.Config{BaseURL: srv.URL + "/", Provider: env.provider})
	require.NoError(t, err)

	env.handler, err = NewRouter(RouterServices{
		Auth:          env.auth,
		API:           api,
		PostLogoutURL: "http://localhost:8080/login",
		HealthChecks:  opts.HealthChecks,
		Logger:        discardLogger(),
	})
	require.NoError(t, err)
	return env
}

// do sends req through the router with the test profile and CSRF cookies attached.
func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	req.AddCookie(&http.Cookie{Name: ProfileCookieName, Value: testProfile})
	req.AddCookie(&http.Cookie{Name: CSRFCookieName, Value: testCSRF})
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) signInAsGuest(t *testing.T) {
	t.Helper()
	rec := e.do(formPost("/auth/guest", "redirect_uri=/"))
	require.Equal(t, http.StatusSeeOther, rec.Code)
}

func browserGet(target string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	return req
}

func apiRequest(method, target, body string) *http.Request {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	req.Header.Set("Accept", "application/json")
	req.Header.Set(CSRFHeaderName, testCSRF)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	return req
}

func formPost(target, form string) *http.Request {
	if form != "" {
		form += "&"
	}
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form+CSRFFormField+"="+testCSRF))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "text/html")
	return req
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

func cookieValue(rec *httptest.ResponseRecorder, name string) (string, bool) {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c.Value, true
		}
	}
	return "", false
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
