package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	domainauth "github.com/target/tbrd-ui/internal/domain/auth"
	"github.com/target/tbrd-ui/internal/service"
)

// Temporary cookies that survive the IdP round-trip.
const (
	cookieOAuthState     = "oauth_state"
	cookieOAuthNonce     = "oauth_nonce"
	cookieOAuthVerifier  = "oauth_verifier"
	cookiePostLoginRedir = "post_login_redirect"

	oauthCookieMaxAge = 10 * time.Minute
)

// AuthServiceInterface defines the auth service operations used by the handlers.
type AuthServiceInterface interface {
	BeginLogin(ctx context.Context, redirectURL string) (*service.BeginLoginResult, error)
	CompleteLogin(ctx context.Context, input service.CompleteLoginInput) (domainauth.Account, error)
	GuestEnabled() bool
}

// AuthHandlers provides HTTP handlers for authentication operations.
type AuthHandlers struct {
	Svc          AuthServiceInterface
	CookieDomain string
	// PostLogoutURL is where the IdP returns the browser after sign-out.
	PostLogoutURL string
	Logger        *slog.Logger
}

func (h *AuthHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// Login starts the interactive sign-in and navigates the browser away.
// GET /auth/login?redirect_uri=<optional_redirect>.
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	redirectURI := safeRedirectPath(r.URL.Query().Get("redirect_uri"))

	result, err := h.Svc.BeginLogin(r.Context(), redirectURI)
	if err != nil {
		h.logger().ErrorContext(r.Context(), "begin login failed", "error", err)
		WriteError(w, ErrorParams{
			Code:    http.StatusInternalServerError,
			ErrCode: "login_failed",
			Err:     errors.New("could not start sign-in"),
		})
		return
	}

	h.setTempCookie(w, r, cookieOAuthState, result.State)
	h.setTempCookie(w, r, cookieOAuthNonce, result.Nonce)
	if result.Verifier != "" {
		h.setTempCookie(w, r, cookieOAuthVerifier, result.Verifier)
	}
	h.setTempCookie(w, r, cookiePostLoginRedir, redirectURI)

	http.Redirect(w, r, result.AuthURL, http.StatusFound)
}

// Callback completes the redirect-back leg. The account becomes visible on the next request.
// GET /auth/callback?code=<code>&state=<state>.
func (h *AuthHandlers) Callback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if idpErr := q.Get("error"); idpErr != "" {
		h.logger().WarnContext(r.Context(), "identity provider returned an error",
			"error", idpErr, "description", q.Get("error_description"))
		h.clearOAuthCookies(w, r)
		http.Redirect(w, r, "/login?error="+url.QueryEscape(idpErr), http.StatusSeeOther)
		return
	}

	code := q.Get("code")
	state := q.Get("state")
	if code == "" {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "missing_code",
			Err:     errors.New("authorization code is required"),
		})
		return
	}
	if state == "" {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "missing_state",
			Err:     errors.New("state parameter is required"),
		})
		return
	}

	stateCookie, err := r.Cookie(cookieOAuthState)
	if err != nil || stateCookie.Value != state {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "invalid_state",
			Err:     errors.New("invalid or missing state parameter"),
		})
		return
	}
	nonceCookie, err := r.Cookie(cookieOAuthNonce)
	if err != nil {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "missing_nonce",
			Err:     errors.New("missing nonce parameter"),
		})
		return
	}
	verifier := ""
	if c, cookieErr := r.Cookie(cookieOAuthVerifier); cookieErr == nil {
		verifier = c.Value
	}

	if _, err = h.Svc.CompleteLogin(r.Context(), service.CompleteLoginInput{
		Profile:  ProfileFromContext(r.Context()),
		Code:     code,
		State:    state,
		Nonce:    nonceCookie.Value,
		Verifier: verifier,
	}); err != nil {
		h.logger().ErrorContext(r.Context(), "complete login failed", "error", err)
		WriteError(w, ErrorParams{
			Code:    http.StatusInternalServerError,
			ErrCode: "login_completion_failed",
			Err:     errors.New("could not complete sign-in"),
		})
		return
	}

	redirectURI := h.postLoginRedirect(r)
	h.clearOAuthCookies(w, r)
	http.Redirect(w, r, redirectURI, http.StatusFound)
}

// Guest signs the profile in as the anonymous guest.
// POST /auth/guest.
func (h *AuthHandlers) Guest(w http.ResponseWriter, r *http.Request) {
	ac, ok := GetAuthContext(r.Context())
	if !ok {
		WriteError(w, ErrorParams{
			Code:    http.StatusInternalServerError,
			ErrCode: "session_unavailable",
			Err:     errors.New("session state not loaded"),
		})
		return
	}

	if err := ac.LoginAsGuest(r.Context()); err != nil {
		if errors.Is(err, service.ErrGuestDisabled) {
			if isAJAX(r) {
				WriteError(w, ErrorParams{Code: http.StatusForbidden, ErrCode: "guest_disabled", Err: err})
				return
			}
			http.Redirect(w, r, "/login?error=guest_disabled", http.StatusSeeOther)
			return
		}
		h.logger().ErrorContext(r.Context(), "guest login failed", "error", err)
		WriteError(w, ErrorParams{
			Code:    http.StatusInternalServerError,
			ErrCode: "guest_login_failed",
			Err:     errors.New("could not start guest session"),
		})
		return
	}

	redirectURI := safeRedirectPath(r.FormValue("redirect_uri"))
	if isAJAX(r) {
		WriteJSON(w, http.StatusOK, map[string]string{"status": "success", "redirect_to": redirectURI})
		return
	}
	http.Redirect(w, r, redirectURI, http.StatusSeeOther)
}

// Logout clears the guest session and, for registered users, hands the browser to
// the IdP's end-session page. Local state is dropped even when a step fails.
// POST /auth/logout.
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	target := "/login"
	if ac, ok := GetAuthContext(r.Context()); ok {
		result, err := ac.Logout(r.Context(), h.PostLogoutURL)
		if err != nil {
			h.logger().WarnContext(r.Context(), "logout failed", "error", err)
		}
		if result.RedirectURL != "" {
			target = result.RedirectURL
		}
	}

	if isAJAX(r) {
		WriteJSON(w, http.StatusOK, map[string]string{"status": "success", "redirect_to": target})
		return
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// statusUser is the JSON shape of the current user.
type statusUser struct {
	domainauth.User
	Initials string `json:"initials"`
}

// Status returns the current authentication status.
// GET /auth/status.
func (h *AuthHandlers) Status(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"isAuthenticated": false,
		"user":            nil,
		"guestEnabled":    h.Svc.GuestEnabled(),
	}
	if ac, ok := GetAuthContext(r.Context()); ok {
		st := ac.State()
		resp["isAuthenticated"] = st.IsAuthenticated
		if st.User != nil {
			resp["user"] = statusUser{User: *st.User, Initials: st.User.Initials()}
		}
	}
	WriteJSON(w, http.StatusOK, resp)
}

// setTempCookie stores a short-lived value for the IdP round-trip.
func (h *AuthHandlers) setTempCookie(w http.ResponseWriter, r *http.Request, name, value string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   h.CookieDomain,
		HttpOnly: true,
		Secure:   isSecureRequest(r),
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(oauthCookieMaxAge.Seconds()),
	})
}

// clearCookie clears a cookie by setting it to expire immediately.
// It mirrors key attributes (Secure, Path, Domain, SameSite) used when setting cookies
// to maximize compatibility across browsers during deletion.
func (h *AuthHandlers) clearCookie(w http.ResponseWriter, r *http.Request, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Domain:   h.CookieDomain,
		HttpOnly: true,
		Secure:   isSecureRequest(r),
		MaxAge:   -1,
		Expires:  time.Unix(0, 0).UTC(),
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandlers) clearOAuthCookies(w http.ResponseWriter, r *http.Request) {
	for _, name := range []string{cookieOAuthState, cookieOAuthNonce, cookieOAuthVerifier, cookiePostLoginRedir} {
		h.clearCookie(w, r, name)
	}
}

// postLoginRedirect returns the validated post-login destination.
func (h *AuthHandlers) postLoginRedirect(r *http.Request) string {
	if c, err := r.Cookie(cookiePostLoginRedir); err == nil {
		return safeRedirectPath(c.Value)
	}
	return "/"
}
