package httpx

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const (
	// CSRFCookieName is readable by app.js, which echoes it in CSRFHeaderName.
	CSRFCookieName = "tbrd_csrf"
	// CSRFHeaderName is the header checked on fetch calls (canonical form).
	CSRFHeaderName = "X-Csrf-Token"
	// CSRFFormField is the hidden input checked on form posts.
	CSRFFormField = "csrf_token"

	csrfTokenBytes = 32
	csrfCookieTTL  = 12 * time.Hour
)

// CSRFConfig holds configuration for CSRF protection middleware.
type CSRFConfig struct {
	CookieDomain string
}

// CSRFProtection guards state-changing requests with a double-submit cookie.
// The token travels either in the X-Csrf-Token header (fetch calls from app.js)
// or in the csrf_token field of a urlencoded form (sign-in and sign-out forms).
// GET, HEAD, OPTIONS and TRACE pass through, so the IdP callback is unaffected.
func CSRFProtection(cfg CSRFConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := ""
			if c, err := r.Cookie(CSRFCookieName); err == nil {
				token = c.Value
			}
			if token == "" {
				var err error
				if token, err = generateCSRFToken(); err != nil {
					http.Error(w, "unable to generate CSRF token", http.StatusInternalServerError)
					return
				}
				http.SetCookie(w, &http.Cookie{
					Name:     CSRFCookieName,
					Value:    token,
					Path:     "/",
					Domain:   cfg.CookieDomain,
					HttpOnly: false,
					Secure:   isSecureRequest(r),
					SameSite: http.SameSiteStrictMode,
					MaxAge:   int(csrfCookieTTL.Seconds()),
				})
				// A freshly minted token cannot match anything the client sent.
				if requiresCSRFValidation(r.Method) {
					writeCSRFFailure(w, r)
					return
				}
			}

			r = r.WithContext(context.WithValue(r.Context(), csrfTokenKey{}, token))
			if requiresCSRFValidation(r.Method) && !validCSRFToken(r, token) {
				writeCSRFFailure(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func requiresCSRFValidation(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return false
	default:
		return true
	}
}

// generateCSRFToken fails closed when the random source is unavailable.
func generateCSRFToken() (string, error) {
	b := make([]byte, csrfTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("csrf token generation failed: %w", err)
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// validCSRFToken compares in constant time. Multipart bodies are never parsed here;
// uploads go through fetch and carry the header.
func validCSRFToken(r *http.Request, cookieToken string) bool {
	if sent := r.Header.Get(CSRFHeaderName); sent != "" {
		return subtle.ConstantTimeCompare([]byte(sent), []byte(cookieToken)) == 1
	}
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded") {
		return false
	}
	if err := r.ParseForm(); err != nil {
		return false
	}
	sent := r.PostFormValue(CSRFFormField)
	return sent != "" && subtle.ConstantTimeCompare([]byte(sent), []byte(cookieToken)) == 1
}

func writeCSRFFailure(w http.ResponseWriter, r *http.Request) {
	if IsBrowserRequest(r) {
		http.Error(w, "CSRF token validation failed", http.StatusForbidden)
		return
	}
	WriteError(w, ErrorParams{Code: http.StatusForbidden, ErrCode: "csrf_failed"})
}

type csrfTokenKey struct{}

// CSRFTokenFromContext returns the token for embedding in rendered forms.
func CSRFTokenFromContext(ctx context.Context) string {
	if token, ok := ctx.Value(csrfTokenKey{}).(string); ok {
		return token
	}
	return ""
}
