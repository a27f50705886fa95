package httpx

import (
	"context"

	"github.com/target/tbrd-ui/internal/service"
)

// Unexported context key types to avoid collisions across packages.
// Centralized in this file so all handlers/middleware use the same keys.
type (
	profileKey     struct{}
	authContextKey struct{}
)

// SetProfileInContext returns a child context carrying the browser profile id.
func SetProfileInContext(ctx context.Context, profile string) context.Context {
	if profile == "" {
		return ctx
	}
	return context.WithValue(ctx, profileKey{}, profile)
}

// ProfileFromContext returns the profile id set by ProfileCookie, or "".
func ProfileFromContext(ctx context.Context) string {
	if p, ok := ctx.Value(profileKey{}).(string); ok {
		return p
	}
	return ""
}

// SetAuthContext returns a child context that carries the request's AuthContext.
// If ac is nil, the original ctx is returned unchanged.
func SetAuthContext(ctx context.Context, ac *service.AuthContext) context.Context {
	if ac == nil {
		return ctx
	}
	return context.WithValue(ctx, authContextKey{}, ac)
}

// GetAuthContext returns the AuthContext opened by WithAuthContext and a boolean indicating presence.
func GetAuthContext(ctx context.Context) (*service.AuthContext, bool) {
	if ac, ok := ctx.Value(authContextKey{}).(*service.AuthContext); ok && ac != nil {
		return ac, true
	}
	return nil, false
}

// IsGuestUser reports whether the request is unauthenticated or signed in as the guest.
func IsGuestUser(ctx context.Context) bool {
	ac, ok := GetAuthContext(ctx)
	if !ok {
		return true
	}
	st := ac.State()
	return st.User == nil || st.User.IsGuest()
}
