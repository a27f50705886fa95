package httpx

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"regexp"
	"time"

	tbrdui "github.com/target/tbrd-ui"
	"github.com/target/tbrd-ui/internal/apiclient"
	"github.com/target/tbrd-ui/internal/service"
)

// Asset paths used in dev mode, relative to the project root.
const (
	TemplatePathFromRoot = "frontend/templates"
	StaticPathFromRoot   = "frontend/static"
)

// RouterServices holds all the services needed by the HTTP router.
type RouterServices struct {
	Auth *service.AuthService
	API  *apiclient.Client

	CookieDomain  string
	ProfileMaxAge time.Duration
	// PostLogoutURL is handed to the IdP as post_logout_redirect_uri.
	PostLogoutURL  string
	MaxUploadBytes int64

	// HealthChecks back GET /readyz, keyed by dependency name.
	HealthChecks map[string]HealthCheck

	IsDev  bool         // Serve templates and static files from disk
	Logger *slog.Logger // Logger for template and HTTP errors (optional)
}

// NewRouter creates and configures the HTTP router with browser middleware.
func NewRouter(services RouterServices) (http.Handler, error) {
	if services.Auth == nil {
		return nil, errors.New("auth service is required")
	}
	if services.API == nil {
		return nil, errors.New("api client is required")
	}
	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}

	renderer, err := NewTemplateRenderer(TemplateRendererConfig{
		TemplateFS: templateFS(services.IsDev),
		Logger:     logger,
	})
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}

	pages := &PageHandlers{T: renderer, GuestEnabled: services.Auth.GuestEnabled(), IsDev: services.IsDev, Logger: logger}
	authHandlers := &AuthHandlers{
		Svc:           services.Auth,
		CookieDomain:  services.CookieDomain,
		PostLogoutURL: services.PostLogoutURL,
		Logger:        logger,
	}
	apiHandlers := &APIHandlers{API: services.API, MaxUploadBytes: services.MaxUploadBytes, Logger: logger}

	profile := ProfileCookie(ProfileCookieConfig{Domain: services.CookieDomain, MaxAge: services.ProfileMaxAge})
	withAuth := WithAuthContext(services.Auth, logger)
	guard := RequireAuthenticated()
	mw := routeMiddleware{
		session: func(h http.Handler) http.Handler { return profile(withAuth(h)) },
		guarded: func(h http.Handler) http.Handler { return profile(withAuth(guard(h))) },
		profile: profile,
	}

	mux := http.NewServeMux()
	mux.Handle("GET /healthz", http.HandlerFunc(healthHandler))
	mux.Handle("HEAD /healthz", http.HandlerFunc(healthHandler))
	mux.Handle("GET /readyz", readyHandler(services.HealthChecks))
	mux.Handle("GET /static/", staticHandler(services.IsDev))

	registerAuthRoutes(mux, authHandlers, pages, mw)
	registerPageRoutes(mux, pages, mw)
	registerAPIRoutes(mux, apiHandlers, mw)
	mux.Handle("/", http.HandlerFunc(pages.NotFound))

	csrf := CSRFProtection(CSRFConfig{CookieDomain: services.CookieDomain})
	return Recover(logger)(Logging(logger)(BrowserDetection()(csrf(mux)))), nil
}

// routeMiddleware bundles the per-route wrappers.
type routeMiddleware struct {
	profile func(http.Handler) http.Handler // profile cookie only
	session func(http.Handler) http.Handler // profile + auth context
	guarded func(http.Handler) http.Handler // session + RequireAuthenticated
}

func registerAuthRoutes(mux *http.ServeMux, h *AuthHandlers, pages *PageHandlers, mw routeMiddleware) {
	mux.Handle("GET /login", mw.session(http.HandlerFunc(pages.Login)))
	mux.Handle("GET /auth/login", mw.profile(http.HandlerFunc(h.Login)))
	mux.Handle("GET /auth/callback", mw.profile(http.HandlerFunc(h.Callback)))
	mux.Handle("POST /auth/guest", mw.session(http.HandlerFunc(h.Guest)))
	mux.Handle("POST /auth/logout", mw.session(http.HandlerFunc(h.Logout)))
	mux.Handle("GET /auth/status", mw.session(http.HandlerFunc(h.Status)))
}

func registerPageRoutes(mux *http.ServeMux, pages *PageHandlers, mw routeMiddleware) {
	routes := []struct {
		pattern string
		page    string
	}{
		{"GET /{$}", PageDashboard},
		{"GET /cases", PageCases},
		{"GET /cases/{caseId}", PageCaseDetail},
		{"GET /cases/{caseId}/upload", PageUpload},
		{"GET /cases/{caseId}/pipeline", PagePipeline},
		{"GET /cases/{caseId}/tbrd", PageTBRD},
		{"GET /search", PageSearch},
		{"GET /conversation", PageConversation},
	}
	for _, rt := range routes {
		mux.Handle(rt.pattern, mw.guarded(pages.Page(rt.page)))
	}
}

func registerAPIRoutes(mux *http.ServeMux, h *APIHandlers, mw routeMiddleware) {
	handle := func(pattern string, fn http.HandlerFunc) {
		mux.Handle(pattern, mw.guarded(fn))
	}
	handle("GET /api/cases", h.ListCases)
	handle("POST /api/cases", h.CreateCase)
	handle("GET /api/cases/{caseId}", h.GetCase)
	handle("GET /api/cases/{caseId}/documents", h.ListDocuments)
	handle("POST /api/cases/{caseId}/documents", h.UploadDocument)
	handle("GET /api/cases/{caseId}/pipeline", h.PipelineStatus)
	handle("POST /api/cases/{caseId}/pipeline", h.StartPipeline)
	handle("GET /api/cases/{caseId}/tbrd", h.GetTBRD)
	handle("PUT /api/cases/{caseId}/tbrd/sections/{sectionId}", h.UpdateSection)
	handle("GET /api/cases/{caseId}/search", h.Search)
	handle("GET /api/cases/{caseId}/conversation", h.ListMessages)
	handle("POST /api/cases/{caseId}/conversation", h.SendMessage)
	handle("GET /api/dashboard/kpis", h.KPIs)
	handle("GET /api/dashboard/activity", h.Activity)
	handle("GET /api/dashboard/stats", h.Stats)
}

// templateFS reads templates from disk in dev mode for hot reloading and from the
// embedded FS otherwise.
func templateFS(isDev bool) fs.FS {
	if isDev {
		return os.DirFS(TemplatePathFromRoot)
	}
	sub, err := fs.Sub(tbrdui.TemplateFS, TemplatePathFromRoot)
	if err != nil {
		return os.DirFS(TemplatePathFromRoot)
	}
	return sub
}

// staticHandler serves /static/* from disk in dev mode and from the embedded FS otherwise.
func staticHandler(isDev bool) http.Handler {
	var root http.FileSystem = http.Dir(StaticPathFromRoot)
	if !isDev {
		if sub, err := fs.Sub(tbrdui.StaticFS, StaticPathFromRoot); err == nil {
			root = http.FS(sub)
		}
	}
	return staticWithCacheHeaders(http.StripPrefix("/static/", http.FileServer(root)))
}

// hashedFilePattern matches content-hashed filenames including optional .map
// (e.g., app.abc123de.js, styles.def456ab.css, app.abc123de.js.map).
var hashedFilePattern = regexp.MustCompile(`\.[a-f0-9]{8}\.(?:js|css)(?:\.map)?$`)

// staticWithCacheHeaders wraps a static file handler to add appropriate cache headers.
func staticWithCacheHeaders(handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hashedFilePattern.MatchString(r.URL.Path) {
			w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		} else {
			w.Header().Set("Cache-Control", "no-cache")
		}
		handler.ServeHTTP(w, r)
	})
}
