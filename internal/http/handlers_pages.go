package httpx

import (
	"log/slog"
	"net/http"

	domainauth "github.com/target/tbrd-ui/internal/domain/auth"
)

// PageData is the view model shared by the HTML templates.
type PageData struct {
	Title        string
	CurrentPage  string
	User         *domainauth.User
	Initials     string
	CaseID       string
	RedirectURI  string
	GuestEnabled bool
	Error        string
	CSRFToken    string
	IsDev        bool
}

// PageHandlers serves the sign-in page and the app shell.
type PageHandlers struct {
	T            *TemplateRenderer
	GuestEnabled bool
	IsDev        bool
	Logger       *slog.Logger
}

func (h *PageHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// loginErrors maps error codes passed back to /login onto user-facing text.
//
//nolint:gochecknoglobals // static read-only lookup
var loginErrors = map[string]string{
	"access_denied":  "Sign-in was cancelled.",
	"guest_disabled": "Guest access is not available.",
}

// Login renders the public sign-in page. An already authenticated visitor is sent on.
// GET /login?redirect_uri=<optional_redirect>.
func (h *PageHandlers) Login(w http.ResponseWriter, r *http.Request) {
	redirectURI := safeRedirectPath(r.URL.Query().Get("redirect_uri"))
	if ac, ok := GetAuthContext(r.Context()); ok && ac.State().IsAuthenticated {
		http.Redirect(w, r, redirectURI, http.StatusSeeOther)
		return
	}

	data := PageData{
		Title:        "Sign in · TBRD Generator",
		RedirectURI:  redirectURI,
		GuestEnabled: h.GuestEnabled,
		CSRFToken:    CSRFTokenFromContext(r.Context()),
		IsDev:        h.IsDev,
	}
	if code := r.URL.Query().Get("error"); code != "" {
		data.Error = loginErrors[code]
		if data.Error == "" {
			data.Error = "Sign-in failed. Please try again."
		}
	}
	h.render(w, r, http.StatusOK, templateLogin, data)
}

// Page returns a handler that renders the app shell for page.
func (h *PageHandlers) Page(page string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data := PageData{
			Title:       TitleFor(page),
			CurrentPage: page,
			CaseID:      r.PathValue("caseId"),
			CSRFToken:   CSRFTokenFromContext(r.Context()),
			IsDev:       h.IsDev,
		}
		if ac, ok := GetAuthContext(r.Context()); ok {
			if st := ac.State(); st.User != nil {
				data.User = st.User
				data.Initials = st.User.Initials()
			}
		}
		h.render(w, r, http.StatusOK, templateApp, data)
	}
}

// NotFound renders the 404 page for browsers and a JSON error for everything else.
func (h *PageHandlers) NotFound(w http.ResponseWriter, r *http.Request) {
	if !IsBrowserRequest(r) || h.T == nil {
		WriteError(w, ErrorParams{Code: http.StatusNotFound, ErrCode: "not_found"})
		return
	}
	h.render(w, r, http.StatusNotFound, templateNotFound, PageData{Title: "Not found · TBRD Generator", IsDev: h.IsDev})
}

func (h *PageHandlers) render(w http.ResponseWriter, r *http.Request, status int, name string, data PageData) {
	if h.T == nil {
		http.Error(w, "templates unavailable", http.StatusInternalServerError)
		return
	}
	if err := h.T.Render(w, status, name, data); err != nil {
		h.logger().ErrorContext(r.Context(), "render failed", "template", name, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}
