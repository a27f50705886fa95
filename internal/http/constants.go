package httpx

// CurrentPage constants identify the app-shell pages for navigation.
const (
	PageDashboard    = "dashboard"
	PageCases        = "cases"
	PageCaseDetail   = "case-detail"
	PageUpload       = "upload"
	PagePipeline     = "pipeline"
	PageTBRD         = "tbrd"
	PageSearch       = "search"
	PageConversation = "conversation"
)

// Template names defined under frontend/templates.
const (
	templateLogin    = "login"
	templateApp      = "app"
	templateNotFound = "not-found"
)

// pageTitles maps pages to the document title.
//
//nolint:gochecknoglobals // static read-only lookup
var pageTitles = map[string]string{
	PageDashboard:    "Dashboard",
	PageCases:        "Cases",
	PageCaseDetail:   "Case",
	PageUpload:       "Upload BRD",
	PagePipeline:     "Pipeline",
	PageTBRD:         "TBRD",
	PageSearch:       "Search",
	PageConversation: "Conversation",
}

// TitleFor returns the document title of a page, falling back to the app name.
func TitleFor(page string) string {
	if t, ok := pageTitles[page]; ok {
		return t + " · TBRD Generator"
	}
	return "TBRD Generator"
}
