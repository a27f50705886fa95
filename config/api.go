package config

import (
	"strings"
	"time"
)

const (
	defaultAPITimeout = 30 * time.Second
	maxAPITimeout     = 5 * time.Minute
)

// APIConfig configures the outbound client for the TBRD backend.
type APIConfig struct {
	// BaseURL is prefixed to every request path.
	BaseURL string `env:"API_BASE_URL" envDefault:"http://localhost:8000"`

	// Timeout bounds a single backend call including token acquisition.
	Timeout time.Duration `env:"API_TIMEOUT" envDefault:"30s"`
}

// Sanitize trims the base URL and clamps the timeout.
func (a *APIConfig) Sanitize() {
	a.BaseURL = strings.TrimRight(strings.TrimSpace(a.BaseURL), "/")
	if a.BaseURL == "" {
		a.BaseURL = "http://localhost:8000"
	}
	if a.Timeout <= 0 {
		a.Timeout = defaultAPITimeout
	}
	if a.Timeout > maxAPITimeout {
		a.Timeout = maxAPITimeout
	}
}
