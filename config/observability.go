package config

import "strings"

const defaultObservabilityName = "tbrd-ui"

// ObservabilityConfig groups configuration that controls metrics and tracing.
type ObservabilityConfig struct {
	ServiceName string `env:"OBSERVABILITY_SERVICE_NAME" envDefault:"tbrd-ui"`
	Metrics     ObservabilityMetricsConfig
	Tracing     ObservabilityTracingConfig
}

// Sanitize applies guardrails to observability sub-configs.
func (c *ObservabilityConfig) Sanitize() {
	c.ServiceName = strings.TrimSpace(c.ServiceName)
	if c.ServiceName == "" {
		c.ServiceName = defaultObservabilityName
	}
	c.Metrics.Sanitize()
	c.Tracing.Sanitize()
}

// ObservabilityMetricsConfig controls emission of metrics to StatsD.
type ObservabilityMetricsConfig struct {
	Enabled       bool   `env:"OBSERVABILITY_METRICS_ENABLED"        envDefault:"false"`
	StatsdAddress string `env:"OBSERVABILITY_METRICS_STATSD_ADDRESS" envDefault:"127.0.0.1:8125"`
}

// Sanitize normalises derived fields and enforces safe defaults.
func (c *ObservabilityMetricsConfig) Sanitize() {
	c.StatsdAddress = strings.TrimSpace(c.StatsdAddress)
	if c.StatsdAddress == "" {
		c.Enabled = false
	}
}

// IsEnabled returns true when metrics emission is active after sanitisation.
func (c *ObservabilityMetricsConfig) IsEnabled() bool {
	return c.Enabled && c.StatsdAddress != ""
}

// ObservabilityTracingConfig controls OTLP trace export.
// Tracing stays a no-op unless an endpoint is configured.
type ObservabilityTracingConfig struct {
	Enabled  bool   `env:"OBSERVABILITY_TRACING_ENABLED"  envDefault:"true"`
	Endpoint string `env:"OBSERVABILITY_TRACING_ENDPOINT"`
}

// Sanitize disables tracing without an endpoint.
func (c *ObservabilityTracingConfig) Sanitize() {
	c.Endpoint = strings.TrimSpace(c.Endpoint)
	if c.Endpoint == "" {
		c.Enabled = false
	}
}
