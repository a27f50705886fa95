package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/tbrd-ui/internal/observability/statsd"
)

func TestEmitAPIRequest(t *testing.T) {
	rec := &statsd.Recorder{}

	EmitAPIRequest(rec, APIRequestMetric{Op: "request", Method: "GET", Status: 200, Duration: 15 * time.Millisecond})
	EmitAPIRequest(rec, APIRequestMetric{Op: "upload", Method: "POST", Status: 0, Err: errors.New("dial")})

	counts := rec.Named("api.request")
	require.Len(t, counts, 2)
	assert.Equal(t, "2xx", counts[0].Tags["status"])
	assert.Equal(t, ResultSuccess, counts[0].Tags["result"])
	assert.Equal(t, "none", counts[1].Tags["status"])
	assert.Equal(t, ResultError, counts[1].Tags["result"])
	assert.NotEmpty(t, counts[1].Tags["error_class"])

	timings := rec.Named("api.request.duration")
	require.Len(t, timings, 1)
	assert.InDelta(t, 15, timings[0].Value, 0.001)
}

func TestEmitAuthEvent(t *testing.T) {
	rec := &statsd.Recorder{}
	EmitAuthEvent(rec, AuthMetric{Event: AuthEventGuestLogin, Kind: "guest", Result: ResultSuccess})
	EmitAuthEvent(nil, AuthMetric{Event: AuthEventLogout})

	samples := rec.Named("auth.event")
	require.Len(t, samples, 1)
	assert.Equal(t, map[string]string{"event": "guest_login", "kind": "guest", "result": "success"}, samples[0].Tags)
}
