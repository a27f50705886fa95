package metrics

import (
	"strconv"
	"time"

	obserrors "github.com/target/tbrd-ui/internal/observability/errors"
	"github.com/target/tbrd-ui/internal/observability/statsd"
)

// Result constants for metric tagging.
const (
	ResultSuccess = "success"
	ResultError   = "error"
)

// Auth events.
const (
	AuthEventGuestLogin    = "guest_login"
	AuthEventSignInBegin   = "sign_in_begin"
	AuthEventSignInFinish  = "sign_in_complete"
	AuthEventLogout        = "logout"
	AuthEventTokenAcquired = "token_acquire"
)

// AuthMetric captures one authentication lifecycle event.
type AuthMetric struct {
	Event  string
	Kind   string // registered, guest or empty
	Result string
	Err    error
}

// EmitAuthEvent emits standardised auth lifecycle counters.
func EmitAuthEvent(sink statsd.Sink, in AuthMetric) {
	if sink == nil {
		return
	}
	tags := map[string]string{"event": in.Event, "result": in.Result}
	if in.Kind != "" {
		tags["kind"] = in.Kind
	}
	addErrorClass(tags, in.Result, in.Err)
	sink.Count("auth.event", 1, tags)
}

// APIRequestMetric captures one backend API call.
type APIRequestMetric struct {
	Op       string // request or upload
	Method   string
	Status   int // 0 when no response was received
	Duration time.Duration
	Err      error
}

// EmitAPIRequest emits a counter and a timing for a backend call.
func EmitAPIRequest(sink statsd.Sink, in APIRequestMetric) {
	if sink == nil {
		return
	}
	result := ResultSuccess
	if in.Err != nil {
		result = ResultError
	}
	tags := map[string]string{
		"op":     in.Op,
		"method": in.Method,
		"result": result,
		"status": statusClass(in.Status),
	}
	addErrorClass(tags, result, in.Err)

	sink.Count("api.request", 1, tags)
	if in.Duration > 0 {
		sink.Timing("api.request.duration", in.Duration, CloneTags(tags))
	}
}

func addErrorClass(tags map[string]string, result string, err error) {
	if err == nil || result != ResultError {
		return
	}
	if class := obserrors.Classify(err); class != "" {
		tags["error_class"] = class
	}
}

// statusClass buckets HTTP statuses (2xx, 4xx, ...) to keep tag cardinality low.
func statusClass(status int) string {
	if status < 100 || status > 599 {
		return "none"
	}
	return strconv.Itoa(status/100) + "xx"
}

// CloneTags creates a shallow copy of a tag map.
func CloneTags(src map[string]string) map[string]string {
	if len(src) == 0 {
		return nil
	}
	out := make(map[string]string, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
