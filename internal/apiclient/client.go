// Package apiclient is the bearer-authenticated HTTP client for the TBRD backend.
// Every call resolves the profile's registered account and a silent access token
// before any network I/O.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	domainauth "github.com/target/tbrd-ui/internal/domain/auth"
	"github.com/target/tbrd-ui/internal/observability/metrics"
	"github.com/target/tbrd-ui/internal/observability/statsd"
	"github.com/target/tbrd-ui/internal/ports"
)

const (
	defaultTimeout = 30 * time.Second
	tracerName     = "github.com/target/tbrd-ui/internal/apiclient"

	opRequest = "request"
	opUpload  = "upload"
)

// Config configures a Client.
type Config struct {
	BaseURL    string
	Timeout    time.Duration // applied when HTTPClient is nil
	HTTPClient *http.Client
	Provider   ports.IdentityProvider
	Logger     *slog.Logger
	Metrics    statsd.Sink
	Tracer     trace.Tracer
}

// Client issues authenticated calls on behalf of one browser profile.
// The zero profile has no account, so every call fails with *AuthError until As is used.
type Client struct {
	baseURL    string
	httpClient *http.Client
	provider   ports.IdentityProvider
	logger     *slog.Logger
	metrics    statsd.Sink
	tracer     trace.Tracer
	profile    string
}

// New validates cfg and builds a Client.
func New(cfg Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, errors.New("base URL is required")
	}
	if cfg.Provider == nil {
		return nil, errors.New("identity provider is required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	tracer := cfg.Tracer
	if tracer == nil {
		tracer = otel.Tracer(tracerName)
	}

	return &Client{
		baseURL:    base,
		httpClient: httpClient,
		provider:   cfg.Provider,
		logger:     logger.With("component", "apiclient"),
		metrics:    cfg.Metrics,
		tracer:     tracer,
	}, nil
}

// As returns a copy of c bound to profile.
func (c *Client) As(profile string) *Client {
	cp := *c
	cp.profile = profile
	return &cp
}

// RequestOptions shape one call. JSON, when set, is encoded as the body and wins over Body.
type RequestOptions struct {
	Method string // defaults to GET
	Header http.Header
	Body   io.Reader
	JSON   any
}

// Request performs an authenticated call and returns the response JSON,
// or nil when the backend answered with an empty body.
func (c *Client) Request(ctx context.Context, path string, opts RequestOptions) (json.RawMessage, error) {
	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}

	ctx, span := c.startSpan(ctx, opRequest, method, path)
	defer span.End()
	started := time.Now()

	body, header, err := encodeBody(opts)
	if err != nil {
		return nil, c.finish(span, metricInput{op: opRequest, method: method, started: started}, err)
	}

	token, err := c.token(ctx)
	if err != nil {
		return nil, c.finish(span, metricInput{op: opRequest, method: method, started: started}, err)
	}

	resp, err := c.do(ctx, method, path, token, header, body)
	if err != nil {
		return nil, c.finish(span, metricInput{op: opRequest, method: method, started: started}, err)
	}
	defer resp.Body.Close()

	out, err := readResponse(resp)
	return out, c.finish(span, metricInput{op: opRequest, method: method, status: resp.StatusCode, started: started}, err)
}

// RequestInto performs Request and decodes the JSON into dst. An empty body leaves dst untouched.
func (c *Client) RequestInto(ctx context.Context, path string, opts RequestOptions, dst any) error {
	raw, err := c.Request(ctx, path, opts)
	if err != nil {
		return err
	}
	if raw == nil || dst == nil {
		return nil
	}
	if decErr := json.Unmarshal(raw, dst); decErr != nil {
		return fmt.Errorf("decode %s: %w", path, decErr)
	}
	return nil
}

// UploadInput is a single-file multipart upload with optional flat string fields.
type UploadInput struct {
	FieldName string // form field of the file; defaults to "file"
	FileName  string
	File      io.Reader
	Fields    map[string]string
}

// Upload POSTs a multipart body. Any non-2xx answer, 401/403 included, is an
// *APIError with Op "upload"; there is no retry, chunking or progress reporting.
func (c *Client) Upload(ctx context.Context, path string, in UploadInput) (json.RawMessage, error) {
	ctx, span := c.startSpan(ctx, opUpload, http.MethodPost, path)
	defer span.End()
	started := time.Now()
	mi := metricInput{op: opUpload, method: http.MethodPost, started: started}

	token, err := c.token(ctx)
	if err != nil {
		return nil, c.finish(span, mi, err)
	}
	if in.File == nil {
		return nil, c.finish(span, mi, errors.New("upload: file is required"))
	}

	body, contentType, err := encodeMultipart(in)
	if err != nil {
		return nil, c.finish(span, mi, err)
	}
	header := http.Header{}
	header.Set("Content-Type", contentType)

	resp, err := c.do(ctx, http.MethodPost, path, token, header, body)
	if err != nil {
		return nil, c.finish(span, mi, err)
	}
	defer resp.Body.Close()
	mi.status = resp.StatusCode

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, c.finish(span, mi, &APIError{
			Op:      opUpload,
			Status:  resp.StatusCode,
			Message: fmt.Sprintf("Upload failed: %d", resp.StatusCode),
		})
	}

	out, err := decodeSuccess(resp.Body)
	return out, c.finish(span, mi, err)
}

// token resolves the registered account and a silent access token.
func (c *Client) token(ctx context.Context) (domainauth.AccessToken, error) {
	accounts, err := c.provider.Accounts(ctx, c.profile)
	if err != nil {
		return domainauth.AccessToken{}, fmt.Errorf("resolve account: %w", err)
	}
	if len(accounts) == 0 {
		return domainauth.AccessToken{}, &AuthError{Err: ports.ErrNoAccount}
	}

	tok, err := c.provider.AcquireTokenSilent(ctx, c.profile, &accounts[0])
	if err != nil {
		err = &AuthError{Err: err}
	}
	metrics.EmitAuthEvent(c.metrics, metrics.AuthMetric{
		Event:  metrics.AuthEventTokenAcquired,
		Kind:   string(domainauth.KindRegistered),
		Result: resultOf(err),
		Err:    err,
	})
	if err != nil {
		return domainauth.AccessToken{}, err
	}
	return tok, nil
}

func (c *Client) do(
	ctx context.Context,
	method, path string,
	token domainauth.AccessToken,
	header http.Header,
	body io.Reader,
) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.url(path), body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))
	// Set last so caller headers cannot replace or drop it.
	req.Header.Set("Authorization", "Bearer "+token.Value)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	return resp, nil
}

func (c *Client) url(path string) string {
	if path == "" || strings.HasPrefix(path, "/") {
		return c.baseURL + path
	}
	return c.baseURL + "/" + path
}

// readResponse applies the status rules of Request.
func readResponse(resp *http.Response) (json.RawMessage, error) {
	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &AuthError{Status: resp.StatusCode}
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		return nil, &APIError{Op: opRequest, Status: resp.StatusCode, Message: errorMessage(data, resp.StatusCode)}
	default:
		return decodeSuccess(resp.Body)
	}
}

// errorMessage prefers a string "message" field of a JSON error body.
func errorMessage(body []byte, status int) string {
	if gjson.ValidBytes(body) {
		if msg := gjson.GetBytes(body, "message"); msg.Type == gjson.String && msg.Str != "" {
			return msg.Str
		}
	}
	return fmt.Sprintf("API error: %d", status)
}

func decodeSuccess(r io.Reader) (json.RawMessage, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	if !json.Valid(data) {
		return nil, ErrMalformedResponse
	}
	return json.RawMessage(data), nil
}

func encodeBody(opts RequestOptions) (io.Reader, http.Header, error) {
	header := opts.Header.Clone()
	if header == nil {
		header = http.Header{}
	}
	if opts.JSON == nil {
		return opts.Body, header, nil
	}
	data, err := json.Marshal(opts.JSON)
	if err != nil {
		return nil, nil, fmt.Errorf("encode request body: %w", err)
	}
	if header.Get("Content-Type") == "" {
		header.Set("Content-Type", "application/json")
	}
	return bytes.NewReader(data), header, nil
}

func encodeMultipart(in UploadInput) (io.Reader, string, error) {
	field := in.FieldName
	if field == "" {
		field = "file"
	}
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile(field, in.FileName)
	if err != nil {
		return nil, "", fmt.Errorf("create form file: %w", err)
	}
	if _, copyErr := io.Copy(part, in.File); copyErr != nil {
		return nil, "", fmt.Errorf("copy upload: %w", copyErr)
	}
	for k, v := range in.Fields {
		if fieldErr := mw.WriteField(k, v); fieldErr != nil {
			return nil, "", fmt.Errorf("write field %s: %w", k, fieldErr)
		}
	}
	if closeErr := mw.Close(); closeErr != nil {
		return nil, "", fmt.Errorf("close multipart: %w", closeErr)
	}
	return &buf, mw.FormDataContentType(), nil
}

func (c *Client) startSpan(ctx context.Context, op, method, path string) (context.Context, trace.Span) {
	return c.tracer.Start(ctx, "apiclient."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", method),
			attribute.String("url.path", path),
		),
	)
}

type metricInput struct {
	op      string
	method  string
	status  int
	started time.Time
}

// finish records the outcome on the span, in metrics and in the log, and returns err.
func (c *Client) finish(span trace.Span, in metricInput, err error) error {
	if in.status != 0 {
		span.SetAttributes(attribute.Int("http.response.status_code", in.status))
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.logger.Debug("backend call failed", "op", in.op, "method", in.method, "status", in.status, "error", err)
	}
	metrics.EmitAPIRequest(c.metrics, metrics.APIRequestMetric{
		Op:       in.op,
		Method:   in.method,
		Status:   in.status,
		Duration: time.Since(in.started),
		Err:      err,
	})
	return err
}

func resultOf(err error) string {
	if err != nil {
		return metrics.ResultError
	}
	return metrics.ResultSuccess
}
