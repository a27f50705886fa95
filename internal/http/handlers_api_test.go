package httpx

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubBackend answers every call with status and body and counts hits.
type stubBackend struct {
	status int
	body   string
	hits   atomic.Int32

	lastAuth  atomic.Value
	lastPath  atomic.Value
	lastQuery atomic.Value
}

func (b *stubBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.hits.Add(1)
	b.lastAuth.Store(r.Header.Get("Authorization"))
	b.lastPath.Store(r.URL.Path)
	b.lastQuery.Store(r.URL.RawQuery)
	_, _ = io.Copy(io.Discard, r.Body)
	if b.body != "" {
		w.Header().Set("Content-Type", "application/json")
	}
	w.WriteHeader(b.status)
	_, _ = io.WriteString(w, b.body)
}

func newSignedInEnv(t *testing.T, backend http.Handler) *testEnv {
	t.Helper()
	env := newTestEnv(t, envOptions{Backend: backend})
	env.provider.SignIn(testProfile)
	return env
}

func TestAPIHandlers_ListCases(t *testing.T) {
	backend := &stubBackend{
		status: http.StatusOK,
		body:   `[{"case_id":"c1","name":"Payments","status":"draft","created_at":"2025-01-02T03:04:05Z","updated_at":"2025-01-02T03:04:05Z"}]`,
	}
	env := newSignedInEnv(t, backend)

	rec := env.do(apiRequest(http.MethodGet, "/api/cases", ""))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"case_id":"c1"`)
	assert.Equal(t, "Bearer "+env.provider.Token, backend.lastAuth.Load())
	assert.Equal(t, "/cases", backend.lastPath.Load())
}

func TestAPIHandlers_EmptyListIsArray(t *testing.T) {
	env := newSignedInEnv(t, &stubBackend{status: http.StatusNoContent})

	rec := env.do(apiRequest(http.MethodGet, "/api/cases", ""))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestAPIHandlers_GuestHasNoBackendAccess(t *testing.T) {
	backend := &stubBackend{status: http.StatusOK, body: `[]`}
	env := newTestEnv(t, envOptions{Backend: backend})
	env.signInAsGuest(t)

	rec := env.do(apiRequest(http.MethodGet, "/api/cases", ""))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "reauthentication_required", body["error"])
	assert.Equal(t, "/auth/login", body["login_url"])
	assert.Zero(t, backend.hits.Load())
}

func TestAPIHandlers_AnonymousIsRejectedBeforeBackend(t *testing.T) {
	backend := &stubBackend{status: http.StatusOK, body: `[]`}
	env := newTestEnv(t, envOptions{Backend: backend})

	rec := env.do(apiRequest(http.MethodGet, "/api/dashboard/kpis", ""))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "authentication_required", decodeBody(t, rec)["error"])
	assert.Zero(t, backend.hits.Load())
	assert.Zero(t, env.provider.AcquireCalls())
}

func TestAPIHandlers_BackendErrors(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantStatus  int
		wantError   string
		wantMessage string
	}{
		{
			name:       "401 asks for sign-in again",
			status:     http.StatusUnauthorized,
			wantStatus: http.StatusUnauthorized,
			wantError:  "reauthentication_required",
		},
		{
			name:       "403 asks for sign-in again",
			status:     http.StatusForbidden,
			wantStatus: http.StatusUnauthorized,
			wantError:  "reauthentication_required",
		},
		{
			name:        "backend message passes through",
			status:      http.StatusNotFound,
			body:        `{"message":"Case not found"}`,
			wantStatus:  http.StatusNotFound,
			wantError:   "api_error",
			wantMessage: "Case not found",
		},
		{
			name:        "status only",
			status:      http.StatusInternalServerError,
			wantStatus:  http.StatusInternalServerError,
			wantError:   "api_error",
			wantMessage: "API error: 500",
		},
		{
			name:       "malformed success body",
			status:     http.StatusOK,
			body:       `{"case_id":`,
			wantStatus: http.StatusBadGateway,
			wantError:  "bad_gateway",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newSignedInEnv(t, &stubBackend{status: tt.status, body: tt.body})

			rec := env.do(apiRequest(http.MethodGet, "/api/cases/c1", ""))

			assert.Equal(t, tt.wantStatus, rec.Code)
			body := decodeBody(t, rec)
			assert.Equal(t, tt.wantError, body["error"])
			if tt.wantMessage != "" {
				assert.Equal(t, tt.wantMessage, body["message"])
			}
		})
	}
}

func TestAPIHandlers_AuthFailureKeepsAccount(t *testing.T) {
	env := newSignedInEnv(t, &stubBackend{status: http.StatusUnauthorized})

	rec := env.do(apiRequest(http.MethodGet, "/api/cases", ""))
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	assert.Equal(t, true, authStatus(t, env)["isAuthenticated"])
	assert.Zero(t, env.provider.SignOutCalls())
}

func TestAPIHandlers_BackendUnavailable(t *testing.T) {
	env := newSignedInEnv(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		// Drop the connection to look like a dead backend.
		if hj, ok := w.(http.Hijacker); ok {
			if conn, _, err := hj.Hijack(); err == nil {
				_ = conn.Close()
			}
		}
	}))

	rec := env.do(apiRequest(http.MethodGet, "/api/cases", ""))

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "backend_unavailable", decodeBody(t, rec)["error"])
}

func TestAPIHandlers_CreateCase(t *testing.T) {
	t.Run("validates before calling the backend", func(t *testing.T) {
		backend := &stubBackend{status: http.StatusOK}
		env := newSignedInEnv(t, backend)

		for _, body := range []string{`{"name":"   "}`, `{"name":"` + strings.Repeat("x", 256) + `"}`, `{"title":"x"}`} {
			rec := env.do(apiRequest(http.MethodPost, "/api/cases", body))
			assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		}
		assert.Zero(t, backend.hits.Load())
	})

	t.Run("created", func(t *testing.T) {
		backend := &stubBackend{status: http.StatusOK, body: `{"case_id":"c9","name":"Payments","status":"draft"}`}
		env := newSignedInEnv(t, backend)

		rec := env.do(apiRequest(http.MethodPost, "/api/cases", `{"name":"  Payments "}`))

		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		assert.Equal(t, "c9", decodeBody(t, rec)["case_id"])
		assert.Equal(t, "name=Payments", backend.lastQuery.Load())
	})
}

func multipartUpload(t *testing.T, filename, contentType string, content []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	h := textproto.MIMEHeader{}
	h.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/cases/c1/documents", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")
	req.Header.Set(CSRFHeaderName, testCSRF)
	return req
}

func TestAPIHandlers_UploadDocument(t *testing.T) {
	t.Run("rejects non-PDF without calling the backend", func(t *testing.T) {
		backend := &stubBackend{status: http.StatusOK}
		env := newSignedInEnv(t, backend)

		rec := env.do(multipartUpload(t, "notes.txt", "text/plain", []byte("hello")))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "please upload a PDF file", decodeBody(t, rec)["message"])
		assert.Zero(t, backend.hits.Load())
	})

	t.Run("rejects an empty file", func(t *testing.T) {
		backend := &stubBackend{status: http.StatusOK}
		env := newSignedInEnv(t, backend)

		rec := env.do(multipartUpload(t, "brd.pdf", "application/pdf", nil))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Zero(t, backend.hits.Load())
	})

	t.Run("forwards a PDF", func(t *testing.T) {
		backend := &stubBackend{status: http.StatusOK, body: `{"document_id":"d1","case_id":"c1","filename":"brd.pdf","file_size":8}`}
		env := newSignedInEnv(t, backend)

		rec := env.do(multipartUpload(t, "brd.pdf", "application/pdf", []byte("%PDF-1.7")))

		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		assert.Equal(t, "d1", decodeBody(t, rec)["document_id"])
		assert.Equal(t, "/cases/c1/documents", backend.lastPath.Load())
	})

	t.Run("missing file field", func(t *testing.T) {
		env := newSignedInEnv(t, &stubBackend{status: http.StatusOK})
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		require.NoError(t, mw.WriteField("note", "x"))
		require.NoError(t, mw.Close())
		req := httptest.NewRequest(http.MethodPost, "/api/cases/c1/documents", &buf)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		req.Header.Set(CSRFHeaderName, testCSRF)

		rec := env.do(req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestAPIHandlers_Search(t *testing.T) {
	t.Run("query is required", func(t *testing.T) {
		backend := &stubBackend{status: http.StatusOK, body: `[]`}
		env := newSignedInEnv(t, backend)

		rec := env.do(apiRequest(http.MethodGet, "/api/cases/c1/search", ""))
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		rec = env.do(apiRequest(http.MethodGet, "/api/cases/c1/search?q=x&limit=-1", ""))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Zero(t, backend.hits.Load())
	})

	t.Run("limit is capped", func(t *testing.T) {
		backend := &stubBackend{status: http.StatusOK, body: `[]`}
		env := newSignedInEnv(t, backend)

		rec := env.do(apiRequest(http.MethodGet, "/api/cases/c1/search?q=fees&limit=500", ""))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, backend.lastQuery.Load(), "limit=100")
	})
}

func TestAPIHandlers_SendMessage_RequiresContent(t *testing.T) {
	backend := &stubBackend{status: http.StatusOK}
	env := newSignedInEnv(t, backend)

	rec := env.do(apiRequest(http.MethodPost, "/api/cases/c1/conversation", `{"content":""}`))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, backend.hits.Load())
}

func TestAPIHandlers_StartPipeline(t *testing.T) {
	backend := &stubBackend{status: http.StatusOK, body: `{"case_id":"c1","status":"queued","progress":0}`}
	env := newSignedInEnv(t, backend)

	rec := env.do(apiRequest(http.MethodPost, "/api/cases/c1/pipeline", ""))

	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	assert.Equal(t, "queued", decodeBody(t, rec)["status"])
}

func TestAPIHandlers_MutationsRequireCSRF(t *testing.T) {
	backend := &stubBackend{status: http.StatusOK}
	env := newSignedInEnv(t, backend)
	req := apiRequest(http.MethodPost, "/api/cases", `{"name":"x"}`)
	req.Header.Del(CSRFHeaderName)

	rec := env.do(req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Zero(t, backend.hits.Load())
}
