package oidc

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeIdP is a minimal OIDC issuer: discovery, JWKS and a token endpoint
// that signs RS256 ID tokens with an in-memory key.
type fakeIdP struct {
	t      *testing.T
	server *httptest.Server
	key    *rsa.PrivateKey

	mu            sync.Mutex
	nonce         string
	subject       string
	lastVerifier  string
	refreshCalls  int
	revoked       bool
	endSession    bool
	accessCounter int
}

func newFakeIdP(t *testing.T) *fakeIdP {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	f := &fakeIdP{t: t, key: key, subject: "sub-123", endSession: true}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /.well-known/openid-configuration", f.discovery)
	mux.HandleFunc("GET /keys", f.jwks)
	mux.HandleFunc("POST /token", f.token)
	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeIdP) issuer() string { return f.server.URL }

func (f *fakeIdP) discovery(w http.ResponseWriter, _ *http.Request) {
	doc := DiscoveryDocument{
		Issuer:                f.issuer(),
		AuthorizationEndpoint: f.issuer() + "/authorize",
		TokenEndpoint:         f.issuer() + "/token",
		JwksURI:               f.issuer() + "/keys",
		SigningAlgs:           []string{"RS256"},
	}
	f.mu.Lock()
	if f.endSession {
		doc.EndSessionEndpoint = f.issuer() + "/logout"
	}
	f.mu.Unlock()
	writeJSON(w, http.StatusOK, doc)
}

func (f *fakeIdP) jwks(w http.ResponseWriter, _ *http.Request) {
	pub := f.key.PublicKey
	writeJSON(w, http.StatusOK, map[string]any{
		"keys": []map[string]string{{
			"kty": "RSA",
			"kid": "test-key",
			"alg": "RS256",
			"use": "sig",
			"n":   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
			"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
		}},
	})
}

func (f *fakeIdP) token(w http.ResponseWriter, r *http.Request) {
	require.NoError(f.t, r.ParseForm())
	f.mu.Lock()
	defer f.mu.Unlock()

	f.accessCounter++
	access := "access-" + string(rune('a'+f.accessCounter-1))

	switch r.PostForm.Get("grant_type") {
	case "authorization_code":
		f.lastVerifier = r.PostForm.Get("code_verifier")
		writeJSON(w, http.StatusOK, map[string]any{
			"access_token":  access,
			"token_type":    "Bearer",
			"refresh_token": "refresh-1",
			"expires_in":    3600,
			"id_token":      f.signIDToken(),
		})
	case "refresh_token":
		f.refreshCalls++
		if f.revoked {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_grant"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"access_token": access,
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unsupported_grant_type"})
	}
}

func (f *fakeIdP) signIDToken() string {
	now := time.Now()
	header, _ := json.Marshal(map[string]string{"alg": "RS256", "typ": "JWT", "kid": "test-key"})
	payload, _ := json.Marshal(map[string]any{
		"iss":                f.issuer(),
		"aud":                "test-client",
		"sub":                f.subject,
		"oid":                "oid-456",
		"name":               "Ada Lovelace",
		"preferred_username": "ada@example.com",
		"nonce":              f.nonce,
		"iat":                now.Unix(),
		"exp":                now.Add(time.Hour).Unix(),
	})
	signingInput := base64.RawURLEncoding.EncodeToString(header) + "." + base64.RawURLEncoding.EncodeToString(payload)
	digest := sha256.Sum256([]byte(signingInput))
	sig, err := rsa.SignPKCS1v15(rand.Reader, f.key, crypto.SHA256, digest[:])
	require.NoError(f.t, err)
	return signingInput + "." + base64.RawURLEncoding.EncodeToString(sig)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (f *fakeIdP) update(fn func(f *fakeIdP)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

func (f *fakeIdP) snapshot() (verifier string, refreshCalls int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastVerifier, f.refreshCalls
}
