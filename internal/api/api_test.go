package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"voltvault/internal/store"
)

type testEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string          `json:"code"`
		Message string          `json:"message"`
		Details json.RawMessage `json:"details"`
	} `json:"error"`
	Message string `json:"message"`
}

func newTestServer(t *testing.T, cfg Config) *httptest.Server {
	t.Helper()
	a, err := New(store.NewMemory(), nil, cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	srv := httptest.NewServer(a.Routes())
	t.Cleanup(srv.Close)
	return srv
}

func doRequest(t *testing.T, srv *httptest.Server, method, path, token string, body any) (int, testEnvelope) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, srv.URL+path, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	var env testEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	return resp.StatusCode, env
}

func register(t *testing.T, srv *httptest.Server, email, hash string) {
	t.Helper()
	status, env := doRequest(t, srv, http.MethodPost, "/v1/auth/register", "", map[string]any{
		"email":                email,
		"master_password_hash": hash,
	})
	if status != http.StatusCreated || !env.Success {
		t.Fatalf("register %s: status = %d, env = %+v", email, status, env)
	}
}

func login(t *testing.T, srv *httptest.Server, email, hash string) (access, refresh string) {
	t.Helper()
	status, env := doRequest(t, srv, http.MethodPost, "/v1/auth/login", "", map[string]any{
		"email":                email,
		"master_password_hash": hash,
	})
	if status != http.StatusOK || !env.Success {
		t.Fatalf("login %s: status = %d, env = %+v", email, status, env)
	}
	var data struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("decode login data: %v", err)
	}
	return data.AccessToken, data.RefreshToken
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, Config{})
	status, env := doRequest(t, srv, http.MethodGet, "/health", "", nil)
	if status != http.StatusOK || !env.Success {
		t.Fatalf("health: status = %d, env = %+v", status, env)
	}
}

func TestUnknownRouteEnvelope(t *testing.T) {
	srv := newTestServer(t, Config{})
	status, env := doRequest(t, srv, http.MethodGet, "/v1/nope", "", nil)
	if status != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", status)
	}
	if env.Success || env.Error == nil || env.Error.Code != codeNotFound {
		t.Fatalf("envelope = %+v, want NOT_FOUND error", env)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t, Config{})
	resp, err := srv.Client().Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
}
