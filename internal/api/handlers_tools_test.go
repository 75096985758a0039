package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"
)

type generateData struct {
	Password    string `json:"password"`
	Strength    string `json:"strength"`
	EntropyBits int    `json:"entropy_bits"`
}

func TestGeneratePasswordEndpoint(t *testing.T) {
	srv := newTestServer(t, Config{})

	status, env := doRequest(t, srv, http.MethodPost, "/v1/tools/password/generate", "", map[string]any{})
	if status != http.StatusOK {
		t.Fatalf("status = %d, env = %+v", status, env)
	}
	var data generateData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if len(data.Password) != 16 {
		t.Fatalf("default length = %d, want 16", len(data.Password))
	}
	if data.Strength == "" || data.EntropyBits == 0 {
		t.Fatalf("data = %+v", data)
	}
}

func TestGeneratePasswordClassToggles(t *testing.T) {
	srv := newTestServer(t, Config{})

	status, env := doRequest(t, srv, http.MethodPost, "/v1/tools/password/generate", "", map[string]any{
		"length":  64,
		"numbers": false,
		"symbols": false,
	})
	if status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	var data generateData
	_ = json.Unmarshal(env.Data, &data)
	if i := strings.IndexAny(data.Password, "0123456789!@#$%^&*()_+-=[]{}|;:,.<>?"); i >= 0 {
		t.Fatalf("password contains excluded char %q", data.Password[i])
	}
}

func TestGeneratePasswordEntropyContract(t *testing.T) {
	srv := newTestServer(t, Config{})

	status, env := doRequest(t, srv, http.MethodPost, "/v1/tools/password/generate", "", map[string]any{
		"length":  20,
		"symbols": false,
	})
	if status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	var data generateData
	_ = json.Unmarshal(env.Data, &data)
	if data.EntropyBits != 119 {
		t.Fatalf("entropy_bits = %d, want 119", data.EntropyBits)
	}
	if data.Strength != "strong" {
		t.Fatalf("strength = %q, want strong", data.Strength)
	}
}

func TestGeneratePasswordNoClasses(t *testing.T) {
	srv := newTestServer(t, Config{})

	status, env := doRequest(t, srv, http.MethodPost, "/v1/tools/password/generate", "", map[string]any{
		"lowercase": false,
		"uppercase": false,
		"numbers":   false,
		"symbols":   false,
	})
	if status != http.StatusBadRequest || env.Error == nil || env.Error.Code != codeValidation {
		t.Fatalf("status = %d, env = %+v, want VALIDATION_ERROR", status, env)
	}
}
