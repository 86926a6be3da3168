//go:build integration

package integration

import (
	"net/http"
	"testing"
)

// Probe endpoints stay reachable without an API key.
func TestHealth_ProbesAreOpen(t *testing.T) {
	for _, path := range []string{"/livez", "/readyz"} {
		resp := doGet(t, path, "")
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			t.Fatalf("GET %s: status %d", path, resp.StatusCode)
		}

		probe := decodeJSON[healthResponse](t, resp)
		resp.Body.Close()
		if probe.Status != "ok" {
			t.Errorf("GET %s: status %q, want ok", path, probe.Status)
		}
	}
}

func TestMiddleware_RequestID(t *testing.T) {
	resp := doGet(t, "/api/v1/products", testAPIKey)
	defer resp.Body.Close()

	if resp.Header.Get("X-Request-Id") == "" {
		t.Error("response missing X-Request-Id header")
	}
}

// A caller-provided request id is echoed back untouched.
func TestMiddleware_RequestIDEcho(t *testing.T) {
	req, err := http.NewRequest(http.MethodGet, baseURL+"/api/v1/products", nil)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("api_key", testAPIKey)
	req.Header.Set("X-Request-Id", "itest-trace-42")

	resp, err := httpClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if got := resp.Header.Get("X-Request-Id"); got != "itest-trace-42" {
		t.Errorf("X-Request-Id: got %q, want itest-trace-42", got)
	}
}

func TestMiddleware_RateLimitHeaders(t *testing.T) {
	resp := doGet(t, "/api/v1/products", testAPIKey)
	defer resp.Body.Close()

	if resp.Header.Get("X-RateLimit-Limit") == "" {
		t.Error("response missing X-RateLimit-Limit header")
	}
	if resp.Header.Get("X-RateLimit-Remaining") == "" {
		t.Error("response missing X-RateLimit-Remaining header")
	}
}

func TestMiddleware_CORSPreflight(t *testing.T) {
	req, err := http.NewRequest(http.MethodOptions, baseURL+"/api/v1/products", nil)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Origin", "https://tienda.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)

	resp, err := httpClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("preflight: status %d, want 204", resp.StatusCode)
	}
	if resp.Header.Get("Access-Control-Allow-Origin") == "" {
		t.Error("preflight missing Access-Control-Allow-Origin")
	}
}
