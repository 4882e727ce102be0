package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func serveCORS(cfg *CORSConfig, next http.Handler, method, origin string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "/api/points/1", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	w := httptest.NewRecorder()
	CORS(cfg)(next).ServeHTTP(w, req)
	return w
}

func TestCORS_NilConfig(t *testing.T) {
	w := serveCORS(nil, okHandler(), "GET", "http://example.com")

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("expected default Access-Control-Allow-Origin *, got %s", got)
	}
	if got := w.Header().Get("Access-Control-Expose-Headers"); got != "Request-ID" {
		t.Errorf("expected Request-ID to be exposed, got %q", got)
	}
	if w.Code != http.StatusOK {
		t.Errorf("expected handler status, got %d", w.Code)
	}
}

func TestCORS_Preflight(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be called for preflight request")
	})

	w := serveCORS(nil, handler, "OPTIONS", "http://example.com")

	if w.Code != http.StatusNoContent {
		t.Errorf("expected status %d, got %d", http.StatusNoContent, w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Methods"); got != "GET, POST, PUT, PATCH, DELETE, OPTIONS" {
		t.Errorf("unexpected Access-Control-Allow-Methods %q", got)
	}
	if got := w.Header().Get("Access-Control-Allow-Headers"); got != "Content-Type, Authorization" {
		t.Errorf("unexpected Access-Control-Allow-Headers %q", got)
	}
	if w.Header().Get("Access-Control-Max-Age") != "" {
		t.Error("expected no Access-Control-Max-Age by default")
	}
}

func TestCORS_SpecificOrigin(t *testing.T) {
	cfg := &CORSConfig{AllowOrigins: []string{"http://example.com", "http://other.com"}}

	tests := []struct {
		name   string
		origin string
		want   string
	}{
		{"allowed", "http://example.com", "http://example.com"},
		{"second allowed", "http://other.com", "http://other.com"},
		{"not allowed", "http://evil.com", ""},
		{"no origin", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serveCORS(cfg, okHandler(), "GET", tt.origin)
			if got := w.Header().Get("Access-Control-Allow-Origin"); got != tt.want {
				t.Errorf("expected origin %q, got %q", tt.want, got)
			}
			if tt.want == "" && w.Header().Get("Access-Control-Expose-Headers") != "" {
				t.Error("expose headers set for a rejected origin")
			}
			if tt.want != "" && w.Header().Get("Vary") != "Origin" {
				t.Errorf("expected Vary: Origin, got %q", w.Header().Get("Vary"))
			}
		})
	}
}

func TestCORS_WildcardWithCredentials(t *testing.T) {
	cfg := &CORSConfig{AllowOrigins: []string{"*"}, AllowCredentials: true}

	tests := []struct {
		name   string
		method string
		origin string
		want   string
	}{
		{"with origin header", "GET", "http://example.com", "http://example.com"},
		{"different origin", "GET", "https://another-domain.com", "https://another-domain.com"},
		{"no origin header", "GET", "", "*"},
		{"preflight with origin", "OPTIONS", "http://preflight-test.com", "http://preflight-test.com"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serveCORS(cfg, okHandler(), tt.method, tt.origin)
			if got := w.Header().Get("Access-Control-Allow-Origin"); got != tt.want {
				t.Errorf("expected origin %s, got %s", tt.want, got)
			}
			if got := w.Header().Get("Access-Control-Allow-Credentials"); got != "true" {
				t.Errorf("expected credentials 'true', got %s", got)
			}
		})
	}
}

func TestCORS_CustomConfig(t *testing.T) {
	cfg := &CORSConfig{
		AllowMethods:  []string{"GET"},
		AllowHeaders:  []string{"X-Token"},
		ExposeHeaders: []string{"Request-ID", "X-Total"},
		MaxAge:        600,
	}
	w := serveCORS(cfg, okHandler(), "OPTIONS", "http://example.com")

	want := map[string]string{
		"Access-Control-Allow-Methods":  "GET",
		"Access-Control-Allow-Headers":  "X-Token",
		"Access-Control-Expose-Headers": "Request-ID, X-Total",
		"Access-Control-Max-Age":        "600",
	}
	for k, v := range want {
		if got := w.Header().Get(k); got != v {
			t.Errorf("expected %s %q, got %q", k, v, got)
		}
	}
}
