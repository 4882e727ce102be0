package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/broady/humble"
	"github.com/broady/humble/humblegen"
	"github.com/broady/humble/testutil"
)

func decodeLogLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log output is not one JSON line: %v\n%s", err, buf.String())
	}
	return entry
}

func TestLogging_Success(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Request-ID", "abc")
		w.Write([]byte("{}"))
	})

	req := httptest.NewRequest("GET", "/api/points/1", nil)
	w := httptest.NewRecorder()
	Logging(logger)(handler).ServeHTTP(w, req)

	entry := decodeLogLine(t, &buf)
	if entry["msg"] != "request completed" {
		t.Errorf("unexpected message %v", entry["msg"])
	}
	if entry["level"] != "INFO" {
		t.Errorf("expected INFO, got %v", entry["level"])
	}
	if entry["method"] != "GET" || entry["path"] != "/api/points/1" {
		t.Errorf("unexpected method/path %v %v", entry["method"], entry["path"])
	}
	if entry["status"] != float64(200) {
		t.Errorf("expected status 200, got %v", entry["status"])
	}
	if entry["request_id"] != "abc" {
		t.Errorf("expected request_id abc, got %v", entry["request_id"])
	}
	if _, ok := entry["duration"]; !ok {
		t.Error("expected duration in log entry")
	}
}

func TestLogging_Levels(t *testing.T) {
	tests := []struct {
		status int
		level  string
	}{
		{http.StatusOK, "INFO"},
		{http.StatusNotFound, "WARN"},
		{http.StatusNotImplemented, "ERROR"},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			var buf bytes.Buffer
			logger := slog.New(slog.NewJSONHandler(&buf, nil))
			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			})

			Logging(logger)(handler).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))

			entry := decodeLogLine(t, &buf)
			if entry["level"] != tt.level {
				t.Errorf("expected %s, got %v", tt.level, entry["level"])
			}
			if entry["status"] != float64(tt.status) {
				t.Errorf("expected status %d, got %v", tt.status, entry["status"])
			}
		})
	}
}

func TestLogging_NilLogger(t *testing.T) {
	// Should not panic
	Logging(nil)(okHandler()).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))
}

func TestLogging_WithBuilder(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelError}))

	c := humblegen.MustCompile("", []byte(`service Health { GET /ping -> str }`))
	h := humble.NewBuilder().
		WithLogger(slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil))).
		WithMiddleware(Logging(logger)).
		Add("", humble.NewService[struct{}](c.Service("Health"))).
		Handler()

	w := testutil.NewRequest().GET("/ping").Do(h)
	testutil.AssertStatus(t, w, http.StatusNotImplemented)
	id := testutil.AssertRequestID(t, w)

	entry := decodeLogLine(t, &buf)
	if entry["request_id"] != id {
		t.Errorf("expected request_id %s, got %v", id, entry["request_id"])
	}
}
