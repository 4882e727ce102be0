package humble

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/broady/humble/testutil"
)

func TestRequestFromContext(t *testing.T) {
	t.Run("with request in context", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/test", nil)
		w := httptest.NewRecorder()
		ctx := withRequest(context.Background(), w, req, "abc")

		if RequestFromContext(ctx) != req {
			t.Error("expected request to be returned from context")
		}
		if RequestIDFromContext(ctx) != "abc" {
			t.Errorf("expected request id abc, got %q", RequestIDFromContext(ctx))
		}
	})

	t.Run("without request in context", func(t *testing.T) {
		ctx := context.Background()
		if RequestFromContext(ctx) != nil {
			t.Error("expected nil when request not in context")
		}
		if RequestIDFromContext(ctx) != "" {
			t.Error("expected empty request id")
		}
	})
}

func TestSetHeader(t *testing.T) {
	t.Run("with writer in context", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/test", nil)
		w := httptest.NewRecorder()
		ctx := withRequest(context.Background(), w, req, "abc")

		SetHeader(ctx, "X-Custom-Header", "custom-value")

		if w.Header().Get("X-Custom-Header") != "custom-value" {
			t.Errorf("expected header to be set, got %s", w.Header().Get("X-Custom-Header"))
		}
	})

	t.Run("without writer in context", func(t *testing.T) {
		// Should not panic
		SetHeader(context.Background(), "X-Custom-Header", "custom-value")
	})
}

func TestEndpointFromContext(t *testing.T) {
	if _, ok := EndpointFromContext(context.Background()); ok {
		t.Error("expected no endpoint in empty context")
	}

	var got EndpointInfo
	var gotID string
	svc := NewService[struct{}](pointsDef()).
		Handle("delete_points_id", func(ctx context.Context, _ struct{}, _ *Call) (any, error) {
			got, _ = EndpointFromContext(ctx)
			gotID = RequestIDFromContext(ctx)
			SetHeader(ctx, "X-Deleted", "yes")
			return nil, nil
		})
	h := NewBuilder().WithLogger(discardLogger()).Add("/api", svc).Handler()

	w := testutil.NewRequest().DELETE("/api/points/9").Do(h)
	testutil.AssertStatus(t, w, http.StatusOK)
	testutil.AssertHeader(t, w, "X-Deleted", "yes")

	want := EndpointInfo{Service: "Points", Route: "delete_points_id", Method: "DELETE", Path: "/api/points/9"}
	if got != want {
		t.Errorf("expected %+v, got %+v", want, got)
	}
	if id := testutil.AssertRequestID(t, w); id != gotID {
		t.Errorf("context request id %q differs from header %q", gotID, id)
	}
}
