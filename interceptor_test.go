package humble

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/broady/humble/testutil"
)

type user struct {
	Name  string
	Admin bool
}

func authInterceptor(ctx context.Context, r *http.Request) (user, error) {
	switch r.Header.Get("Authorization") {
	case "":
		return user{}, fmt.Errorf("%w: missing token", ErrAuthentication)
	case "admin":
		return user{Name: "root", Admin: true}, nil
	case "broken":
		return user{}, errors.New("token store offline")
	default:
		return user{Name: "guest"}, nil
	}
}

func newAuthHandler(t *testing.T) http.Handler {
	t.Helper()
	svc := NewService[user](pointsDef()).
		WithInterceptor(authInterceptor).
		Handle("delete_points_id", func(ctx context.Context, u user, call *Call) (any, error) {
			if !u.Admin {
				return nil, fmt.Errorf("%w: %s may not delete", ErrAuthorization, u.Name)
			}
			return nil, nil
		}).
		Handle("get_points_id", func(ctx context.Context, u user, call *Call) (any, error) {
			return map[string]any{"x": call.Param("id"), "y": len(u.Name)}, nil
		})
	return NewBuilder().WithLogger(discardLogger()).Add("", svc).Handler()
}

func TestInterceptor_ValueReachesHandler(t *testing.T) {
	w := testutil.NewRequest().
		GET("/points/4").
		WithHeader("Authorization", "admin").
		Do(newAuthHandler(t))

	testutil.AssertStatus(t, w, http.StatusOK)
	testutil.AssertJSONResponse(t, w, `{"x": 4, "y": 4}`)
}

func TestInterceptor_Rejections(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		token      string
		wantStatus int
		wantCode   ErrorCode
	}{
		{"authentication", http.MethodGet, "", http.StatusUnauthorized, CodeAuthentication},
		{"authorization", http.MethodDelete, "guest", http.StatusForbidden, CodeAuthorization},
		{"interceptor failure", http.MethodGet, "broken", http.StatusInternalServerError, CodeInternal},
	}
	h := newAuthHandler(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testutil.NewRequest().Method(tt.method, "/points/1")
			if tt.token != "" {
				req.WithHeader("Authorization", tt.token)
			}
			w := req.Do(h)
			testutil.AssertStatus(t, w, tt.wantStatus)
			errResp := testutil.AssertJSONError(t, w, string(tt.wantCode))
			if errResp.Kind != string(KindService) {
				t.Errorf("expected kind service, got %s", errResp.Kind)
			}
		})
	}
}

func TestInterceptor_RunsAfterDecoding(t *testing.T) {
	called := false
	svc := NewService[user](pointsDef()).
		WithInterceptor(func(ctx context.Context, r *http.Request) (user, error) {
			called = true
			return user{}, ErrAuthentication
		})
	h := NewBuilder().WithLogger(discardLogger()).Add("", svc).Handler()

	w := testutil.NewRequest().GET("/points/notanumber").Do(h)
	testutil.AssertJSONError(t, w, string(CodeRouteParamInvalid))
	if called {
		t.Error("interceptor ran for a request that failed to decode")
	}
}

func TestInterceptor_DefaultYieldsZeroValue(t *testing.T) {
	var got *user
	svc := NewService[*user](pointsDef()).
		WithInterceptor(nil).
		Handle("delete_points_id", func(ctx context.Context, u *user, call *Call) (any, error) {
			got = u
			return nil, nil
		})
	h := NewBuilder().WithLogger(discardLogger()).Add("", svc).Handler()

	w := testutil.NewRequest().DELETE("/points/1").Do(h)
	testutil.AssertStatus(t, w, http.StatusOK)
	if got != nil {
		t.Errorf("expected nil context value, got %+v", got)
	}
}
