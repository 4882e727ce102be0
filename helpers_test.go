package humble

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/broady/humble/humblegen"
	"github.com/broady/humble/humblegen/contract"
)

var points = humblegen.MustCompile("points.humble", []byte(`
struct Point { x: i32, y: i32 }
struct PointQuery { limit: option[u32], tags: list[str] }
enum PointError { NotFound, TooFar { max: f64 } }

service Points {
    GET /points/{id: i32} -> Point,
    GET /points?{PointQuery} -> list[Point],
    POST /points -> Point -> result[Point][PointError],
    PUT /points/{id: i32} -> Point -> (),
    DELETE /points/{id: i32} -> (),
    GET /items/{name: str} -> str,
    GET /items/latest -> str,
}
`))

func pointsDef() *contract.Service {
	return points.Service("Points")
}

// staticHandler returns v for every call.
func staticHandler[C any](v any) HandlerFunc[C] {
	return func(context.Context, C, *Call) (any, error) {
		return v, nil
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type observed struct {
	service, route, result string
}

// recordingObserver keeps every event it receives.
type recordingObserver struct {
	mu     sync.Mutex
	events []observed
}

func (o *recordingObserver) Request(service, route, result string, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, observed{service, route, result})
}

func (o *recordingObserver) last() observed {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.events) == 0 {
		return observed{}
	}
	return o.events[len(o.events)-1]
}
