package humble

import "time"

// ResultOK is the result label of a request that succeeded.
const ResultOK = "ok"

// Observer receives one event per dispatched request. Service and route are
// empty when routing failed before they were known. Result is ResultOK or the
// error code of the response.
type Observer interface {
	Request(service, route, result string, d time.Duration)
}

type noopObserver struct{}

func (noopObserver) Request(string, string, string, time.Duration) {}

// NoopObserver discards all events.
var NoopObserver Observer = noopObserver{}
