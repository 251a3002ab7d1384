package metrics

import "time"

// HTTPMetrics provides observability for the HTTP adapters.
//
// Implementations collect request counts by outcome, latency, in-flight
// requests and bytes served. The interface is optional: an adapter given nil
// falls back to NewNoopHTTPMetrics.
//
// One instance is shared by every adapter; the adapter name is a label.
type HTTPMetrics interface {
	// RecordRequest records a finished request.
	//
	// Parameters:
	//   - adapter: adapter name (e.g. "update", "auth")
	//   - outcome: "ok", "forbidden", "not_found", "rejected", "error", ...
	//   - duration: time from request start to the last byte written
	RecordRequest(adapter string, outcome string, duration time.Duration)

	// RecordRequestStart increments the in-flight gauge.
	RecordRequestStart(adapter string)

	// RecordRequestEnd decrements the in-flight gauge.
	RecordRequestEnd(adapter string)

	// RecordBytesServed adds the number of body bytes written to a client.
	RecordBytesServed(adapter string, bytes int64)
}

// NewNoopHTTPMetrics returns an HTTPMetrics that discards everything.
func NewNoopHTTPMetrics() HTTPMetrics {
	return noopHTTPMetrics{}
}

type noopHTTPMetrics struct{}

func (noopHTTPMetrics) RecordRequest(adapter string, outcome string, duration time.Duration) {}
func (noopHTTPMetrics) RecordRequestStart(adapter string)                                   {}
func (noopHTTPMetrics) RecordRequestEnd(adapter string)                                     {}
func (noopHTTPMetrics) RecordBytesServed(adapter string, bytes int64)                       {}
