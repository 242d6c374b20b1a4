package workflow

import "time"

// Event is one progress notification. Events are emitted in the exact
// order the workflow transitions occur and are never read back; a sink
// observing them sequentially reconstructs the run history.
type Event struct {
	Name      string
	Timestamp time.Time
	Payload   map[string]any
}

// Sink receives events fire-and-forget. It must not block; anything it
// panics with is the caller's problem.
type Sink func(Event)

// emitter wraps an optional sink with timestamping.
type emitter struct {
	sink Sink
}

func (e emitter) emit(name string, payload map[string]any) {
	if e.sink == nil {
		return
	}
	if payload == nil {
		payload = map[string]any{}
	}
	e.sink(Event{Name: name, Timestamp: time.Now().UTC(), Payload: payload})
}
