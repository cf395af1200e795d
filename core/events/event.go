package events

import "lendcore/core/types"

// Event represents a structured state change emitted by a contract.
type Event interface {
	EventType() string
}

// Payload is implemented by events that can be flattened into the generic
// attribute form consumed by logs, the indexer and the websocket stream.
type Payload interface {
	Event
	Event() *types.Event
}

// Emitter broadcasts events to downstream subscribers (e.g. RPC, indexers).
type Emitter interface {
	Emit(Event)
}

// NoopEmitter is a helper that satisfies the Emitter interface while discarding
// all events. It is useful when a component wants to optionally expose events.
type NoopEmitter struct{}

// Emit implements the Emitter interface.
func (NoopEmitter) Emit(Event) {}

// Committed wraps an event produced by an invocation that was committed.
// Seq is the invocation sequence number, Index the position inside it.
type Committed struct {
	Seq       uint64
	Index     int
	Contract  string
	Method    string
	Timestamp uint64
	Payload   *types.Event
}

func (c Committed) EventType() string {
	if c.Payload == nil {
		return ""
	}
	return c.Payload.Type
}

// Flatten converts any event into its attribute form.
func Flatten(evt Event) *types.Event {
	if evt == nil {
		return nil
	}
	if p, ok := evt.(Payload); ok {
		if out := p.Event(); out != nil {
			return out
		}
	}
	return &types.Event{Type: evt.EventType(), Attributes: map[string]string{}}
}
