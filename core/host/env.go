package host

import (
	"context"
	"fmt"
	"log/slog"

	"lendcore/core/events"
	"lendcore/core/state"
	"lendcore/crypto"
	"lendcore/storage"

	"go.opentelemetry.io/otel/trace"
)

type emittedEvent struct {
	contract string
	event    events.Event
}

// Env is the view a contract has of one call frame.
type Env struct {
	ctx     context.Context
	host    *Host
	db      storage.Database
	state   *state.Manager
	self    crypto.Address
	caller  crypto.Address
	origin  crypto.Address
	method  string
	now     uint64
	depth   int
	emitted []emittedEvent
}

// Context carries the tracing span of the frame.
func (e *Env) Context() context.Context { return e.ctx }

// Self is the address of the executing contract.
func (e *Env) Self() crypto.Address { return e.self }

// Caller is the verified identity of whoever invoked this frame: the signer
// for a top-level call, the calling contract for a nested one.
func (e *Env) Caller() crypto.Address { return e.caller }

// Origin is the signer of the top-level call.
func (e *Env) Origin() crypto.Address { return e.origin }

func (e *Env) Method() string { return e.method }

// Now is the invocation timestamp in milliseconds. It is fixed for the whole
// invocation, nested frames included.
func (e *Env) Now() uint64 { return e.now }

func (e *Env) Depth() int { return e.depth }

// State is the storage namespace of the executing contract.
func (e *Env) State() *state.Manager { return e.state }

// Emit queues an event. It is published only if the invocation commits.
func (e *Env) Emit(evt events.Event) {
	if evt == nil {
		return
	}
	e.emitted = append(e.emitted, emittedEvent{contract: e.self.String(), event: evt})
}

func (e *Env) Logger() *slog.Logger {
	return e.host.logger.With(
		slog.String("contract", e.self.String()),
		slog.String("method", e.method),
	)
}

// Call invokes method on target with this contract as the caller. The callee
// runs in a nested transaction: its writes and events are kept only when it
// succeeds.
func (e *Env) Call(target crypto.Address, method string, input []byte) ([]byte, error) {
	out, tx, emitted, err := e.frame(target, method, input)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("host: merge nested frame: %w", err)
	}
	e.emitted = append(e.emitted, emitted...)
	return out, nil
}

// frame runs a child frame on top of e. The returned transaction holds the
// child's writes and is still open.
func (e *Env) frame(target crypto.Address, method string, input []byte) ([]byte, *storage.Tx, []emittedEvent, error) {
	h := e.host
	depth := e.depth + 1
	if depth > h.maxDepth {
		return nil, nil, nil, fmt.Errorf("%w: %d", ErrCallDepthExceeded, depth)
	}
	contract, err := h.lookup(target)
	if err != nil {
		return nil, nil, nil, err
	}
	kind := kindOf(contract)

	ctx, span := h.tracer.Start(e.ctx, kind+"."+method,
		trace.WithAttributes(frameAttributes(kind, e.self, target, method, depth)...))
	defer span.End()

	tx := storage.NewTx(e.db)
	child := &Env{
		ctx:    ctx,
		host:   h,
		db:     tx,
		state:  state.NewManager(tx, target.Bytes()),
		self:   target,
		caller: e.self,
		origin: e.origin,
		method: method,
		now:    e.now,
		depth:  depth,
	}
	out, err := contract.Invoke(child, method, input)
	h.metrics.ObserveFrame(kind, method, err)
	spanStatus(span, err)
	if err != nil {
		tx.Abort()
		return nil, nil, nil, err
	}
	return out, tx, child.emitted, nil
}
