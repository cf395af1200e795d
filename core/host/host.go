// Package host runs contracts. Each contract lives at an address, receives
// positional inputs and sees the verified identity of its caller. A top-level
// call and every nested call it makes run inside storage transactions, so a
// failing invocation leaves no trace in the database.
package host

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"lendcore/core/events"
	"lendcore/crypto"
	"lendcore/observability/metrics"
	"lendcore/storage"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	ErrContractNotFound  = errors.New("host: contract not found")
	ErrContractExists    = errors.New("host: contract already registered")
	ErrCallDepthExceeded = errors.New("host: call depth exceeded")
	ErrUnknownMethod     = errors.New("host: unknown method")
)

// ConstructorMethod is invoked once when a contract is deployed.
const ConstructorMethod = "constructor"

// DefaultMaxDepth bounds nested calls.
const DefaultMaxDepth = 8

var sequenceKey = []byte("host/sequence")

// Contract is the code bound to an address.
type Contract interface {
	Invoke(env *Env, method string, input []byte) ([]byte, error)
}

// Kinded contracts report a short kind label used for metrics and tracing.
type Kinded interface {
	Kind() string
}

// Option configures a Host.
type Option func(*Host)

func WithClock(c Clock) Option {
	return func(h *Host) {
		if c != nil {
			h.clock = c
		}
	}
}

func WithEmitter(e events.Emitter) Option {
	return func(h *Host) {
		if e != nil {
			h.emitter = e
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(h *Host) {
		if l != nil {
			h.logger = l
		}
	}
}

func WithMaxDepth(depth int) Option {
	return func(h *Host) {
		if depth > 0 {
			h.maxDepth = depth
		}
	}
}

// Host owns the contract registry and serialises invocations against the
// database: one invocation runs to completion before the next starts.
type Host struct {
	mu        sync.Mutex
	db        storage.Database
	clock     Clock
	emitter   events.Emitter
	logger    *slog.Logger
	tracer    trace.Tracer
	metrics   *metrics.HostMetrics
	maxDepth  int
	contracts map[string]Contract
}

// New creates a host over db.
func New(db storage.Database, opts ...Option) *Host {
	h := &Host{
		db:        db,
		clock:     SystemClock{},
		emitter:   events.NoopEmitter{},
		logger:    slog.Default(),
		tracer:    otel.Tracer("lendcore/host"),
		metrics:   metrics.Host(),
		maxDepth:  DefaultMaxDepth,
		contracts: make(map[string]Contract),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

// Register binds code to addr without running its constructor. Used when
// reopening a database whose contracts were deployed earlier.
func (h *Host) Register(addr crypto.Address, c Contract) error {
	if c == nil {
		return fmt.Errorf("host: nil contract for %s", addr)
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	key := addr.String()
	if _, exists := h.contracts[key]; exists {
		return fmt.Errorf("%w: %s", ErrContractExists, key)
	}
	h.contracts[key] = c
	return nil
}

// Deploy registers c at addr and runs its constructor with deployer as the
// caller. A failed constructor unregisters the contract.
func (h *Host) Deploy(ctx context.Context, deployer, addr crypto.Address, c Contract, ctorArgs []byte) error {
	if err := h.Register(addr, c); err != nil {
		return err
	}
	if _, err := h.Call(ctx, deployer, addr, ConstructorMethod, ctorArgs); err != nil {
		h.mu.Lock()
		delete(h.contracts, addr.String())
		h.mu.Unlock()
		return fmt.Errorf("deploy %s: %w", addr, err)
	}
	return nil
}

// Contracts lists registered addresses in lexical order.
func (h *Host) Contracts() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, 0, len(h.contracts))
	for k := range h.contracts {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Sequence returns the number of committed invocations.
func (h *Host) Sequence() (uint64, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return readSequence(h.db)
}

// Call executes method on target as caller and commits on success.
func (h *Host) Call(ctx context.Context, caller, target crypto.Address, method string, input []byte) ([]byte, error) {
	return h.execute(ctx, caller, target, method, input, true)
}

// Query executes method on target and always discards its writes.
func (h *Host) Query(ctx context.Context, caller, target crypto.Address, method string, input []byte) ([]byte, error) {
	return h.execute(ctx, caller, target, method, input, false)
}

func (h *Host) lookup(addr crypto.Address) (Contract, error) {
	c, ok := h.contracts[addr.String()]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrContractNotFound, addr)
	}
	return c, nil
}

func (h *Host) execute(ctx context.Context, caller, target crypto.Address, method string, input []byte, commit bool) ([]byte, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	start := time.Now()
	defer func() { h.metrics.ObserveInvocation(method, time.Since(start)) }()

	root := &Env{
		ctx:    ctx,
		host:   h,
		db:     h.db,
		self:   caller,
		origin: caller,
		now:    h.clock.NowMillis(),
		depth:  -1,
	}
	out, tx, emitted, err := root.frame(target, method, input)
	if err != nil {
		h.metrics.RecordRollback("error")
		h.logger.Debug("invocation reverted",
			slog.String("caller", caller.String()),
			slog.String("target", target.String()),
			slog.String("method", method),
			slog.String("error", err.Error()),
		)
		return nil, err
	}
	if !commit {
		tx.Abort()
		h.metrics.RecordRollback("query")
		return out, nil
	}

	seq, err := readSequence(tx)
	if err != nil {
		tx.Abort()
		return nil, err
	}
	seq++
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], seq)
	if err := tx.Put(sequenceKey, buf[:]); err != nil {
		tx.Abort()
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("host: commit: %w", err)
	}
	h.metrics.SetSequence(seq)
	h.publish(seq, target, method, root.now, emitted)
	return out, nil
}

func (h *Host) publish(seq uint64, target crypto.Address, method string, now uint64, emitted []emittedEvent) {
	for i, e := range emitted {
		payload := events.Flatten(e.event)
		h.metrics.RecordEvent(payload.Type)
		h.emitter.Emit(events.Committed{
			Seq:       seq,
			Index:     i,
			Contract:  e.contract,
			Method:    method,
			Timestamp: now,
			Payload:   payload,
		})
	}
}

func readSequence(db storage.Database) (uint64, error) {
	raw, err := db.Get(sequenceKey)
	if errors.Is(err, storage.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if len(raw) != 8 {
		return 0, fmt.Errorf("host: corrupt sequence value")
	}
	return binary.BigEndian.Uint64(raw), nil
}

func kindOf(c Contract) string {
	if k, ok := c.(Kinded); ok {
		return k.Kind()
	}
	return "contract"
}

func spanStatus(span trace.Span, err error) {
	if err == nil {
		span.SetStatus(codes.Ok, "")
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

func frameAttributes(kind string, caller, target crypto.Address, method string, depth int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("contract.kind", kind),
		attribute.String("contract.address", target.String()),
		attribute.String("contract.method", method),
		attribute.String("contract.caller", caller.String()),
		attribute.Int("contract.depth", depth),
	}
}

// UnknownMethod builds the error contracts return for unsupported methods.
func UnknownMethod(method string) error {
	return fmt.Errorf("%w: %q", ErrUnknownMethod, method)
}
