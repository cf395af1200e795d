package events

import (
	"log/slog"
	"sync"
)

// Multi fans events out to several emitters in order.
type Multi []Emitter

func (m Multi) Emit(evt Event) {
	for _, e := range m {
		if e != nil {
			e.Emit(evt)
		}
	}
}

// LogEmitter writes every event as a structured log line.
type LogEmitter struct {
	Logger *slog.Logger
}

func (l LogEmitter) Emit(evt Event) {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	attrs := []any{slog.String("event", evt.EventType())}
	if c, ok := evt.(Committed); ok {
		attrs = append(attrs,
			slog.Uint64("seq", c.Seq),
			slog.Int("index", c.Index),
			slog.String("contract", c.Contract),
		)
		if c.Payload != nil {
			keys := c.Payload.Keys()
			group := make([]any, 0, len(keys))
			for _, k := range keys {
				group = append(group, slog.String(k, c.Payload.Attributes[k]))
			}
			attrs = append(attrs, slog.Group("attributes", group...))
		}
	}
	logger.Info("contract event", attrs...)
}

// Broadcaster hands committed events to subscribers. Slow subscribers lose
// events rather than blocking the host.
type Broadcaster struct {
	mu     sync.Mutex
	next   int
	subs   map[int]chan Committed
	buffer int
}

// NewBroadcaster returns a broadcaster whose subscriber channels hold buffer
// events.
func NewBroadcaster(buffer int) *Broadcaster {
	if buffer <= 0 {
		buffer = 64
	}
	return &Broadcaster{subs: make(map[int]chan Committed), buffer: buffer}
}

// Subscribe registers a new listener. The returned cancel function closes
// the channel.
func (b *Broadcaster) Subscribe() (<-chan Committed, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.next
	b.next++
	ch := make(chan Committed, b.buffer)
	b.subs[id] = ch
	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if sub, ok := b.subs[id]; ok {
				delete(b.subs, id)
				close(sub)
			}
		})
	}
}

// Subscribers reports the number of open subscriptions.
func (b *Broadcaster) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

func (b *Broadcaster) Emit(evt Event) {
	c, ok := evt.(Committed)
	if !ok {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- c:
		default:
		}
	}
}
