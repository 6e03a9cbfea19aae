package message

import (
	"context"
	"log/slog"
	"sync"
)

// Broadcast is the target that reaches every server.
const Broadcast = "*"

// Handler handles a packet received from server source.
type Handler func(ctx context.Context, source string, p Packet)

// Bus sends packets to other servers and dispatches the ones received.
// Broadcasts sent by a server are not delivered back to it.
type Bus interface {
	// Server returns the name this server receives targeted packets under.
	Server() string
	// SendMessage sends p to the server named target, or to every server if
	// target is Broadcast.
	SendMessage(ctx context.Context, p Packet, target string) error
	// Subscribe registers h for packets of kind. The returned function removes
	// it again.
	Subscribe(kind Kind, h Handler) (unsubscribe func())
	// Run receives packets until ctx is cancelled or the bus is closed.
	Run(ctx context.Context) error
	// Close stops the bus.
	Close() error
}

// dispatcher holds the handlers of a Bus.
type dispatcher struct {
	log *slog.Logger

	mu       sync.RWMutex
	next     int
	handlers map[Kind]map[int]Handler
}

func newDispatcher(log *slog.Logger) *dispatcher {
	return &dispatcher{log: log, handlers: make(map[Kind]map[int]Handler)}
}

func (d *dispatcher) subscribe(kind Kind, h Handler) func() {
	if h == nil {
		return func() {}
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	id := d.next
	d.next++
	if d.handlers[kind] == nil {
		d.handlers[kind] = make(map[int]Handler)
	}
	d.handlers[kind][id] = h

	var once sync.Once
	return func() {
		once.Do(func() {
			d.mu.Lock()
			defer d.mu.Unlock()
			delete(d.handlers[kind], id)
		})
	}
}

func (d *dispatcher) dispatch(ctx context.Context, source string, p Packet) {
	d.mu.RLock()
	hs := make([]Handler, 0, len(d.handlers[p.Kind()]))
	for _, h := range d.handlers[p.Kind()] {
		hs = append(hs, h)
	}
	d.mu.RUnlock()

	for _, h := range hs {
		d.call(ctx, source, p, h)
	}
}

func (d *dispatcher) call(ctx context.Context, source string, p Packet, h Handler) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error("Packet handler panicked.", "kind", p.Kind(), "source", source, "panic", r)
		}
	}()
	h(ctx, source, p)
}
