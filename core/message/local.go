package message

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// Network connects Local buses within a single process.
type Network struct {
	mu    sync.RWMutex
	buses map[string]*Local
}

// NewNetwork returns an empty Network.
func NewNetwork() *Network {
	return &Network{buses: make(map[string]*Local)}
}

// Join returns a Local bus for server. Joining twice with the same name
// replaces the previous bus.
func (n *Network) Join(server string, log *slog.Logger) *Local {
	log = log.With("subsystem", "bus", "server", server)
	l := &Local{net: n, server: server, d: newDispatcher(log), closed: make(chan struct{})}
	n.mu.Lock()
	n.buses[server] = l
	n.mu.Unlock()
	return l
}

func (n *Network) leave(l *Local) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.buses[l.server] == l {
		delete(n.buses, l.server)
	}
}

// Local is an in-process Bus. It is used when no Redis URL is configured and
// in tests. Packets are delivered synchronously by SendMessage.
type Local struct {
	net    *Network
	server string
	d      *dispatcher

	closed    chan struct{}
	closeOnce sync.Once
}

var _ Bus = (*Local)(nil)

// Server is part of the Bus interface.
func (l *Local) Server() string {
	return l.server
}

// SendMessage is part of the Bus interface.
func (l *Local) SendMessage(ctx context.Context, p Packet, target string) error {
	select {
	case <-l.closed:
		return errors.New("bus closed")
	default:
	}
	if target == "" {
		return errors.New("empty bus target")
	}
	// Round trip through the wire format so Local behaves like Redis.
	b, err := Encode(l.server, p)
	if err != nil {
		return err
	}
	env, p, err := Decode(b)
	if err != nil {
		return err
	}

	l.net.mu.RLock()
	var dst []*Local
	if target == Broadcast {
		for name, bus := range l.net.buses {
			if name != l.server {
				dst = append(dst, bus)
			}
		}
	} else if bus, ok := l.net.buses[target]; ok {
		dst = append(dst, bus)
	}
	l.net.mu.RUnlock()

	for _, bus := range dst {
		bus.d.dispatch(ctx, env.Source, p)
	}
	return nil
}

// Subscribe is part of the Bus interface.
func (l *Local) Subscribe(kind Kind, h Handler) func() {
	return l.d.subscribe(kind, h)
}

// Run blocks until ctx is cancelled or the bus is closed.
func (l *Local) Run(ctx context.Context) error {
	select {
	case <-ctx.Done():
	case <-l.closed:
	}
	return nil
}

// Close removes the bus from its Network.
func (l *Local) Close() error {
	l.closeOnce.Do(func() {
		close(l.closed)
		l.net.leave(l)
	})
	return nil
}
