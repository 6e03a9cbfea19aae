package message

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config holds Redis bus settings.
type Config struct {
	// URL is the Redis connection URL, such as redis://localhost:6379.
	URL string
	// Prefix is prepended to every channel name.
	Prefix string
	// Server is the name this server receives targeted packets under.
	Server string
	// PoolSize is the maximum number of Redis connections.
	PoolSize int
}

// DefaultConfig returns the default bus settings.
func DefaultConfig() Config {
	return Config{
		URL:      "redis://localhost:6379",
		Prefix:   "netcore",
		Server:   "lobby-1",
		PoolSize: 10,
	}
}

// Redis is a Bus over Redis pub/sub. Every server subscribes to
// <prefix>:<server> and <prefix>:*.
type Redis struct {
	client *redis.Client
	cfg    Config
	log    *slog.Logger
	d      *dispatcher

	ready     chan struct{}
	readyOnce sync.Once
	closed    chan struct{}
	closeOnce sync.Once
}

var _ Bus = (*Redis)(nil)

// NewRedis connects to Redis.
func NewRedis(cfg Config, log *slog.Logger) (*Redis, error) {
	if cfg.Server == "" {
		return nil, errors.New("bus server name must not be empty")
	}
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return NewRedisWithClient(client, cfg, log), nil
}

// NewRedisWithClient returns a Redis bus using an existing client.
func NewRedisWithClient(client *redis.Client, cfg Config, log *slog.Logger) *Redis {
	log = log.With("subsystem", "bus", "server", cfg.Server)
	return &Redis{
		client: client,
		cfg:    cfg,
		log:    log,
		d:      newDispatcher(log),
		ready:  make(chan struct{}),
		closed: make(chan struct{}),
	}
}

// Server is part of the Bus interface.
func (r *Redis) Server() string {
	return r.cfg.Server
}

func (r *Redis) channel(target string) string {
	return r.cfg.Prefix + ":" + target
}

// SendMessage is part of the Bus interface.
func (r *Redis) SendMessage(ctx context.Context, p Packet, target string) error {
	if target == "" {
		return errors.New("empty bus target")
	}
	b, err := Encode(r.cfg.Server, p)
	if err != nil {
		return err
	}
	if err := r.client.Publish(ctx, r.channel(target), b).Err(); err != nil {
		return fmt.Errorf("publish %s packet: %w", p.Kind(), err)
	}
	return nil
}

// Subscribe is part of the Bus interface.
func (r *Redis) Subscribe(kind Kind, h Handler) func() {
	return r.d.subscribe(kind, h)
}

// Ready is closed once Run subscribed to the channels of the server.
func (r *Redis) Ready() <-chan struct{} {
	return r.ready
}

// Run is part of the Bus interface.
func (r *Redis) Run(ctx context.Context) error {
	self, all := r.channel(r.cfg.Server), r.channel(Broadcast)
	ps := r.client.Subscribe(ctx, self, all)
	defer ps.Close()

	if _, err := ps.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	r.readyOnce.Do(func() { close(r.ready) })
	r.log.Debug("Bus subscribed.", "channels", []string{self, all})

	ch := ps.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-r.closed:
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			r.handle(ctx, msg.Channel == all, []byte(msg.Payload))
		}
	}
}

func (r *Redis) handle(ctx context.Context, broadcast bool, payload []byte) {
	env, p, err := Decode(payload)
	if err != nil {
		r.log.Warn("Dropping bus message.", "source", env.Source, "err", err)
		return
	}
	if broadcast && env.Source == r.cfg.Server {
		return
	}
	r.d.dispatch(ctx, env.Source, p)
}

// Close stops Run and closes the Redis client.
func (r *Redis) Close() error {
	var err error
	r.closeOnce.Do(func() {
		close(r.closed)
		err = r.client.Close()
	})
	return err
}
