package trigger

import (
	"context"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisChannel is the pub/sub channel used when none is configured.
const DefaultRedisChannel = "notify:wake"

// Redis is a cross-instance emit→dispatch handoff over Redis pub/sub:
// emitters publish a wakeup, every subscribed dispatcher picks one up on
// its own wake channel. Payloads carry no data — deliveries live in the
// durable store, the signal only ends the dispatcher's wait.
type Redis struct {
	client  *redis.Client
	channel string
	logger  *slog.Logger
	wake    chan struct{}
	cancel  context.CancelFunc
	done    chan struct{}
}

// RedisOption configures a Redis trigger.
type RedisOption func(*Redis)

// WithChannel overrides the pub/sub channel name.
func WithChannel(name string) RedisOption {
	return func(r *Redis) {
		if name != "" {
			r.channel = name
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) RedisOption {
	return func(r *Redis) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRedis creates a Redis-backed trigger on an established client.
func NewRedis(client *redis.Client, opts ...RedisOption) (*Redis, error) {
	if client == nil {
		return nil, ErrClientNil
	}
	r := &Redis{
		client:  client,
		channel: DefaultRedisChannel,
		logger:  slog.Default(),
		wake:    make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Wake implements notify.Waker by publishing a wakeup. Publish failures are
// logged and swallowed: the dispatcher's poll tick covers for a lost
// signal.
func (r *Redis) Wake(ctx context.Context) {
	if err := r.client.Publish(ctx, r.channel, "").Err(); err != nil {
		r.logger.Warn("failed to publish dispatch wakeup",
			slog.String("channel", r.channel),
			slog.String("error", err.Error()))
	}
}

// Start subscribes to the pub/sub channel and begins forwarding wakeups.
// Call on the dispatcher side only; pure emitters just Wake.
func (r *Redis) Start(ctx context.Context) error {
	if r.cancel != nil {
		return ErrAlreadySubscribed
	}

	sub := r.client.Subscribe(ctx, r.channel)
	// Receive forces the SUBSCRIBE handshake so a broken connection fails
	// here instead of silently never waking anyone.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.done = make(chan struct{})

	go func() {
		defer close(r.done)
		defer func() { _ = sub.Close() }()

		ch := sub.Channel()
		for {
			select {
			case <-runCtx.Done():
				return
			case _, ok := <-ch:
				if !ok {
					return
				}
				select {
				case r.wake <- struct{}{}:
				default:
				}
			}
		}
	}()
	return nil
}

// Stop ends the subscription.
func (r *Redis) Stop() error {
	if r.cancel == nil {
		return ErrNotSubscribed
	}
	r.cancel()
	<-r.done
	r.cancel = nil
	return nil
}

// Wakeups returns the channel a dispatcher selects on
// (notify.WithWakeChannel). Empty until Start is called.
func (r *Redis) Wakeups() <-chan struct{} {
	return r.wake
}
