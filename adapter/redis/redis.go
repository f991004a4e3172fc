// Package redis publishes transfer events to Redis, either on a pub/sub
// channel or appended to a stream.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/justapithecus/monochrome/adapter"
)

// DefaultChannel is the default channel or stream key.
const DefaultChannel = "monochrome:transfer_completed"

// DefaultTimeout is the default per-publish timeout.
const DefaultTimeout = 5 * time.Second

// DefaultRetries is the default number of retry attempts.
const DefaultRetries = 3

// Delivery modes.
const (
	ModePublish = "publish"
	ModeStream  = "stream"
)

// Config configures the Redis adapter.
type Config struct {
	// URL is the connection URL: redis://[:password@]host:port[/db].
	URL string
	// Channel is the pub/sub channel or stream key.
	Channel string
	// Mode is "publish" (default) or "stream".
	Mode string
	// MaxLen caps the stream length approximately. Zero leaves it unbounded.
	MaxLen int64
	// Timeout is the per-attempt timeout (default 5s).
	Timeout time.Duration
	// Retries is the number of retries after the first attempt.
	Retries int
}

// Adapter publishes transfer events to Redis.
type Adapter struct {
	config Config
	client *goredis.Client
}

// New creates a Redis adapter. The URL is required.
func New(cfg Config) (*Adapter, error) {
	if cfg.URL == "" {
		return nil, errors.New("redis adapter requires a URL")
	}

	opts, err := goredis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("redis adapter: invalid URL: %w", err)
	}

	if cfg.Channel == "" {
		cfg.Channel = DefaultChannel
	}
	switch cfg.Mode {
	case "":
		cfg.Mode = ModePublish
	case ModePublish, ModeStream:
	default:
		return nil, fmt.Errorf("redis adapter: unknown mode %q", cfg.Mode)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Retries < 0 {
		return nil, fmt.Errorf("retries must be >= 0, got %d", cfg.Retries)
	}

	return &Adapter{
		config: cfg,
		client: goredis.NewClient(opts),
	}, nil
}

// Publish delivers the event, retrying with exponential backoff.
func (a *Adapter) Publish(ctx context.Context, event *adapter.TransferCompletedEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("redis: marshal event: %w", err)
	}

	var lastErr error
	attempts := 1 + a.config.Retries

	for i := range attempts {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("redis: context canceled: %w", err)
		}
		if i > 0 {
			select {
			case <-ctx.Done():
				return fmt.Errorf("redis: context canceled during backoff: %w", ctx.Err())
			case <-time.After(adapter.Backoff(i)):
			}
		}

		attemptCtx, cancel := context.WithTimeout(ctx, a.config.Timeout)
		lastErr = a.deliver(attemptCtx, event, body)
		cancel()

		if lastErr == nil {
			return nil
		}
	}

	return fmt.Errorf("redis: failed after %d attempts: %w", attempts, lastErr)
}

func (a *Adapter) deliver(ctx context.Context, event *adapter.TransferCompletedEvent, body []byte) error {
	if a.config.Mode == ModePublish {
		return a.client.Publish(ctx, a.config.Channel, body).Err()
	}
	args := &goredis.XAddArgs{
		Stream: a.config.Channel,
		Values: map[string]any{
			"event_type": event.EventType,
			"outcome":    event.Outcome,
			"payload":    string(body),
		},
	}
	if a.config.MaxLen > 0 {
		args.MaxLen = a.config.MaxLen
		args.Approx = true
	}
	return a.client.XAdd(ctx, args).Err()
}

// Close releases the client connection pool.
func (a *Adapter) Close() error {
	return a.client.Close()
}

var _ adapter.Adapter = (*Adapter)(nil)
