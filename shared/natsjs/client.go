package natsjs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// Config holds NATS connection configuration
type Config struct {
	URL           string
	RetryAttempts int
	RetryInterval time.Duration
	DrainTimeout  time.Duration
}

// Client represents a NATS JetStream client
type Client struct {
	config *Config
	conn   *nats.Conn
	js     jetstream.JetStream
	logger *slog.Logger
}

// connectOptions builds the connection options. The drain timeout bounds
// how long Close waits for in-flight messages on shutdown.
func connectOptions(config *Config) []nats.Option {
	opts := []nats.Option{
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
	}

	if config.DrainTimeout > 0 {
		opts = append(opts, nats.DrainTimeout(config.DrainTimeout))
	}

	return opts
}

// NewClient connects to NATS with retry logic and initializes JetStream
func NewClient(config *Config, logger *slog.Logger) (*Client, error) {
	var conn *nats.Conn
	var err error

	attempts := config.RetryAttempts
	if attempts <= 0 {
		attempts = 1
	}

	for attempt := 1; attempt <= attempts; attempt++ {
		logger.Info("Connecting to NATS",
			slog.String("url", config.URL),
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", attempts),
		)

		conn, err = nats.Connect(config.URL, connectOptions(config)...)
		if err == nil {
			logger.Info("Successfully connected to NATS")
			break
		}

		logger.Error("Failed to connect to NATS",
			slog.Any("error", err),
			slog.Int("attempt", attempt),
		)

		if attempt < attempts {
			time.Sleep(config.RetryInterval)
		}
	}

	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS after %d attempts: %w", attempts, err)
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize JetStream: %w", err)
	}

	return &Client{
		config: config,
		conn:   conn,
		js:     js,
		logger: logger,
	}, nil
}

// EnsureStream creates the stream and its durable consumer for the given
// stream type if they do not already exist. Safe to call from both the
// producer and consumer process, in any order.
func (c *Client) EnsureStream(ctx context.Context, streamType StreamType) error {
	spec := SpecFor(streamType)

	c.logger.Info("Ensuring stream",
		slog.String("stream", spec.Stream.Name),
	)

	if _, err := c.js.CreateOrUpdateStream(ctx, spec.Stream); err != nil {
		return fmt.Errorf("failed to ensure stream %q: %w", spec.Stream.Name, err)
	}

	c.logger.Info("Ensuring durable consumer",
		slog.String("stream", spec.Stream.Name),
		slog.String("consumer", spec.Consumer.Durable),
		slog.String("filter_subject", spec.Consumer.FilterSubject),
	)

	if _, err := c.js.CreateOrUpdateConsumer(ctx, spec.Stream.Name, spec.Consumer); err != nil {
		return fmt.Errorf("failed to ensure consumer %q: %w", spec.Consumer.Durable, err)
	}

	return nil
}

// Publish publishes to a stream subject and blocks until the broker
// acknowledges the message as durably stored. A publish without an ack
// must not be treated as durable.
func (c *Client) Publish(ctx context.Context, subject string, data []byte) error {
	ack, err := c.js.Publish(ctx, subject, data)
	if err != nil {
		c.logger.Error("Failed to publish message",
			slog.String("subject", subject),
			slog.Any("error", err),
		)
		return fmt.Errorf("failed to publish to %q: %w", subject, err)
	}

	c.logger.Debug("Message published",
		slog.String("subject", subject),
		slog.String("stream", ack.Stream),
		slog.Uint64("sequence", ack.Sequence),
		slog.Int("body_size", len(data)),
	)

	return nil
}

// PullConsumer returns the durable pull consumer for the given stream type.
// EnsureStream must have been called first by some process.
func (c *Client) PullConsumer(ctx context.Context, streamType StreamType) (jetstream.Consumer, error) {
	spec := SpecFor(streamType)

	cons, err := c.js.Consumer(ctx, spec.Stream.Name, spec.Consumer.Durable)
	if err != nil {
		return nil, fmt.Errorf("failed to get consumer %q on stream %q: %w",
			spec.Consumer.Durable, spec.Stream.Name, err)
	}

	return cons, nil
}

// IsConnected returns the connection status
func (c *Client) IsConnected() bool {
	return c.conn != nil && c.conn.IsConnected()
}

// Close drains and closes the NATS connection
func (c *Client) Close() error {
	c.logger.Info("Closing NATS connection")

	if c.conn == nil {
		return nil
	}

	if err := c.conn.Drain(); err != nil {
		c.logger.Error("Failed to drain NATS connection",
			slog.Any("error", err),
		)
		c.conn.Close()
		return err
	}

	c.logger.Info("NATS connection closed successfully")
	return nil
}
