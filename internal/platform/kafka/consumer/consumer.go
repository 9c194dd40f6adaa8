// Package consumer wraps franz-go group consumption behind a small handler
// interface. Offsets commit only after the handler returns nil, so a crashed
// handler sees the record again on the next poll.
package consumer

import (
	"context"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	dErrors "github.com/nintynick/transitive-trust-sub001/pkg/domain-errors"
)

// Message is one consumed record.
type Message struct {
	Topic     string
	Key       []byte
	Value     []byte
	Timestamp time.Time
}

// Handler processes a single message. Returning an error leaves the offset
// uncommitted.
type Handler interface {
	Handle(ctx context.Context, msg *Message) error
}

// Config holds broker and group settings.
type Config struct {
	Brokers []string
	GroupID string
	Topics  []string
}

// Consumer polls a consumer group and dispatches records to a Handler.
type Consumer struct {
	client  *kgo.Client
	handler Handler
	logger  *slog.Logger
}

// New connects a group consumer. Close the returned Consumer to leave the
// group cleanly.
func New(cfg Config, handler Handler, logger *slog.Logger) (*Consumer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "at least one broker is required")
	}
	if handler == nil {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "handler is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.ConsumerGroup(cfg.GroupID),
		kgo.ConsumeTopics(cfg.Topics...),
		kgo.DisableAutoCommit(),
	)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "create kafka client")
	}

	return &Consumer{client: client, handler: handler, logger: logger}, nil
}

// Run polls until the context is cancelled. Fetch errors are logged and
// retried; handler errors skip the commit for that record.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		fetches := c.client.PollFetches(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		fetches.EachError(func(topic string, partition int32, err error) {
			c.logger.WarnContext(ctx, "kafka fetch error",
				"topic", topic,
				"partition", partition,
				"error", err,
			)
		})

		var committable []*kgo.Record
		fetches.EachRecord(func(record *kgo.Record) {
			msg := &Message{
				Topic:     record.Topic,
				Key:       record.Key,
				Value:     record.Value,
				Timestamp: record.Timestamp,
			}
			if err := c.handler.Handle(ctx, msg); err != nil {
				c.logger.WarnContext(ctx, "message handling failed, offset not committed",
					"topic", record.Topic,
					"partition", record.Partition,
					"offset", record.Offset,
					"error", err,
				)
				return
			}
			committable = append(committable, record)
		})

		if len(committable) > 0 {
			if err := c.client.CommitRecords(ctx, committable...); err != nil {
				c.logger.WarnContext(ctx, "offset commit failed", "error", err)
			}
		}
	}
}

// Close leaves the consumer group.
func (c *Consumer) Close() {
	c.client.Close()
}
