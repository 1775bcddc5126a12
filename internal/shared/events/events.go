// Package events publishes activity change notifications.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
	"go.uber.org/fx"

	"github.com/andrasnagy-data/weekplan/internal/shared/config"
	"github.com/andrasnagy-data/weekplan/internal/shared/metrics"
)

const (
	TypeActivityCreated = "activity.created"
	TypeActivityUpdated = "activity.updated"
	TypeActivityDeleted = "activity.deleted"
)

type (
	// Event describes a committed change to the activities collection.
	Event struct {
		Type       string    `json:"type"`
		ActivityID string    `json:"activity_id"`
		Day        string    `json:"day,omitempty"`
		OccurredAt time.Time `json:"occurred_at"`
	}

	// Publisher delivers change events. Implementations must be safe for concurrent use.
	Publisher interface {
		Publish(ctx context.Context, event Event) error
	}

	// NoopPublisher drops every event.
	NoopPublisher struct{}

	messageWriter interface {
		WriteMessages(ctx context.Context, msgs ...kafka.Message) error
		Close() error
	}

	// KafkaPublisher writes events as JSON to a single topic, keyed by activity id.
	KafkaPublisher struct {
		writer messageWriter
		logger zerolog.Logger
	}
)

func (NoopPublisher) Publish(context.Context, Event) error { return nil }

// NewKafkaPublisher creates a publisher for topic. Writes are batched in the background, so Publish
// only hands the event to the writer and delivery failures surface through the completion callback.
func NewKafkaPublisher(brokers []string, topic string, logger zerolog.Logger) *KafkaPublisher {
	p := &KafkaPublisher{
		logger: logger.With().Str("component", "events").Str("topic", topic).Logger(),
	}
	p.writer = &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		Compression:            kafka.Snappy,
		AllowAutoTopicCreation: true,
		Async:                  true,
		BatchTimeout:           50 * time.Millisecond,
		Completion:             p.delivered,
	}
	return p
}

func (p *KafkaPublisher) Publish(ctx context.Context, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}

	if err := p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.ActivityID),
		Value: body,
		Time:  event.OccurredAt,
	}); err != nil {
		metrics.RecordEventPublished(err)
		return err
	}

	p.logger.Debug().Str("type", event.Type).Str("activity_id", event.ActivityID).Msg("Event queued")
	return nil
}

// delivered runs once per written batch.
func (p *KafkaPublisher) delivered(msgs []kafka.Message, err error) {
	for _, msg := range msgs {
		metrics.RecordEventPublished(err)
		if err != nil {
			p.logger.Warn().Err(err).Str("activity_id", string(msg.Key)).Msg("Failed to deliver change event")
		}
	}
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NewPublisher returns a Kafka publisher when brokers are configured and a no-op publisher otherwise.
func NewPublisher(lc fx.Lifecycle, cfg *config.Config, logger zerolog.Logger) Publisher {
	if !cfg.EventsEnabled() {
		logger.Debug().Msg("No Kafka brokers configured, change events disabled")
		return NoopPublisher{}
	}

	publisher := NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return publisher.Close()
		},
	})

	logger.Info().Strs("brokers", cfg.KafkaBrokers).Str("topic", cfg.KafkaTopic).Msg("Kafka change events enabled")
	return publisher
}
