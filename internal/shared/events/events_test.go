package events

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx/fxtest"

	"github.com/andrasnagy-data/weekplan/internal/shared/config"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func TestKafkaPublisherWritesKeyedJSON(t *testing.T) {
	writer := &fakeWriter{}
	publisher := &KafkaPublisher{writer: writer, logger: zerolog.Nop()}

	occurred := time.Date(2025, time.March, 3, 9, 0, 0, 0, time.UTC)
	err := publisher.Publish(context.Background(), Event{
		Type:       TypeActivityCreated,
		ActivityID: "act-1",
		Day:        "monday",
		OccurredAt: occurred,
	})
	require.NoError(t, err)
	require.Len(t, writer.msgs, 1)

	msg := writer.msgs[0]
	assert.Equal(t, "act-1", string(msg.Key))

	var decoded Event
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, TypeActivityCreated, decoded.Type)
	assert.Equal(t, "monday", decoded.Day)
	assert.True(t, occurred.Equal(decoded.OccurredAt))
}

func TestKafkaPublisherReturnsWriterError(t *testing.T) {
	writer := &fakeWriter{err: errors.New("broker down")}
	publisher := &KafkaPublisher{writer: writer, logger: zerolog.Nop()}

	err := publisher.Publish(context.Background(), Event{Type: TypeActivityDeleted, ActivityID: "act-1"})
	assert.EqualError(t, err, "broker down")
}

func TestNewKafkaPublisherDoesNotBlockOnDelivery(t *testing.T) {
	publisher := NewKafkaPublisher([]string{"localhost:9092"}, "activities", zerolog.Nop())
	t.Cleanup(func() { _ = publisher.Close() })

	writer, ok := publisher.writer.(*kafka.Writer)
	require.True(t, ok)
	assert.True(t, writer.Async)
	assert.NotNil(t, writer.Completion)
}

func TestKafkaPublisherLogsFailedDelivery(t *testing.T) {
	var buf bytes.Buffer
	publisher := &KafkaPublisher{writer: &fakeWriter{}, logger: zerolog.New(&buf)}

	publisher.delivered([]kafka.Message{{Key: []byte("act-1")}}, errors.New("broker down"))
	assert.Contains(t, buf.String(), `"activity_id":"act-1"`)
	assert.Contains(t, buf.String(), "broker down")

	buf.Reset()
	publisher.delivered([]kafka.Message{{Key: []byte("act-2")}}, nil)
	assert.Empty(t, buf.String())
}

func TestNewPublisherWithoutBrokersIsNoop(t *testing.T) {
	lc := fxtest.NewLifecycle(t)
	publisher := NewPublisher(lc, &config.Config{}, zerolog.Nop())

	assert.IsType(t, NoopPublisher{}, publisher)
	assert.NoError(t, publisher.Publish(context.Background(), Event{Type: TypeActivityUpdated}))
}
