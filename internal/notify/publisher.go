// Package notify announces dataset reloads so other dashboard instances can
// refresh their snapshots.
package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
)

// DatasetReloaded is the payload emitted after a successful reload.
type DatasetReloaded struct {
	SnapshotID   string    `json:"snapshot_id"`
	LoadedAt     time.Time `json:"loaded_at"`
	CombinedRows int       `json:"combined_rows"`
	Sources      []string  `json:"sources"`
}

// Publisher emits reload events.
type Publisher interface {
	PublishReload(ctx context.Context, event DatasetReloaded) error
	Close() error
}

// NoopPublisher is used when no brokers are configured.
type NoopPublisher struct{}

// PublishReload performs no action.
func (NoopPublisher) PublishReload(context.Context, DatasetReloaded) error { return nil }

// Close performs no action.
func (NoopPublisher) Close() error { return nil }

// KafkaPublisher writes reload events to a single topic.
type KafkaPublisher struct {
	writer *kafka.Writer
}

// NewKafkaPublisher creates a KafkaPublisher.
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			RequiredAcks: kafka.RequireAll,
			Compression:  kafka.Snappy,
			Async:        false,
		},
	}
}

// PublishReload writes one event keyed by snapshot id, so consumers compact
// to the latest snapshot per partition.
func (p *KafkaPublisher) PublishReload(ctx context.Context, event DatasetReloaded) error {
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.SnapshotID),
		Value: body,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte("dataset.reloaded")},
		},
	})
}

// Close releases the writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
