// Package events publishes run-completion records so downstream collaborators
// (publication, dashboards) learn when a submission's validation or derivation
// finished without polling the database.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"broker/internal/platform/config"
	"broker/pkg/domain"
)

// Kind names the run that finished.
type Kind string

const (
	KindValidation Kind = "validation.finished"
	KindCrossFile  Kind = "cross_file.finished"
	KindDerivation Kind = "derivation.finished"
)

// Finished is the payload of one completion record.
type Finished struct {
	Kind         Kind      `json:"kind"`
	SubmissionID string    `json:"submission_id"`
	FileType     string    `json:"file_type,omitempty"`
	Errors       int       `json:"errors"`
	Warnings     int       `json:"warnings"`
	Rows         int       `json:"rows,omitempty"`
	FinishedAt   time.Time `json:"finished_at"`
}

// Producer publishes completion records, keyed by submission so all runs of
// one submission land in order on the same partition.
type Producer struct {
	client *kgo.Client
	topic  string
	logger *slog.Logger
}

// NewProducer creates a producer for the finished topic. Returns nil when no
// brokers are configured (eventing disabled); callers treat a nil producer as
// a no-op.
func NewProducer(cfg config.Kafka, logger *slog.Logger) (*Producer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, nil
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.DefaultProduceTopic(cfg.FinishedTopic),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, fmt.Errorf("create finished-event producer: %w", err)
	}
	return &Producer{client: client, topic: cfg.FinishedTopic, logger: logger}, nil
}

// Publish sends one completion record synchronously.
func (p *Producer) Publish(ctx context.Context, id domain.SubmissionID, event Finished) error {
	if p == nil {
		return nil
	}
	event.SubmissionID = id.String()
	event.FinishedAt = time.Now().UTC()
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal finished event: %w", err)
	}
	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(event.SubmissionID),
		Value: payload,
	}
	if err := p.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce finished event: %w", err)
	}
	p.logger.InfoContext(ctx, "finished event published",
		slog.String("kind", string(event.Kind)),
		slog.String("submission_id", event.SubmissionID),
	)
	return nil
}

// Close flushes and closes the underlying client.
func (p *Producer) Close() {
	if p == nil {
		return
	}
	p.client.Close()
}
