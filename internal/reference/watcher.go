package reference

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"

	"broker/internal/platform/config"
)

// Watcher consumes the external loader's completion signal and rebuilds the
// snapshot when a reference table changes. The loader publishes one record per
// completed load; the payload names the table but a full rebuild is cheap
// enough that the watcher does not partial-reload.
type Watcher struct {
	client   *kgo.Client
	provider *Provider
	logger   *slog.Logger
}

// NewWatcher subscribes to the reference-reloaded topic. Returns nil when no
// brokers are configured (eventing disabled).
func NewWatcher(cfg config.Kafka, provider *Provider, logger *slog.Logger) (*Watcher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, nil
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.ConsumeTopics(cfg.ReferenceTopic),
		kgo.ConsumerGroup(cfg.ConsumerGroup),
	)
	if err != nil {
		return nil, fmt.Errorf("create reference watcher client: %w", err)
	}
	return &Watcher{client: client, provider: provider, logger: logger}, nil
}

// Run polls until the context is cancelled. Each received record triggers one
// snapshot rebuild; rebuild failures are logged and retried on the next
// signal rather than crashing the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.client.Close()
	for {
		fetches := w.client.PollFetches(ctx)
		if err := ctx.Err(); err != nil {
			return err
		}
		if errs := fetches.Errors(); len(errs) > 0 {
			for _, fe := range errs {
				w.logger.Error("reference watcher fetch error",
					"topic", fe.Topic, "error", fe.Err)
			}
			continue
		}
		if fetches.NumRecords() == 0 {
			continue
		}
		fetches.EachRecord(func(rec *kgo.Record) {
			w.logger.Info("reference reload signal received",
				"key", string(rec.Key), "payload", string(rec.Value))
		})
		if err := w.provider.Reload(ctx); err != nil {
			w.logger.Error("reference snapshot rebuild failed", "error", err)
		}
	}
}
