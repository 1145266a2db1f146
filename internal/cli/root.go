// Package cli wires the validator's dependencies and exposes its commands:
// a long-running serve mode and one-shot validate, derive, and catalog
// maintenance commands for operators and the orchestrator.
package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	"broker/internal/catalog"
	catalogmetrics "broker/internal/catalog/metrics"
	"broker/internal/derivation"
	derivationmetrics "broker/internal/derivation/metrics"
	"broker/internal/engine"
	enginemetrics "broker/internal/engine/metrics"
	"broker/internal/events"
	"broker/internal/platform/config"
	"broker/internal/platform/database"
	"broker/internal/platform/logger"
	platformredis "broker/internal/platform/redis"
	"broker/internal/progress"
	"broker/internal/reference"
	"broker/internal/staging"
	"broker/internal/submission"
)

// app holds every wired dependency a command can need. Commands build it
// lazily so flag parsing and help never touch the database.
type app struct {
	cfg    config.Config
	logger *slog.Logger

	db    *sqlx.DB
	redis *platformredis.Client

	submissions *submission.PostgresStore
	staging     *staging.PostgresStore
	catalog     *catalog.PostgresStore
	loader      *catalog.Loader

	refs      *reference.Provider
	refStore  *reference.PostgresStore
	validator *engine.Validator
	pipeline  *derivation.Pipeline
	tracker   *progress.Tracker
	producer  *events.Producer
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.FromEnv()
	if err != nil {
		return nil, err
	}
	log := logger.New()

	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}

	catalogStore := catalog.NewPostgres(db)
	stagingStore := staging.NewPostgres(db)

	refStore := reference.NewPostgres(db)
	refs, err := reference.NewProvider(ctx, refStore, log)
	if err != nil {
		return nil, err
	}

	validator, err := engine.New(db, catalogStore,
		engine.WithLogger(log),
		engine.WithReferences(refs),
		engine.WithMetrics(enginemetrics.New()),
		engine.WithRuleTimeout(cfg.Engine.RuleTimeout),
		engine.WithLockWait(cfg.Engine.WaitForLock),
	)
	if err != nil {
		return nil, err
	}

	pipeline := derivation.New(stagingStore, refs,
		derivation.WithLogger(log),
		derivation.WithMetrics(derivationmetrics.New()),
	)

	producer, err := events.NewProducer(cfg.Kafka, log)
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:         cfg,
		logger:      log,
		db:          db,
		redis:       redisClient,
		submissions: submission.NewPostgres(db),
		staging:     stagingStore,
		catalog:     catalogStore,
		loader:      catalog.NewLoader(catalogStore, log, catalog.WithMetrics(catalogmetrics.New())),
		refs:        refs,
		refStore:    refStore,
		validator:   validator,
		pipeline:    pipeline,
		tracker:     progress.NewTracker(redisClient, 0),
		producer:    producer,
	}, nil
}

func (a *app) close() {
	if a.producer != nil {
		a.producer.Close()
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.db != nil {
		_ = a.db.Close()
	}
}

// NewRootCommand builds the broker-validator command tree.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "broker-validator",
		Short:         "Submission validation engine for federal financial assistance and procurement data",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newServeCommand(),
		newValidateCommand(),
		newValidateCrossCommand(),
		newDeriveCommand(),
		newLoadCatalogCommand(),
	)
	return root
}
