package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config captures everything the validator needs at process start. Values come
// from the environment first; an optional YAML file named by BROKER_CONFIG is
// overlaid on top for deployments that prefer files over env plumbing.
type Config struct {
	Addr string `yaml:"addr"`

	Database Database `yaml:"database"`
	Redis    Redis    `yaml:"redis"`
	Kafka    Kafka    `yaml:"kafka"`
	Catalog  Catalog  `yaml:"catalog"`
	Engine   Engine   `yaml:"engine"`
}

// Database holds Postgres pool settings.
type Database struct {
	DSN          string `yaml:"dsn"`
	MaxOpenConns int    `yaml:"max_open_conns"`
	MaxIdleConns int    `yaml:"max_idle_conns"`
}

// Redis holds progress-store settings. An empty URL disables progress reporting.
type Redis struct {
	URL          string        `yaml:"url"`
	PoolSize     int           `yaml:"pool_size"`
	MinIdleConns int           `yaml:"min_idle_conns"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// Kafka holds event-stream settings. Empty brokers disable eventing.
type Kafka struct {
	Brokers        []string `yaml:"brokers"`
	FinishedTopic  string   `yaml:"finished_topic"`
	ReferenceTopic string   `yaml:"reference_topic"`
	ConsumerGroup  string   `yaml:"consumer_group"`
}

// Catalog names where rule manifests and predicate files live.
type Catalog struct {
	RuleDir  string `yaml:"rule_dir"`
	S3Bucket string `yaml:"s3_bucket"`
	S3Prefix string `yaml:"s3_prefix"`
}

// Engine holds rule execution knobs.
type Engine struct {
	RuleTimeout time.Duration `yaml:"rule_timeout"`
	WaitForLock bool          `yaml:"wait_for_lock"`
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() (Config, error) {
	cfg := Config{
		Addr: envOr("BROKER_ADDR", ":8080"),
		Database: Database{
			DSN:          envOr("BROKER_DATABASE_URL", "postgres://localhost/broker?sslmode=disable"),
			MaxOpenConns: envInt("BROKER_DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns: envInt("BROKER_DB_MAX_IDLE_CONNS", 5),
		},
		Redis: Redis{
			URL:          os.Getenv("BROKER_REDIS_URL"),
			PoolSize:     envInt("BROKER_REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("BROKER_REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Kafka: Kafka{
			Brokers:        splitNonEmpty(os.Getenv("BROKER_KAFKA_BROKERS")),
			FinishedTopic:  envOr("BROKER_KAFKA_FINISHED_TOPIC", "broker.validation.finished"),
			ReferenceTopic: envOr("BROKER_KAFKA_REFERENCE_TOPIC", "broker.reference.reloaded"),
			ConsumerGroup:  envOr("BROKER_KAFKA_GROUP", "broker-validator"),
		},
		Catalog: Catalog{
			RuleDir:  envOr("BROKER_RULE_DIR", "rules"),
			S3Bucket: os.Getenv("BROKER_RULE_S3_BUCKET"),
			S3Prefix: os.Getenv("BROKER_RULE_S3_PREFIX"),
		},
		Engine: Engine{
			RuleTimeout: envDuration("BROKER_RULE_TIMEOUT", 10*time.Minute),
			WaitForLock: os.Getenv("BROKER_WAIT_FOR_LOCK") == "true",
		},
	}

	if path := os.Getenv("BROKER_CONFIG"); path != "" {
		if err := overlayFile(&cfg, path); err != nil {
			return Config{}, err
		}
	}
	return cfg, nil
}

func overlayFile(cfg *Config, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func splitNonEmpty(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
