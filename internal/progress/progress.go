// Package progress records per-submission run state in Redis so orchestrators
// can poll what the validator is doing without touching the database. Entries
// carry a TTL; a run that dies simply ages out.
package progress

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	platformredis "broker/internal/platform/redis"
	"broker/pkg/domain"
	"broker/pkg/sentinel"
)

// Phase names the coarse step a run is in.
type Phase string

const (
	PhaseDeriving   Phase = "deriving"
	PhaseValidating Phase = "validating"
	PhaseCrossFile  Phase = "cross_file"
	PhaseFinished   Phase = "finished"
	PhaseFailed     Phase = "failed"
)

// State is one heartbeat: the current phase and what it has processed so far.
type State struct {
	SubmissionID string    `json:"submission_id"`
	Phase        Phase     `json:"phase"`
	FileType     string    `json:"file_type,omitempty"`
	RuleLabel    string    `json:"rule_label,omitempty"`
	RowsDone     int       `json:"rows_done"`
	Errors       int       `json:"errors"`
	Warnings     int       `json:"warnings"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Tracker writes run state keyed by submission.
type Tracker struct {
	client *platformredis.Client
	ttl    time.Duration
}

// NewTracker wraps a Redis client. A nil client yields a no-op tracker so the
// validator runs fine without Redis configured.
func NewTracker(client *platformredis.Client, ttl time.Duration) *Tracker {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &Tracker{client: client, ttl: ttl}
}

func key(id domain.SubmissionID) string {
	return "broker:run:" + id.String()
}

// Record writes the heartbeat, stamping UpdatedAt.
func (t *Tracker) Record(ctx context.Context, id domain.SubmissionID, state State) error {
	if t.client == nil {
		return nil
	}
	state.SubmissionID = id.String()
	state.UpdatedAt = time.Now().UTC()
	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal run state: %w", err)
	}
	if err := t.client.Set(ctx, key(id), payload, t.ttl).Err(); err != nil {
		return fmt.Errorf("write run state: %w", err)
	}
	return nil
}

// Current reads the last heartbeat for a submission.
func (t *Tracker) Current(ctx context.Context, id domain.SubmissionID) (State, error) {
	if t.client == nil {
		return State{}, sentinel.ErrNotFound
	}
	payload, err := t.client.Get(ctx, key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return State{}, sentinel.ErrNotFound
		}
		return State{}, fmt.Errorf("read run state: %w", err)
	}
	var state State
	if err := json.Unmarshal(payload, &state); err != nil {
		return State{}, fmt.Errorf("decode run state: %w", err)
	}
	return state, nil
}

// Clear drops the heartbeat once a run's terminal state has been consumed.
func (t *Tracker) Clear(ctx context.Context, id domain.SubmissionID) error {
	if t.client == nil {
		return nil
	}
	return t.client.Del(ctx, key(id)).Err()
}
