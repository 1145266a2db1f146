package submission

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"broker/pkg/domain"
	"broker/pkg/sentinel"
)

// PostgresStore reads and updates submissions in PostgreSQL.
type PostgresStore struct {
	db *sqlx.DB
}

// NewPostgres constructs a PostgreSQL-backed submission store.
func NewPostgres(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const submissionColumns = `submission_id, reporting_fiscal_year, reporting_fiscal_period,
	cgac_code, frec_code, is_fabs, publish_status, created_at, updated_at`

// Get fetches a submission by id.
func (s *PostgresStore) Get(ctx context.Context, id domain.SubmissionID) (*Submission, error) {
	var sub Submission
	query := fmt.Sprintf(`SELECT %s FROM submission WHERE submission_id = $1`, submissionColumns)
	if err := s.db.GetContext(ctx, &sub, query, id.String()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get submission: %w", err)
	}
	return &sub, nil
}

// SetPublishStatus moves a submission through its publication lifecycle.
func (s *PostgresStore) SetPublishStatus(ctx context.Context, id domain.SubmissionID, status domain.PublishStatus) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE submission SET publish_status = $2, updated_at = now() WHERE submission_id = $1`,
		id.String(), status.String())
	if err != nil {
		return fmt.Errorf("set publish status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set publish status: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
