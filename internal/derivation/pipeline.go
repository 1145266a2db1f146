// Package derivation enriches FABS staging rows with derived fields before
// validation runs. The pipeline is a fixed stage sequence; every stage is
// deterministic and overwrites its own outputs, so rerunning a submission
// always converges to the same state.
package derivation

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"broker/internal/derivation/metrics"
	"broker/internal/platform/logger"
	"broker/internal/reference"
	"broker/internal/staging"
	"broker/pkg/domain"
	"broker/pkg/sentinel"
)

// RowStore is the staging access the pipeline needs: load the rows of a
// submission, persist the derived columns, and find the earliest published
// modification of an award for office inheritance.
type RowStore interface {
	FABSForSubmission(ctx context.Context, id domain.SubmissionID) ([]*staging.FABS, error)
	SaveFABSDerived(ctx context.Context, rows []*staging.FABS) error
	BaseAwardOffices(ctx context.Context, recordType int, fain, uri string) (*staging.AwardOffices, error)
}

// SnapshotSource yields the current reference snapshot.
type SnapshotSource interface {
	Current() *reference.Snapshot
}

// Pipeline runs the FABS derivation stages for whole submissions.
type Pipeline struct {
	store   RowStore
	refs    SnapshotSource
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = l
	}
}

// WithMetrics sets the metrics collectors.
func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Pipeline) {
		p.metrics = m
	}
}

// New creates a derivation pipeline.
func New(store RowStore, refs SnapshotSource, opts ...Option) *Pipeline {
	p := &Pipeline{
		store:  store,
		refs:   refs,
		logger: logger.Discard(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// DeriveSubmission loads every FABS row of the submission, runs the full
// stage sequence on each, and writes the derived columns back in one
// transaction. Returns the number of rows derived. Cancellation is honored
// between rows.
func (p *Pipeline) DeriveSubmission(ctx context.Context, id domain.SubmissionID) (int, error) {
	start := time.Now()

	rows, err := p.store.FABSForSubmission(ctx, id)
	if err != nil {
		return 0, err
	}
	snap := p.refs.Current()

	for _, row := range rows {
		if ctx.Err() != nil {
			return 0, fmt.Errorf("derivation interrupted at row %d: %w", row.RowNumber, sentinel.ErrCancelled)
		}
		if err := p.deriveRow(ctx, row, snap); err != nil {
			return 0, fmt.Errorf("derive row %d: %w", row.RowNumber, err)
		}
	}

	if err := p.store.SaveFABSDerived(ctx, rows); err != nil {
		return 0, err
	}

	if p.metrics != nil {
		p.metrics.ObserveRun(start, len(rows))
	}
	p.logger.InfoContext(ctx, "fabs derivation finished",
		slog.String("submission_id", id.String()),
		slog.Int("rows", len(rows)),
		slog.Duration("elapsed", time.Since(start)),
	)
	return len(rows), nil
}

// deriveRow applies every stage to one row, in the fixed order. Only office
// resolution touches the database; all other stages are pure functions of the
// row and the snapshot.
func (p *Pipeline) deriveRow(ctx context.Context, f *staging.FABS, snap *reference.Snapshot) error {
	deriveTotalFunding(f)
	deriveProgramTitle(f, snap)
	deriveAwardingAgency(f, snap)
	deriveFundingAgency(f, snap)
	derivePPoPState(f, snap)
	derivePPoPGeography(f, snap)
	deriveLegalEntityGeography(f, snap)
	derivePPoPCountry(f, snap)
	if err := p.deriveOffices(ctx, f, snap); err != nil {
		return err
	}
	deriveLegalEntityCountry(f, snap)
	derivePPoPCodeFromRecipient(f, snap)
	redactPlaceOfPerformance(f)
	deriveZipSplit(f)
	deriveRecipientParent(f, snap)
	deriveExecutiveCompensation(f, snap)
	deriveLabels(f)
	derivePPoPScope(f)
	return nil
}

func deriveTotalFunding(f *staging.FABS) {
	var total float64
	if f.FederalActionObligation != nil {
		total += *f.FederalActionObligation
	}
	if f.NonFederalFundingAmount != nil {
		total += *f.NonFederalFundingAmount
	}
	f.TotalFundingAmount = str(strconv.FormatFloat(total, 'f', 2, 64))
}

func deriveProgramTitle(f *staging.FABS, snap *reference.Snapshot) {
	f.CFDATitle = nil
	number := value(f.CFDANumber)
	if number == "" {
		return
	}
	if title, ok := snap.CFDATitle(number); ok {
		f.CFDATitle = str(title)
	}
}

func str(s string) *string {
	return &s
}

func copyPtr(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func value(p *string) string {
	if p == nil {
		return ""
	}
	return strings.TrimSpace(*p)
}

func upperValue(p *string) string {
	return strings.ToUpper(value(p))
}

// actionDate parses the row's action date, used to pick the zip table epoch.
// Unparseable dates fall forward to now, selecting the current tables.
func actionDate(f *staging.FABS) time.Time {
	raw := value(f.ActionDate)
	for _, layout := range []string{"20060102", "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return time.Now().UTC()
}
