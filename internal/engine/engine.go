package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"broker/internal/catalog"
	"broker/internal/engine/metrics"
	"broker/internal/reference"
	"broker/pkg/domain"
	"broker/pkg/fiscal"
	"broker/pkg/sentinel"
)

// DefaultRuleTimeout bounds a single predicate execution.
const DefaultRuleTimeout = 10 * time.Minute

// RuleSource hands the engine its applicable rules. The catalog store
// satisfies this; tests substitute a fixed list.
type RuleSource interface {
	RulesFor(ctx context.Context, ft domain.FileType, crossFile bool) ([]catalog.Rule, error)
	RulesForPair(ctx context.Context, a, b domain.FileType) ([]catalog.Rule, error)
}

// References exposes the current reference snapshot. The engine consults it
// for the submission's agency-code alias set; the reference provider
// satisfies this.
type References interface {
	Current() *reference.Snapshot
}

// Validator runs catalog rules against one submission at a time inside a
// single transaction, guaranteeing an atomic error-set swap.
type Validator struct {
	db          *sqlx.DB
	rules       RuleSource
	refs        References
	metrics     *metrics.Metrics
	logger      *slog.Logger
	ruleTimeout time.Duration
	waitForLock bool
}

// Option configures a Validator.
type Option func(*Validator)

// WithLogger sets the engine logger.
func WithLogger(logger *slog.Logger) Option {
	return func(v *Validator) { v.logger = logger }
}

// WithMetrics sets the engine metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(v *Validator) { v.metrics = m }
}

// WithReferences sets the reference snapshot source used to resolve the
// submission's agency-code alias set. Without it, :agency_codes binds only
// the submission's own code.
func WithReferences(refs References) Option {
	return func(v *Validator) { v.refs = refs }
}

// WithRuleTimeout overrides the per-rule execution timeout.
func WithRuleTimeout(d time.Duration) Option {
	return func(v *Validator) { v.ruleTimeout = d }
}

// WithLockWait makes concurrent validations of the same submission queue on
// the advisory lock instead of returning ErrBusy.
func WithLockWait(wait bool) Option {
	return func(v *Validator) { v.waitForLock = wait }
}

// New constructs a Validator.
func New(db *sqlx.DB, rules RuleSource, opts ...Option) (*Validator, error) {
	if db == nil {
		return nil, fmt.Errorf("database handle is required")
	}
	if rules == nil {
		return nil, fmt.Errorf("rule source is required")
	}
	v := &Validator{
		db:          db,
		rules:       rules,
		logger:      slog.Default(),
		ruleTimeout: DefaultRuleTimeout,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v, nil
}

// Validate runs every applicable single-file rule against one submission and
// file type, replacing that slice of the error set atomically. An empty
// severity filter means both severities. Returns the per-severity counts.
func (v *Validator) Validate(ctx context.Context, id domain.SubmissionID, ft domain.FileType, severities []domain.Severity) (Counts, error) {
	if len(severities) == 0 {
		severities = domain.AllSeverities()
	}
	start := time.Now()

	rules, err := v.rules.RulesFor(ctx, ft, false)
	if err != nil {
		return Counts{}, err
	}
	rules = filterSeverities(rules, severities)

	counts, err := v.run(ctx, id, ft, rules, func(tx *sqlx.Tx) error {
		return v.deleteErrors(ctx, tx, id, ft, severities)
	}, "row_number")
	if err != nil {
		return Counts{}, err
	}

	if v.metrics != nil {
		v.metrics.ObserveValidation(ft.String(), start)
	}
	v.logger.Info("validation finished",
		"submission_id", id.String(),
		"file_type", ft.String(),
		"fatal", counts.Fatal,
		"warnings", counts.Warning,
		"duration", time.Since(start),
	)
	return counts, nil
}

// ValidateCross runs every cross-file rule spanning the given file pair.
func (v *Validator) ValidateCross(ctx context.Context, id domain.SubmissionID, a, b domain.FileType) (Counts, error) {
	start := time.Now()

	rules, err := v.rules.RulesForPair(ctx, a, b)
	if err != nil {
		return Counts{}, err
	}

	counts, err := v.run(ctx, id, a, rules, func(tx *sqlx.Tx) error {
		return v.deleteCrossErrors(ctx, tx, id, a, b)
	}, "source_row_number")
	if err != nil {
		return Counts{}, err
	}

	if v.metrics != nil {
		v.metrics.ObserveValidation(a.String()+"-"+b.String(), start)
	}
	v.logger.Info("cross-file validation finished",
		"submission_id", id.String(),
		"files", a.String()+"/"+b.String(),
		"fatal", counts.Fatal,
		"warnings", counts.Warning,
		"duration", time.Since(start),
	)
	return counts, nil
}

// run executes a rule list inside one transaction: lock, swap out the prior
// error slice, execute rules in order, insert violations, commit. Any engine
// error rolls back, preserving the previous error set.
func (v *Validator) run(ctx context.Context, id domain.SubmissionID, ft domain.FileType, rules []catalog.Rule, deletePrior func(*sqlx.Tx) error, rowColumn string) (Counts, error) {
	tx, err := v.db.BeginTxx(ctx, nil)
	if err != nil {
		return Counts{}, fmt.Errorf("begin validation tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := v.lockSubmission(ctx, tx, id); err != nil {
		return Counts{}, err
	}

	bind, err := v.bindArgs(ctx, tx, id)
	if err != nil {
		return Counts{}, err
	}

	if err := deletePrior(tx); err != nil {
		return Counts{}, err
	}

	var counts Counts
	var records []ErrorRecord
	for i := range rules {
		if err := ctx.Err(); err != nil {
			return Counts{}, fmt.Errorf("%w: %v", sentinel.ErrCancelled, err)
		}
		rule := &rules[i]
		found, err := v.execRule(ctx, tx, id, rule, bind, rowColumn)
		if err != nil {
			if v.metrics != nil {
				kind := KindQuery
				var re *RuleError
				if errors.As(err, &re) {
					kind = re.Kind
				}
				v.metrics.RuleFailures.WithLabelValues(ft.String(), kind).Inc()
			}
			return Counts{}, err
		}
		if v.metrics != nil {
			v.metrics.RulesExecuted.WithLabelValues(ft.String(), rule.Severity.String()).Inc()
		}
		counts.add(rule.Severity, len(found))
		records = append(records, found...)
	}

	if err := v.insertErrors(ctx, tx, records); err != nil {
		return Counts{}, err
	}
	if err := tx.Commit(); err != nil {
		return Counts{}, fmt.Errorf("commit validation tx: %w", err)
	}

	if v.metrics != nil {
		v.metrics.ErrorsRecorded.WithLabelValues(ft.String(), domain.SeverityFatal.String()).Add(float64(counts.Fatal))
		v.metrics.ErrorsRecorded.WithLabelValues(ft.String(), domain.SeverityWarning.String()).Add(float64(counts.Warning))
	}
	return counts, nil
}

// lockSubmission serializes validations of one submission. Different
// submissions never contend; a second run on the same submission either waits
// or reports busy.
func (v *Validator) lockSubmission(ctx context.Context, tx *sqlx.Tx, id domain.SubmissionID) error {
	if v.waitForLock {
		if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, id.LockKey()); err != nil {
			return fmt.Errorf("acquire submission lock: %w", err)
		}
		return nil
	}
	var acquired bool
	if err := tx.GetContext(ctx, &acquired, `SELECT pg_try_advisory_xact_lock($1)`, id.LockKey()); err != nil {
		return fmt.Errorf("acquire submission lock: %w", err)
	}
	if !acquired {
		return sentinel.ErrBusy
	}
	return nil
}

// bindArgs builds the named parameters every predicate may reference.
// Besides the submission identity and reporting period, predicates get the
// period's calendar bounds for TAS validity-window joins and the agency-code
// alias set so SF-133 scoping honors shared CGAC codes.
func (v *Validator) bindArgs(ctx context.Context, tx *sqlx.Tx, id domain.SubmissionID) (map[string]any, error) {
	var sub struct {
		FiscalYear   int     `db:"reporting_fiscal_year"`
		FiscalPeriod int     `db:"reporting_fiscal_period"`
		CGACCode     *string `db:"cgac_code"`
		FRECCode     *string `db:"frec_code"`
	}
	err := tx.GetContext(ctx, &sub,
		`SELECT reporting_fiscal_year, reporting_fiscal_period, cgac_code, frec_code
		 FROM submission WHERE submission_id = $1`,
		id.String())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("load submission for binding: %w", err)
	}

	agency := ""
	if sub.CGACCode != nil && *sub.CGACCode != "" {
		agency = *sub.CGACCode
	} else if sub.FRECCode != nil {
		agency = *sub.FRECCode
	}
	codes := []string{agency}
	if v.refs != nil && agency != "" {
		if snap := v.refs.Current(); snap != nil {
			codes = snap.AliasesFor(agency)
		}
	}

	return map[string]any{
		"submission_id": id.String(),
		"fiscal_year":   sub.FiscalYear,
		"fiscal_period": sub.FiscalPeriod,
		"period_start":  fiscal.PeriodStart(sub.FiscalYear, sub.FiscalPeriod),
		"period_end":    fiscal.PeriodEnd(sub.FiscalYear, sub.FiscalPeriod),
		"agency_codes":  codes,
	}, nil
}

func (v *Validator) deleteErrors(ctx context.Context, tx *sqlx.Tx, id domain.SubmissionID, ft domain.FileType, severities []domain.Severity) error {
	sevs := make([]string, len(severities))
	for i, s := range severities {
		sevs[i] = s.String()
	}
	query, args, err := sqlx.In(`
		DELETE FROM error_record
		WHERE submission_id = ? AND file_type = ? AND target_file_type IS NULL AND severity IN (?)`,
		id.String(), ft.String(), sevs)
	if err != nil {
		return fmt.Errorf("build error delete: %w", err)
	}
	if _, err := tx.ExecContext(ctx, tx.Rebind(query), args...); err != nil {
		return fmt.Errorf("delete prior errors: %w", err)
	}
	return nil
}

func (v *Validator) deleteCrossErrors(ctx context.Context, tx *sqlx.Tx, id domain.SubmissionID, a, b domain.FileType) error {
	_, err := tx.ExecContext(ctx, `
		DELETE FROM error_record
		WHERE submission_id = $1
		  AND ((file_type = $2 AND target_file_type = $3) OR (file_type = $3 AND target_file_type = $2))`,
		id.String(), a.String(), b.String())
	if err != nil {
		return fmt.Errorf("delete prior cross-file errors: %w", err)
	}
	return nil
}

// execRule runs one predicate and materializes its violating rows. Each rule
// gets its own timeout; a timed-out or failed predicate is a fatal engine
// error carrying the offending label.
func (v *Validator) execRule(ctx context.Context, tx *sqlx.Tx, id domain.SubmissionID, rule *catalog.Rule, bind map[string]any, rowColumn string) ([]ErrorRecord, error) {
	rctx, cancel := context.WithTimeout(ctx, v.ruleTimeout)
	defer cancel()

	query, args, err := sqlx.Named(rule.PredicateSQL, bind)
	if err != nil {
		return nil, &RuleError{Label: rule.Label, Kind: KindQuery, Err: err}
	}
	query, args, err = sqlx.In(query, args...)
	if err != nil {
		return nil, &RuleError{Label: rule.Label, Kind: KindQuery, Err: err}
	}

	start := time.Now()
	rows, err := tx.QueryxContext(rctx, tx.Rebind(query), args...)
	if err != nil {
		kind := KindQuery
		if errors.Is(rctx.Err(), context.DeadlineExceeded) {
			kind = KindTimeout
		}
		return nil, &RuleError{Label: rule.Label, Kind: kind, Err: err}
	}
	defer func() {
		_ = rows.Close()
	}()

	var found []ErrorRecord
	now := time.Now().UTC()
	for rows.Next() {
		raw := map[string]any{}
		if err := rows.MapScan(raw); err != nil {
			return nil, &RuleError{Label: rule.Label, Kind: KindScan, Err: err}
		}
		row := normalizeRow(raw)

		if rule.IgnoreDeletes {
			if cdi, ok := row["correction_delete_indicatr"]; ok && strings.EqualFold(cdi, "d") {
				continue
			}
		}

		rowNumber, err := strconv.ParseInt(row[rowColumn], 10, 64)
		if err != nil {
			return nil, &RuleError{Label: rule.Label, Kind: KindScan,
				Err: fmt.Errorf("predicate row missing %s: %w", rowColumn, err)}
		}

		record := ErrorRecord{
			SubmissionID:    id.String(),
			FileType:        rule.FileType,
			RowNumber:       rowNumber,
			RuleLabel:       rule.Label,
			Severity:        rule.Severity,
			ResolvedMessage: resolveMessage(rule.ErrorMessage, row),
			SourceValues:    serializeSourceValues(row),
			ExpectedValue:   rule.ExpectedValue,
			CreatedAt:       now,
		}
		if rule.CrossFile {
			target := rule.TargetFile()
			record.TargetFileType = &target
		}
		found = append(found, record)
	}
	if err := rows.Err(); err != nil {
		kind := KindQuery
		if errors.Is(rctx.Err(), context.DeadlineExceeded) {
			kind = KindTimeout
		}
		return nil, &RuleError{Label: rule.Label, Kind: kind, Err: err}
	}

	if v.metrics != nil {
		v.metrics.RuleDuration.Observe(time.Since(start).Seconds())
	}
	return found, nil
}

func (v *Validator) insertErrors(ctx context.Context, tx *sqlx.Tx, records []ErrorRecord) error {
	if len(records) == 0 {
		return nil
	}
	stmt, err := tx.PrepareNamedContext(ctx, `
		INSERT INTO error_record (
			submission_id, file_type, target_file_type, row_number, rule_label,
			severity, resolved_message, source_values, expected_value, created_at
		) VALUES (
			:submission_id, :file_type, :target_file_type, :row_number, :rule_label,
			:severity, :resolved_message, :source_values, :expected_value, :created_at
		)`)
	if err != nil {
		return fmt.Errorf("prepare error insert: %w", err)
	}
	defer func() {
		_ = stmt.Close()
	}()
	for i := range records {
		if _, err := stmt.ExecContext(ctx, records[i]); err != nil {
			return fmt.Errorf("insert error record for rule %s: %w", records[i].RuleLabel, err)
		}
	}
	return nil
}

// Summary is one rule's error count, used by the status endpoint.
type Summary struct {
	RuleLabel string          `db:"rule_label"`
	Severity  domain.Severity `db:"severity"`
	Count     int             `db:"count"`
}

// Summarize returns per-rule error counts for a submission.
func (v *Validator) Summarize(ctx context.Context, id domain.SubmissionID) ([]Summary, error) {
	var out []Summary
	err := v.db.SelectContext(ctx, &out, `
		SELECT rule_label, severity, count(*) AS count
		FROM error_record
		WHERE submission_id = $1
		GROUP BY rule_label, severity
		ORDER BY CASE severity WHEN 'fatal' THEN 0 ELSE 1 END, rule_label`,
		id.String())
	if err != nil {
		return nil, fmt.Errorf("summarize errors: %w", err)
	}
	return out, nil
}

func filterSeverities(rules []catalog.Rule, severities []domain.Severity) []catalog.Rule {
	keep := map[domain.Severity]bool{}
	for _, s := range severities {
		keep[s] = true
	}
	out := rules[:0:0]
	for _, r := range rules {
		if keep[r.Severity] {
			out = append(out, r)
		}
	}
	return out
}
