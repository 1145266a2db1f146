// Package engine executes catalog rules against a submission's staging rows
// and materializes structured error records. Violations are data, not errors:
// a run that finds ten thousand bad rows still succeeds. Engine errors
// (predicate failures, timeouts, lock contention) short-circuit the run and
// leave the submission's previous error set intact.
package engine

import (
	"fmt"
	"time"

	"broker/pkg/domain"
)

// ErrorRecord is one materialized rule violation.
type ErrorRecord struct {
	SubmissionID    string          `db:"submission_id"`
	FileType        domain.FileType `db:"file_type"`
	TargetFileType  *string         `db:"target_file_type"`
	RowNumber       int64           `db:"row_number"`
	RuleLabel       string          `db:"rule_label"`
	Severity        domain.Severity `db:"severity"`
	ResolvedMessage string          `db:"resolved_message"`
	SourceValues    string          `db:"source_values"`
	ExpectedValue   string          `db:"expected_value"`
	CreatedAt       time.Time       `db:"created_at"`
}

// Counts summarizes one validation run by severity.
type Counts struct {
	Fatal   int
	Warning int
}

// Total returns the combined error count.
func (c Counts) Total() int {
	return c.Fatal + c.Warning
}

func (c *Counts) add(sev domain.Severity, n int) {
	if sev == domain.SeverityFatal {
		c.Fatal += n
		return
	}
	c.Warning += n
}

// Rule error kinds reported to the orchestrator.
const (
	KindQuery   = "query"
	KindTimeout = "timeout"
	KindScan    = "scan"
)

// RuleError is a fatal engine error attributable to one rule.
type RuleError struct {
	Label string
	Kind  string
	Err   error
}

func (e *RuleError) Error() string {
	return fmt.Sprintf("rule %s: %s error: %v", e.Label, e.Kind, e.Err)
}

func (e *RuleError) Unwrap() error {
	return e.Err
}
