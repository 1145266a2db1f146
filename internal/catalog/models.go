// Package catalog loads and stores the versioned rule catalog. Rules are data:
// a tabular manifest plus one parameterized SQL predicate file per rule. The
// catalog is content-addressed; loading is a no-op unless the checksum of the
// manifest and predicate bodies changes.
package catalog

import (
	"broker/pkg/domain"
)

// ManifestName is the tabular rule manifest inside a catalog source.
const ManifestName = "rules_manifest.csv"

// QueryPrefix is the directory inside a catalog source holding predicate files.
const QueryPrefix = "queries"

// Rule is one validation rule record. Label is the stable external contract
// (A1, B21, FABS44_3_2); it is never renumbered without migration.
type Rule struct {
	Label          string          `db:"rule_label"`
	ErrorMessage   string          `db:"rule_error_message"`
	CrossFile      bool            `db:"rule_cross_file_flag"`
	FileType       domain.FileType `db:"file_type"`
	Severity       domain.Severity `db:"severity_name"`
	QueryName      string          `db:"query_name"`
	TargetFileType *string         `db:"target_file"`
	ExpectedValue  string          `db:"expected_value"`
	Category       string          `db:"category"`

	// IgnoreDeletes skips rows with correction_delete_indicatr = 'D'. Most
	// rules set it; a small set (FABS49-class agency checks) must see deletes.
	IgnoreDeletes bool `db:"ignore_deletes"`

	// PredicateSQL is the body of the query file named by QueryName: a SELECT
	// returning the violating rows, bound at minimum on :submission_id.
	PredicateSQL string `db:"predicate_sql"`
}

// TargetFile returns the cross-file target, or empty for single-file rules.
func (r *Rule) TargetFile() string {
	if r.TargetFileType == nil {
		return ""
	}
	return *r.TargetFileType
}
