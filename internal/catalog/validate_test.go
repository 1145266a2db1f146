package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"broker/pkg/domain"
	"broker/pkg/sentinel"
)

func singleFileRule(body, message string) *Rule {
	return &Rule{
		Label:        "A10",
		ErrorMessage: message,
		FileType:     domain.FileTypeAppropriations,
		Severity:     domain.SeverityFatal,
		QueryName:    "a10",
		PredicateSQL: body,
	}
}

func TestValidatePredicate(t *testing.T) {
	t.Run("accepts a well-formed predicate", func(t *testing.T) {
		r := singleFileRule(
			"SELECT row_number, tas FROM appropriation WHERE submission_id = :submission_id",
			"TAS {tas} missing")
		assert.NoError(t, validateRule(r))
	})

	t.Run("accepts a CTE predicate", func(t *testing.T) {
		r := singleFileRule(
			"WITH sums AS (SELECT row_number, tas FROM appropriation WHERE submission_id = :submission_id) SELECT * FROM sums",
			"")
		assert.NoError(t, validateRule(r))
	})

	t.Run("accepts fiscal parameters", func(t *testing.T) {
		r := singleFileRule(
			`SELECT row_number FROM appropriation
			 WHERE submission_id = :submission_id AND fiscal_year = :fiscal_year AND period = :fiscal_period`,
			"")
		assert.NoError(t, validateRule(r))
	})

	t.Run("accepts period bounds and agency code parameters", func(t *testing.T) {
		r := singleFileRule(
			`SELECT a.row_number FROM appropriation a
			 JOIN tas_lookup t ON t.tas = a.tas
			 WHERE a.submission_id = :submission_id
			   AND (t.internal_start_date IS NULL OR t.internal_start_date <= :period_end)
			   AND (t.internal_end_date IS NULL OR t.internal_end_date >= :period_start)
			   AND a.agency_identifier IN (:agency_codes)`,
			"")
		assert.NoError(t, validateRule(r))
	})

	t.Run("a double-colon cast is not a bind parameter", func(t *testing.T) {
		r := singleFileRule(
			"SELECT row_number, amount::numeric FROM appropriation WHERE submission_id = :submission_id",
			"")
		assert.NoError(t, validateRule(r))
	})

	t.Run("rejects a predicate that never binds submission_id", func(t *testing.T) {
		r := singleFileRule("SELECT row_number FROM appropriation", "")
		err := validateRule(r)
		require.ErrorIs(t, err, sentinel.ErrCatalogInvalid)
		assert.Contains(t, err.Error(), "submission_id")
	})

	t.Run("rejects an unknown bind parameter", func(t *testing.T) {
		r := singleFileRule(
			"SELECT row_number FROM appropriation WHERE submission_id = :submission_id AND agency = :agency_code",
			"")
		err := validateRule(r)
		require.ErrorIs(t, err, sentinel.ErrCatalogInvalid)
		assert.Contains(t, err.Error(), "agency_code")
	})

	t.Run("rejects a non-SELECT body", func(t *testing.T) {
		r := singleFileRule("DELETE FROM appropriation WHERE submission_id = :submission_id", "")
		require.ErrorIs(t, validateRule(r), sentinel.ErrCatalogInvalid)
	})

	t.Run("rejects a predicate that hides the row number", func(t *testing.T) {
		r := singleFileRule("SELECT tas FROM appropriation WHERE submission_id = :submission_id", "")
		require.ErrorIs(t, validateRule(r), sentinel.ErrCatalogInvalid)
	})

	t.Run("cross-file predicates must project source_row_number", func(t *testing.T) {
		target := "D1"
		r := &Rule{
			Label:          "C23",
			CrossFile:      true,
			FileType:       domain.FileTypeAwardFinancial,
			Severity:       domain.SeverityWarning,
			QueryName:      "c23",
			TargetFileType: &target,
			PredicateSQL:   "SELECT row_number FROM award_financial WHERE submission_id = :submission_id",
		}
		require.ErrorIs(t, validateRule(r), sentinel.ErrCatalogInvalid)

		r.PredicateSQL = "SELECT source_row_number FROM award_financial WHERE submission_id = :submission_id"
		assert.NoError(t, validateRule(r))
	})

	t.Run("an ignore-deletes assistance rule must project the delete indicator", func(t *testing.T) {
		r := &Rule{
			Label:         "FABS2",
			FileType:      domain.FileTypeFABS,
			Severity:      domain.SeverityFatal,
			QueryName:     "fabs2",
			IgnoreDeletes: true,
			PredicateSQL: `SELECT row_number, fain FROM detached_award_financial_assistance
				 WHERE submission_id = :submission_id AND action_date IS NULL`,
		}
		err := validateRule(r)
		require.ErrorIs(t, err, sentinel.ErrCatalogInvalid)
		assert.Contains(t, err.Error(), "correction_delete_indicatr")

		r.PredicateSQL = `SELECT row_number, fain, correction_delete_indicatr
			 FROM detached_award_financial_assistance
			 WHERE submission_id = :submission_id AND action_date IS NULL`
		assert.NoError(t, validateRule(r))
	})

	t.Run("rejects a message placeholder the predicate does not project", func(t *testing.T) {
		r := singleFileRule(
			"SELECT row_number FROM appropriation WHERE submission_id = :submission_id",
			"TAS {tas} missing")
		err := validateRule(r)
		require.ErrorIs(t, err, sentinel.ErrCatalogInvalid)
		assert.Contains(t, err.Error(), "tas")
	})
}
