package engine

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/suite"

	"broker/internal/catalog"
	"broker/internal/platform/logger"
	"broker/internal/reference"
	"broker/pkg/domain"
	"broker/pkg/sentinel"
)

type fixedRules struct {
	single []catalog.Rule
	cross  []catalog.Rule
}

func (f *fixedRules) RulesFor(ctx context.Context, ft domain.FileType, crossFile bool) ([]catalog.Rule, error) {
	return f.single, nil
}

func (f *fixedRules) RulesForPair(ctx context.Context, a, b domain.FileType) ([]catalog.Rule, error) {
	return f.cross, nil
}

type ValidatorSuite struct {
	suite.Suite
	ctx   context.Context
	db    *sqlx.DB
	mock  sqlmock.Sqlmock
	rules *fixedRules
	v     *Validator
	id    domain.SubmissionID
}

func TestValidatorSuite(t *testing.T) {
	suite.Run(t, new(ValidatorSuite))
}

func (s *ValidatorSuite) SetupTest() {
	s.ctx = context.Background()
	raw, mock, err := sqlmock.New()
	s.Require().NoError(err)
	s.mock = mock
	s.db = sqlx.NewDb(raw, "sqlmock")
	s.rules = &fixedRules{}
	s.v, err = New(s.db, s.rules, WithLogger(logger.Discard()))
	s.Require().NoError(err)
	s.id = domain.NewSubmissionID()
}

func (s *ValidatorSuite) TearDownTest() {
	s.NoError(s.mock.ExpectationsWereMet())
	_ = s.db.Close()
}

func (s *ValidatorSuite) appropriationRule(label string, severity domain.Severity) catalog.Rule {
	return catalog.Rule{
		Label:         label,
		ErrorMessage:  "TAS {tas} failed a balance check",
		FileType:      domain.FileTypeAppropriations,
		Severity:      severity,
		QueryName:     label,
		IgnoreDeletes: true,
		PredicateSQL:  "SELECT row_number, tas FROM appropriation WHERE submission_id = :submission_id",
	}
}

func submissionRow(fy, fp int, cgac string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"reporting_fiscal_year", "reporting_fiscal_period", "cgac_code", "frec_code"}).
		AddRow(fy, fp, cgac, nil)
}

func (s *ValidatorSuite) expectSetup() {
	s.mock.ExpectBegin()
	s.mock.ExpectQuery(`SELECT pg_try_advisory_xact_lock`).
		WillReturnRows(sqlmock.NewRows([]string{"pg_try_advisory_xact_lock"}).AddRow(true))
	s.mock.ExpectQuery(`SELECT reporting_fiscal_year, reporting_fiscal_period, cgac_code, frec_code`).
		WillReturnRows(submissionRow(2024, 6, "020"))
	s.mock.ExpectExec(`DELETE FROM error_record`).
		WillReturnResult(sqlmock.NewResult(0, 0))
}

// TestValidate verifies the single-file path: lock, swap, execute, count.
func (s *ValidatorSuite) TestValidate() {
	s.Run("records violations and returns counts", func() {
		s.rules.single = []catalog.Rule{s.appropriationRule("A10", domain.SeverityFatal)}

		s.expectSetup()
		s.mock.ExpectQuery(`SELECT row_number, tas FROM appropriation`).
			WillReturnRows(sqlmock.NewRows([]string{"row_number", "tas"}).
				AddRow("3", "019-2024/2024-1234-000").
				AddRow("7", "019-2024/2024-9999-000"))
		s.mock.ExpectPrepare(`INSERT INTO error_record`)
		s.mock.ExpectExec(`INSERT INTO error_record`).WillReturnResult(sqlmock.NewResult(1, 1))
		s.mock.ExpectExec(`INSERT INTO error_record`).WillReturnResult(sqlmock.NewResult(2, 1))
		s.mock.ExpectCommit()

		counts, err := s.v.Validate(s.ctx, s.id, domain.FileTypeAppropriations, nil)
		s.Require().NoError(err)
		s.Equal(2, counts.Fatal)
		s.Equal(0, counts.Warning)
	})

	s.Run("skips deleted rows when the rule ignores deletes", func() {
		s.rules.single = []catalog.Rule{s.appropriationRule("FABS11", domain.SeverityFatal)}

		s.expectSetup()
		s.mock.ExpectQuery(`SELECT row_number, tas FROM appropriation`).
			WillReturnRows(sqlmock.NewRows([]string{"row_number", "tas", "correction_delete_indicatr"}).
				AddRow("1", "019", "D").
				AddRow("2", "019", ""))
		s.mock.ExpectPrepare(`INSERT INTO error_record`)
		s.mock.ExpectExec(`INSERT INTO error_record`).WillReturnResult(sqlmock.NewResult(1, 1))
		s.mock.ExpectCommit()

		counts, err := s.v.Validate(s.ctx, s.id, domain.FileTypeAppropriations, nil)
		s.Require().NoError(err)
		s.Equal(1, counts.Fatal)
	})

	s.Run("keeps deleted rows when the rule must see them", func() {
		rule := s.appropriationRule("FABS49", domain.SeverityFatal)
		rule.IgnoreDeletes = false
		s.rules.single = []catalog.Rule{rule}

		s.expectSetup()
		s.mock.ExpectQuery(`SELECT row_number, tas FROM appropriation`).
			WillReturnRows(sqlmock.NewRows([]string{"row_number", "tas", "correction_delete_indicatr"}).
				AddRow("1", "019", "D"))
		s.mock.ExpectPrepare(`INSERT INTO error_record`)
		s.mock.ExpectExec(`INSERT INTO error_record`).WillReturnResult(sqlmock.NewResult(1, 1))
		s.mock.ExpectCommit()

		counts, err := s.v.Validate(s.ctx, s.id, domain.FileTypeAppropriations, nil)
		s.Require().NoError(err)
		s.Equal(1, counts.Fatal)
	})

	s.Run("no rules still swaps the error slice", func() {
		s.rules.single = nil

		s.expectSetup()
		s.mock.ExpectCommit()

		counts, err := s.v.Validate(s.ctx, s.id, domain.FileTypeAppropriations, nil)
		s.Require().NoError(err)
		s.Equal(Counts{}, counts)
	})

	s.Run("severity filter drops warning rules", func() {
		s.rules.single = []catalog.Rule{
			s.appropriationRule("A10", domain.SeverityFatal),
			s.appropriationRule("A14", domain.SeverityWarning),
		}

		s.expectSetup()
		s.mock.ExpectQuery(`SELECT row_number, tas FROM appropriation`).
			WillReturnRows(sqlmock.NewRows([]string{"row_number", "tas"}))
		s.mock.ExpectCommit()

		counts, err := s.v.Validate(s.ctx, s.id, domain.FileTypeAppropriations,
			[]domain.Severity{domain.SeverityFatal})
		s.Require().NoError(err)
		s.Equal(Counts{}, counts)
	})
}

// TestValidateLocking verifies advisory-lock behaviour.
func (s *ValidatorSuite) TestValidateLocking() {
	s.Run("held lock reports busy", func() {
		s.rules.single = []catalog.Rule{s.appropriationRule("A10", domain.SeverityFatal)}

		s.mock.ExpectBegin()
		s.mock.ExpectQuery(`SELECT pg_try_advisory_xact_lock`).
			WillReturnRows(sqlmock.NewRows([]string{"pg_try_advisory_xact_lock"}).AddRow(false))
		s.mock.ExpectRollback()

		_, err := s.v.Validate(s.ctx, s.id, domain.FileTypeAppropriations, nil)
		s.Require().ErrorIs(err, sentinel.ErrBusy)
	})

	s.Run("lock wait mode blocks instead", func() {
		v, err := New(s.db, s.rules, WithLogger(logger.Discard()), WithLockWait(true))
		s.Require().NoError(err)
		s.rules.single = nil

		s.mock.ExpectBegin()
		s.mock.ExpectExec(`SELECT pg_advisory_xact_lock`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		s.mock.ExpectQuery(`SELECT reporting_fiscal_year, reporting_fiscal_period, cgac_code, frec_code`).
			WillReturnRows(submissionRow(2024, 6, "020"))
		s.mock.ExpectExec(`DELETE FROM error_record`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		s.mock.ExpectCommit()

		_, err = v.Validate(s.ctx, s.id, domain.FileTypeAppropriations, nil)
		s.Require().NoError(err)
	})
}

// TestValidateFailures verifies error paths roll back and tag the rule.
func (s *ValidatorSuite) TestValidateFailures() {
	s.Run("unknown submission returns ErrNotFound", func() {
		s.rules.single = nil

		s.mock.ExpectBegin()
		s.mock.ExpectQuery(`SELECT pg_try_advisory_xact_lock`).
			WillReturnRows(sqlmock.NewRows([]string{"pg_try_advisory_xact_lock"}).AddRow(true))
		s.mock.ExpectQuery(`SELECT reporting_fiscal_year, reporting_fiscal_period, cgac_code, frec_code`).
			WillReturnRows(sqlmock.NewRows([]string{"reporting_fiscal_year", "reporting_fiscal_period", "cgac_code", "frec_code"}))
		s.mock.ExpectRollback()

		_, err := s.v.Validate(s.ctx, s.id, domain.FileTypeAppropriations, nil)
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("failing predicate carries the rule label", func() {
		s.rules.single = []catalog.Rule{s.appropriationRule("A10", domain.SeverityFatal)}

		s.expectSetup()
		s.mock.ExpectQuery(`SELECT row_number, tas FROM appropriation`).
			WillReturnError(context.DeadlineExceeded)
		s.mock.ExpectRollback()

		_, err := s.v.Validate(s.ctx, s.id, domain.FileTypeAppropriations, nil)
		s.Require().Error(err)
		var re *RuleError
		s.Require().ErrorAs(err, &re)
		s.Equal("A10", re.Label)
	})

	s.Run("cancelled context stops between rules", func() {
		s.rules.single = []catalog.Rule{s.appropriationRule("A10", domain.SeverityFatal)}

		ctx, cancel := context.WithCancel(s.ctx)
		cancel()

		s.mock.ExpectBegin()
		s.mock.ExpectQuery(`SELECT pg_try_advisory_xact_lock`).
			WillReturnRows(sqlmock.NewRows([]string{"pg_try_advisory_xact_lock"}).AddRow(true))
		s.mock.ExpectQuery(`SELECT reporting_fiscal_year, reporting_fiscal_period, cgac_code, frec_code`).
			WillReturnRows(submissionRow(2024, 6, "020"))
		s.mock.ExpectExec(`DELETE FROM error_record`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		s.mock.ExpectRollback()

		_, err := s.v.Validate(ctx, s.id, domain.FileTypeAppropriations, nil)
		s.Require().ErrorIs(err, sentinel.ErrCancelled)
	})
}

// TestValidateCross verifies the cross-file path deletes both orientations
// and tags records with the target file type.
func (s *ValidatorSuite) TestValidateCross() {
	target := "D1"
	s.rules.cross = []catalog.Rule{{
		Label:          "C23",
		ErrorMessage:   "Award {piid} has no matching procurement record",
		CrossFile:      true,
		FileType:       domain.FileTypeAwardFinancial,
		Severity:       domain.SeverityWarning,
		QueryName:      "C23",
		TargetFileType: &target,
		IgnoreDeletes:  true,
		PredicateSQL:   "SELECT source_row_number, piid FROM award_financial WHERE submission_id = :submission_id",
	}}

	s.mock.ExpectBegin()
	s.mock.ExpectQuery(`SELECT pg_try_advisory_xact_lock`).
		WillReturnRows(sqlmock.NewRows([]string{"pg_try_advisory_xact_lock"}).AddRow(true))
	s.mock.ExpectQuery(`SELECT reporting_fiscal_year, reporting_fiscal_period, cgac_code, frec_code`).
		WillReturnRows(submissionRow(2024, 6, "020"))
	s.mock.ExpectExec(`DELETE FROM error_record`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	s.mock.ExpectQuery(`SELECT source_row_number, piid FROM award_financial`).
		WillReturnRows(sqlmock.NewRows([]string{"source_row_number", "piid"}).AddRow("5", "0001"))
	s.mock.ExpectPrepare(`INSERT INTO error_record`)
	s.mock.ExpectExec(`INSERT INTO error_record`).WillReturnResult(sqlmock.NewResult(1, 1))
	s.mock.ExpectCommit()

	counts, err := s.v.ValidateCross(s.ctx, s.id, domain.FileTypeAwardFinancial, domain.FileTypeProcurement)
	s.Require().NoError(err)
	s.Equal(1, counts.Warning)
}

// TestAgencyCodeBinding verifies :agency_codes expands to the submission's
// full alias set when a reference snapshot is attached.
func (s *ValidatorSuite) TestAgencyCodeBinding() {
	snap := reference.NewSnapshot()
	snap.Aliases["097"] = []string{"017", "021"}
	v, err := New(s.db, s.rules, WithLogger(logger.Discard()), WithReferences(fixedRefs{snap}))
	s.Require().NoError(err)

	rule := s.appropriationRule("A33", domain.SeverityFatal)
	rule.PredicateSQL = `SELECT row_number, tas FROM appropriation
		WHERE submission_id = :submission_id AND agency_identifier IN (:agency_codes)`
	s.rules.single = []catalog.Rule{rule}

	s.mock.ExpectBegin()
	s.mock.ExpectQuery(`SELECT pg_try_advisory_xact_lock`).
		WillReturnRows(sqlmock.NewRows([]string{"pg_try_advisory_xact_lock"}).AddRow(true))
	s.mock.ExpectQuery(`SELECT reporting_fiscal_year, reporting_fiscal_period, cgac_code, frec_code`).
		WillReturnRows(submissionRow(2016, 1, "097"))
	s.mock.ExpectExec(`DELETE FROM error_record`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	s.mock.ExpectQuery(`agency_identifier IN \(\?, \?, \?\)`).
		WithArgs(s.id.String(), "097", "017", "021").
		WillReturnRows(sqlmock.NewRows([]string{"row_number", "tas"}))
	s.mock.ExpectCommit()

	counts, err := v.Validate(s.ctx, s.id, domain.FileTypeAppropriations, nil)
	s.Require().NoError(err)
	s.Equal(Counts{}, counts)
}

type fixedRefs struct{ snap *reference.Snapshot }

func (f fixedRefs) Current() *reference.Snapshot { return f.snap }
