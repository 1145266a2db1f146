package staging

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"broker/pkg/domain"
)

// PostgresStore reads staging rows and writes FABS derived columns.
type PostgresStore struct {
	db *sqlx.DB
}

// NewPostgres constructs a PostgreSQL-backed staging store.
func NewPostgres(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// RowCount returns the number of staged rows for one submission and file type.
func (s *PostgresStore) RowCount(ctx context.Context, id domain.SubmissionID, ft domain.FileType) (int, error) {
	table := ft.StagingTable()
	if table == "" {
		return 0, fmt.Errorf("no staging table for file type %q", ft)
	}
	var n int
	query := fmt.Sprintf(`SELECT count(*) FROM %s WHERE submission_id = $1`, table)
	if err := s.db.GetContext(ctx, &n, query, id.String()); err != nil {
		return 0, fmt.Errorf("count %s rows: %w", ft, err)
	}
	return n, nil
}

// FABSForSubmission returns every FABS staging row of a submission in
// row-number order.
func (s *PostgresStore) FABSForSubmission(ctx context.Context, id domain.SubmissionID) ([]*FABS, error) {
	var rows []*FABS
	query := fmt.Sprintf(
		`SELECT * FROM %s WHERE submission_id = $1 ORDER BY row_number`,
		domain.FileTypeFABS.StagingTable())
	if err := s.db.SelectContext(ctx, &rows, query, id.String()); err != nil {
		return nil, fmt.Errorf("load fabs rows: %w", err)
	}
	return rows, nil
}

// fabsDerivedColumns lists every column the derivation pipeline owns. The
// update statement touches only these; source columns stay untouched.
var fabsDerivedColumns = []string{
	"total_funding_amount",
	"cfda_title",
	"awarding_agency_code",
	"awarding_agency_name",
	"awarding_sub_tier_agency_n",
	"funding_agency_code",
	"funding_agency_name",
	"funding_sub_tier_agency_na",
	"awarding_office_code",
	"awarding_office_name",
	"funding_office_code",
	"funding_office_name",
	"place_of_performance_code",
	"place_of_perfor_state_code",
	"place_of_perform_state_nam",
	"place_of_perform_county_co",
	"place_of_perform_county_na",
	"place_of_performance_city",
	"place_of_perform_country_c",
	"place_of_perform_country_n",
	"place_of_performance_zip4a",
	"place_of_performance_zip5",
	"place_of_perform_zip_last4",
	"place_of_performance_congr",
	"place_of_performance_forei",
	"place_of_performance_scope",
	"legal_entity_city_name",
	"legal_entity_city_code",
	"legal_entity_county_code",
	"legal_entity_county_name",
	"legal_entity_state_code",
	"legal_entity_state_name",
	"legal_entity_congressional",
	"legal_entity_country_name",
	"ultimate_parent_unique_ide",
	"ultimate_parent_legal_enti",
	"high_comp_officer1_full_na",
	"high_comp_officer1_amount",
	"high_comp_officer2_full_na",
	"high_comp_officer2_amount",
	"high_comp_officer3_full_na",
	"high_comp_officer3_amount",
	"high_comp_officer4_full_na",
	"high_comp_officer4_amount",
	"high_comp_officer5_full_na",
	"high_comp_officer5_amount",
	"action_type_description",
	"assistance_type_desc",
	"correction_delete_ind_desc",
	"record_type_description",
	"business_types_desc",
	"business_funds_ind_desc",
}

func fabsUpdateStatement() string {
	set := ""
	for i, col := range fabsDerivedColumns {
		if i > 0 {
			set += ", "
		}
		set += fmt.Sprintf("%s = :%s", col, col)
	}
	return fmt.Sprintf(
		`UPDATE %s SET %s WHERE detached_award_financial_assistance_id = :detached_award_financial_assistance_id`,
		domain.FileTypeFABS.StagingTable(), set)
}

// SaveFABSDerived writes the derived columns of the given rows back to the
// staging table in one transaction.
func (s *PostgresStore) SaveFABSDerived(ctx context.Context, rows []*FABS) error {
	if len(rows) == 0 {
		return nil
	}
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin derived update tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	stmt, err := tx.PrepareNamedContext(ctx, fabsUpdateStatement())
	if err != nil {
		return fmt.Errorf("prepare derived update: %w", err)
	}
	defer func() {
		_ = stmt.Close()
	}()

	for _, row := range rows {
		if _, err := stmt.ExecContext(ctx, row); err != nil {
			return fmt.Errorf("update derived columns for row %d: %w", row.RowNumber, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit derived update tx: %w", err)
	}
	return nil
}

// AwardOffices is the office state of the earliest modification of an award,
// used by the office-inheritance derivation stage.
type AwardOffices struct {
	AwardModificationAmendme *string `db:"award_modification_amendme"`
	AwardingOfficeCode       *string `db:"awarding_office_code"`
	FundingOfficeCode        *string `db:"funding_office_code"`
}

// BaseAwardOffices finds the earliest published record sharing an award key:
// FAIN for record types 2 and 3, URI for record type 1. Returns nil when no
// prior record exists.
func (s *PostgresStore) BaseAwardOffices(ctx context.Context, recordType int, fain, uri string) (*AwardOffices, error) {
	var (
		column string
		value  string
	)
	if recordType == 1 {
		column, value = "uri", uri
	} else {
		column, value = "fain", fain
	}
	if value == "" {
		return nil, nil
	}

	var base AwardOffices
	query := fmt.Sprintf(`
		SELECT award_modification_amendme, awarding_office_code, funding_office_code
		FROM published_fabs
		WHERE upper(%s) = upper($1) AND record_type = $2
		ORDER BY action_date, award_modification_amendme NULLS FIRST
		LIMIT 1`, column)
	if err := s.db.GetContext(ctx, &base, query, value, recordType); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("load base award offices: %w", err)
	}
	return &base, nil
}
