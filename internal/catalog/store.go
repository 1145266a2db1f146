package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"broker/pkg/domain"
)

// PostgresStore persists the rule catalog.
type PostgresStore struct {
	db *sqlx.DB
}

// NewPostgres constructs a PostgreSQL-backed catalog store.
func NewPostgres(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// CurrentVersion returns the checksum of the stored catalog, or empty when no
// catalog has been loaded yet.
func (s *PostgresStore) CurrentVersion(ctx context.Context) (string, error) {
	var version string
	err := s.db.GetContext(ctx, &version, `SELECT version FROM rule_catalog_version`)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get catalog version: %w", err)
	}
	return version, nil
}

// Replace swaps in a new catalog in one transaction. Readers never observe a
// half-written rule set.
func (s *PostgresStore) Replace(ctx context.Context, version string, rules []Rule) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin catalog tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM rule_catalog`); err != nil {
		return fmt.Errorf("clear rule catalog: %w", err)
	}
	stmt, err := tx.PrepareNamedContext(ctx, `
		INSERT INTO rule_catalog (
			rule_label, rule_error_message, rule_cross_file_flag, file_type,
			severity_name, query_name, target_file, expected_value, category,
			ignore_deletes, predicate_sql
		) VALUES (
			:rule_label, :rule_error_message, :rule_cross_file_flag, :file_type,
			:severity_name, :query_name, :target_file, :expected_value, :category,
			:ignore_deletes, :predicate_sql
		)`)
	if err != nil {
		return fmt.Errorf("prepare rule insert: %w", err)
	}
	defer func() {
		_ = stmt.Close()
	}()
	for i := range rules {
		if _, err := stmt.ExecContext(ctx, rules[i]); err != nil {
			return fmt.Errorf("insert rule %s: %w", rules[i].Label, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO rule_catalog_version (singleton, version, loaded_at)
		VALUES (true, $1, now())
		ON CONFLICT (singleton) DO UPDATE SET version = $1, loaded_at = now()`, version); err != nil {
		return fmt.Errorf("record catalog version: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit catalog tx: %w", err)
	}
	return nil
}

const ruleColumns = `rule_label, rule_error_message, rule_cross_file_flag, file_type,
	severity_name, query_name, target_file, expected_value, category, ignore_deletes,
	predicate_sql`

// RulesFor returns the single-file or cross-file rules targeting a file type,
// fatal before warning, label order within a severity.
func (s *PostgresStore) RulesFor(ctx context.Context, ft domain.FileType, crossFile bool) ([]Rule, error) {
	var rules []Rule
	query := fmt.Sprintf(`
		SELECT %s FROM rule_catalog
		WHERE file_type = $1 AND rule_cross_file_flag = $2
		ORDER BY CASE severity_name WHEN 'fatal' THEN 0 ELSE 1 END, rule_label`, ruleColumns)
	if err := s.db.SelectContext(ctx, &rules, query, ft.String(), crossFile); err != nil {
		return nil, fmt.Errorf("load rules for %s: %w", ft, err)
	}
	return rules, nil
}

// RulesForPair returns the cross-file rules spanning the given pair of file
// types, in either orientation.
func (s *PostgresStore) RulesForPair(ctx context.Context, a, b domain.FileType) ([]Rule, error) {
	var rules []Rule
	query := fmt.Sprintf(`
		SELECT %s FROM rule_catalog
		WHERE rule_cross_file_flag = true
		  AND ((file_type = $1 AND target_file = $2) OR (file_type = $2 AND target_file = $1))
		ORDER BY CASE severity_name WHEN 'fatal' THEN 0 ELSE 1 END, rule_label`, ruleColumns)
	if err := s.db.SelectContext(ctx, &rules, query, a.String(), b.String()); err != nil {
		return nil, fmt.Errorf("load cross-file rules for %s/%s: %w", a, b, err)
	}
	return rules, nil
}
