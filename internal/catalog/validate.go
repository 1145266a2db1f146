package catalog

import (
	"fmt"
	"regexp"
	"strings"

	"broker/pkg/domain"
	"broker/pkg/sentinel"
)

// Predicate bodies are SQL, but the loader enforces the engine's contract at
// load time so a malformed rule fails the catalog instead of a validation run:
// the body must bind :submission_id, must project the row identifier, and must
// project every column the error-message template interpolates.

var (
	namedParamPattern  = regexp.MustCompile(`(?:^|[^:\w]):([a-zA-Z_][a-zA-Z0-9_]*)`)
	placeholderPattern = regexp.MustCompile(`\{([a-zA-Z0-9_]+)\}`)
)

// allowedParams are the only bind parameters the engine supplies.
var allowedParams = map[string]bool{
	"submission_id": true,
	"fiscal_year":   true,
	"fiscal_period": true,
	"period_start":  true,
	"period_end":    true,
	"agency_codes":  true,
}

func validateRule(r *Rule) error {
	if !r.FileType.IsValid() {
		return fmt.Errorf("%w: rule %s: unknown file type %q", sentinel.ErrCatalogInvalid, r.Label, string(r.FileType))
	}
	if !r.Severity.IsValid() {
		return fmt.Errorf("%w: rule %s: unknown severity %q", sentinel.ErrCatalogInvalid, r.Label, string(r.Severity))
	}
	if r.CrossFile && r.TargetFile() == "" {
		return fmt.Errorf("%w: rule %s: cross-file rule missing target file", sentinel.ErrCatalogInvalid, r.Label)
	}
	return validatePredicate(r)
}

func validatePredicate(r *Rule) error {
	body := strings.ToLower(r.PredicateSQL)
	if strings.TrimSpace(body) == "" {
		return fmt.Errorf("%w: rule %s: empty predicate %s", sentinel.ErrCatalogInvalid, r.Label, r.QueryName)
	}
	if !strings.HasPrefix(strings.TrimSpace(body), "select") &&
		!strings.HasPrefix(strings.TrimSpace(body), "with") {
		return fmt.Errorf("%w: rule %s: predicate %s must be a SELECT", sentinel.ErrCatalogInvalid, r.Label, r.QueryName)
	}

	params := map[string]bool{}
	for _, m := range namedParamPattern.FindAllStringSubmatch(r.PredicateSQL, -1) {
		params[strings.ToLower(m[1])] = true
	}
	if !params["submission_id"] {
		return fmt.Errorf("%w: rule %s: predicate %s does not bind :submission_id", sentinel.ErrCatalogInvalid, r.Label, r.QueryName)
	}
	for p := range params {
		if !allowedParams[p] {
			return fmt.Errorf("%w: rule %s: predicate %s binds unknown parameter :%s", sentinel.ErrCatalogInvalid, r.Label, r.QueryName, p)
		}
	}

	rowColumn := "row_number"
	if r.CrossFile {
		rowColumn = "source_row_number"
	}
	if !strings.Contains(body, rowColumn) {
		return fmt.Errorf("%w: rule %s: predicate %s does not project %s", sentinel.ErrCatalogInvalid, r.Label, r.QueryName, rowColumn)
	}

	// The engine can only honor ignore_deletes if the predicate surfaces the
	// correction-delete indicator for it to inspect.
	if r.IgnoreDeletes && r.FileType == domain.FileTypeFABS && !strings.Contains(body, "correction_delete_indicatr") {
		return fmt.Errorf("%w: rule %s: predicate %s ignores deletes but does not project correction_delete_indicatr",
			sentinel.ErrCatalogInvalid, r.Label, r.QueryName)
	}

	for _, m := range placeholderPattern.FindAllStringSubmatch(r.ErrorMessage, -1) {
		column := strings.ToLower(m[1])
		if !strings.Contains(body, column) {
			return fmt.Errorf("%w: rule %s: message references column %q not projected by %s",
				sentinel.ErrCatalogInvalid, r.Label, column, r.QueryName)
		}
	}
	return nil
}
