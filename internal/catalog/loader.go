package catalog

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"

	"broker/internal/catalog/metrics"
	"broker/pkg/domain"
	"broker/pkg/sentinel"
)

// Loader reads a catalog source, validates it, and re-materializes the rule
// table when the content checksum changes. Loading never tears down a good
// catalog: any validation failure aborts before the store is touched.
type Loader struct {
	store   *PostgresStore
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithMetrics sets the catalog metrics.
func WithMetrics(m *metrics.Metrics) LoaderOption {
	return func(l *Loader) { l.metrics = m }
}

// NewLoader constructs a catalog loader.
func NewLoader(store *PostgresStore, logger *slog.Logger, opts ...LoaderOption) *Loader {
	l := &Loader{store: store, logger: logger}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Diff reports whether the source differs from the stored catalog.
func (l *Loader) Diff(ctx context.Context, src Source) (bool, error) {
	_, version, err := l.read(ctx, src)
	if err != nil {
		return false, err
	}
	current, err := l.store.CurrentVersion(ctx)
	if err != nil {
		return false, err
	}
	return version != current, nil
}

// Load reads, validates, and stores the catalog. Returns the number of rules
// materialized, or 0 when the stored catalog already matches the source.
func (l *Loader) Load(ctx context.Context, src Source) (int, error) {
	rules, version, err := l.read(ctx, src)
	if err != nil {
		return 0, err
	}

	current, err := l.store.CurrentVersion(ctx)
	if err != nil {
		return 0, err
	}
	if current == version {
		l.logger.Info("rule catalog unchanged", "version", version)
		return 0, nil
	}

	if err := l.store.Replace(ctx, version, rules); err != nil {
		return 0, err
	}
	if l.metrics != nil {
		l.metrics.ObserveLoad(version, len(rules))
	}
	l.logger.Info("rule catalog loaded", "version", version, "rules", len(rules))
	return len(rules), nil
}

// read parses the manifest, attaches predicate bodies, validates every rule,
// and computes the canonical content checksum.
func (l *Loader) read(ctx context.Context, src Source) ([]Rule, string, error) {
	raw, err := src.Manifest(ctx)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", sentinel.ErrCatalogInvalid, err)
	}
	rules, err := parseManifest(raw)
	if err != nil {
		return nil, "", err
	}

	for i := range rules {
		body, err := src.Predicate(ctx, rules[i].QueryName)
		if err != nil {
			return nil, "", fmt.Errorf("%w: rule %s: %v", sentinel.ErrCatalogInvalid, rules[i].Label, err)
		}
		rules[i].PredicateSQL = string(body)
		if err := validateRule(&rules[i]); err != nil {
			return nil, "", err
		}
	}

	sort.Slice(rules, func(i, j int) bool { return rules[i].Label < rules[j].Label })
	return rules, checksum(rules), nil
}

// manifest column order is fixed by the rule-file contract.
var manifestColumns = []string{
	"rule_label",
	"rule_error_message",
	"rule_cross_file_flag",
	"file_type",
	"severity_name",
	"query_name",
	"target_file",
	"expected_value",
	"category",
	"ignore_deletes",
}

func parseManifest(raw []byte) ([]Rule, error) {
	reader := csv.NewReader(bytes.NewReader(raw))
	reader.FieldsPerRecord = len(manifestColumns)

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: read manifest header: %v", sentinel.ErrCatalogInvalid, err)
	}
	for i, want := range manifestColumns {
		if strings.TrimSpace(header[i]) != want {
			return nil, fmt.Errorf("%w: manifest column %d is %q, want %q",
				sentinel.ErrCatalogInvalid, i, header[i], want)
		}
	}

	var rules []Rule
	seen := map[string]bool{}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: read manifest row: %v", sentinel.ErrCatalogInvalid, err)
		}

		label := strings.TrimSpace(record[0])
		if label == "" {
			return nil, fmt.Errorf("%w: manifest row with empty rule_label", sentinel.ErrCatalogInvalid)
		}
		if seen[label] {
			return nil, fmt.Errorf("%w: duplicate rule label %s", sentinel.ErrCatalogInvalid, label)
		}
		seen[label] = true

		fileType, err := domain.ParseFileType(strings.TrimSpace(record[3]))
		if err != nil {
			return nil, fmt.Errorf("%w: rule %s: %v", sentinel.ErrCatalogInvalid, label, err)
		}
		severity, err := domain.ParseSeverity(strings.TrimSpace(record[4]))
		if err != nil {
			return nil, fmt.Errorf("%w: rule %s: %v", sentinel.ErrCatalogInvalid, label, err)
		}

		rule := Rule{
			Label:         label,
			ErrorMessage:  record[1],
			CrossFile:     parseBool(record[2]),
			FileType:      fileType,
			Severity:      severity,
			QueryName:     strings.TrimSpace(record[5]),
			ExpectedValue: record[7],
			Category:      record[8],
			IgnoreDeletes: record[9] == "" || parseBool(record[9]),
		}
		if target := strings.TrimSpace(record[6]); target != "" {
			if _, err := domain.ParseFileType(target); err != nil {
				return nil, fmt.Errorf("%w: rule %s: %v", sentinel.ErrCatalogInvalid, label, err)
			}
			rule.TargetFileType = &target
		}
		if rule.QueryName == "" {
			return nil, fmt.Errorf("%w: rule %s: empty query_name", sentinel.ErrCatalogInvalid, label)
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "t", "1", "yes":
		return true
	default:
		return false
	}
}

// checksum hashes the normalized manifest fields and predicate bodies in label
// order, so formatting-only manifest edits still count as changes only when
// they alter a field the engine reads.
func checksum(rules []Rule) string {
	h := sha256.New()
	for _, r := range rules {
		for _, field := range []string{
			r.Label, r.ErrorMessage, fmt.Sprint(r.CrossFile),
			string(r.FileType), string(r.Severity), r.QueryName,
			r.TargetFile(), r.ExpectedValue, r.Category,
			fmt.Sprint(r.IgnoreDeletes), r.PredicateSQL,
		} {
			h.Write([]byte(field))
			h.Write([]byte{0})
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}
