package engine

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"time"
)

var placeholderPattern = regexp.MustCompile(`\{([a-zA-Z0-9_]+)\}`)

// resolveMessage substitutes {column} placeholders in a rule's error message
// with the violating row's projected values. Unknown placeholders resolve to
// an empty string; the catalog loader rejects them before they get here, so
// this only happens on a catalog/predicate drift mid-run.
func resolveMessage(template string, row map[string]string) string {
	return placeholderPattern.ReplaceAllStringFunc(template, func(m string) string {
		column := m[1 : len(m)-1]
		return row[column]
	})
}

// normalizeRow converts a scanned row into the string map used for message
// interpolation and source-value serialization.
func normalizeRow(raw map[string]any) map[string]string {
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		out[k] = stringify(v)
	}
	return out
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(t)
	case string:
		return t
	case time.Time:
		return t.Format("2006-01-02")
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}

// serializeSourceValues renders the projected columns as stable JSON. Map
// marshaling sorts keys, so identical violations serialize identically.
func serializeSourceValues(row map[string]string) string {
	raw, err := json.Marshal(row)
	if err != nil {
		return "{}"
	}
	return string(raw)
}
