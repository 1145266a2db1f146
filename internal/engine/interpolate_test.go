package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestResolveMessage(t *testing.T) {
	row := map[string]string{
		"tas":                        "019-2024/2024-1234-000",
		"budget_authority_appropria": "1000.5",
	}

	t.Run("substitutes projected columns", func(t *testing.T) {
		got := resolveMessage("TAS {tas} reported {budget_authority_appropria}", row)
		assert.Equal(t, "TAS 019-2024/2024-1234-000 reported 1000.5", got)
	})

	t.Run("unknown placeholder resolves empty", func(t *testing.T) {
		got := resolveMessage("value {missing_column} here", row)
		assert.Equal(t, "value  here", got)
	})

	t.Run("message without placeholders passes through", func(t *testing.T) {
		got := resolveMessage("static message", row)
		assert.Equal(t, "static message", got)
	})
}

func TestNormalizeRow(t *testing.T) {
	when := time.Date(2024, time.January, 15, 10, 30, 0, 0, time.UTC)
	row := normalizeRow(map[string]any{
		"row_number": []byte("42"),
		"tas":        "019",
		"amount":     1000.5,
		"posted":     when,
		"deleted":    nil,
	})

	assert.Equal(t, "42", row["row_number"])
	assert.Equal(t, "019", row["tas"])
	assert.Equal(t, "1000.5", row["amount"])
	assert.Equal(t, "2024-01-15", row["posted"])
	assert.Equal(t, "", row["deleted"])
}

func TestSerializeSourceValues(t *testing.T) {
	row := map[string]string{"b": "2", "a": "1"}

	first := serializeSourceValues(row)
	second := serializeSourceValues(map[string]string{"a": "1", "b": "2"})

	assert.JSONEq(t, `{"a":"1","b":"2"}`, first)
	assert.Equal(t, first, second)
}
