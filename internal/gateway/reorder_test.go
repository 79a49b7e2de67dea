package gateway

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// row builds a Row from alternating key, value arguments.
func row(kv ...any) *Row {
	r := NewRow()
	for i := 0; i+1 < len(kv); i += 2 {
		r.Set(kv[i].(string), kv[i+1])
	}
	return r
}

func resolved(names ...string) []ResolvedColumn {
	cols := make([]ResolvedColumn, len(names))
	for i, n := range names {
		cols[i] = ResolvedColumn{Name: n, Position: i, Wildcard: n == "*"}
	}
	return cols
}

func jsonOf(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return string(b)
}

func TestReorder_resolvedFirstThenRest(t *testing.T) {
	in := row("a", 1, "b", 2, "c", 3)
	columns, rows := Reorder(resolved("b", "a"), []*Row{in})

	assert.Equal(t, []string{"b", "a"}, columns)
	require.Len(t, rows, 1)
	assert.Equal(t, []string{"b", "a", "c"}, RowKeys(rows[0]))
	assert.Equal(t, `{"b":2,"a":1,"c":3}`, jsonOf(t, rows[0]))
	// input is not modified
	assert.Equal(t, []string{"a", "b", "c"}, RowKeys(in))
}

func TestReorder_fallbackToFirstRow(t *testing.T) {
	rows := []*Row{row("z", 1, "y", 2), row("y", 3, "z", 4, "x", 5)}
	columns, out := Reorder(nil, rows)
	assert.Equal(t, []string{"z", "y"}, columns)
	assert.Equal(t, []string{"z", "y"}, RowKeys(out[0]))
	assert.Equal(t, []string{"z", "y", "x"}, RowKeys(out[1]))
}

func TestReorder_noRows(t *testing.T) {
	columns, rows := Reorder(nil, nil)
	assert.NotNil(t, columns)
	assert.Empty(t, columns)
	assert.Empty(t, rows)

	columns, _ = Reorder(resolved("a", "b"), nil)
	assert.Equal(t, []string{"a", "b"}, columns)
}

func TestReorder_dedupAndMissing(t *testing.T) {
	columns, rows := Reorder(resolved("a", "b", "a"), []*Row{row("b", 1), row("c", 2, "a", 3)})
	assert.Equal(t, []string{"a", "b"}, columns)
	assert.Equal(t, []string{"b"}, RowKeys(rows[0]))
	assert.Equal(t, []string{"a", "c"}, RowKeys(rows[1]))
}

func TestReorder_wildcard(t *testing.T) {
	rows := []*Row{row("name", "X", "id", 1, "year", 2024)}
	columns, out := Reorder(resolved("id", "*"), rows)
	assert.Equal(t, []string{"id", "name", "year"}, columns)
	assert.Equal(t, []string{"id", "name", "year"}, RowKeys(out[0]))

	columns, _ = Reorder(resolved("*"), nil)
	assert.Empty(t, columns)
}

func TestReorder_nilRow(t *testing.T) {
	columns, out := Reorder(resolved("a"), []*Row{nil, row("a", 1)})
	assert.Equal(t, []string{"a"}, columns)
	assert.Equal(t, 0, out[0].Len())
	assert.Equal(t, []string{"a"}, RowKeys(out[1]))
}
