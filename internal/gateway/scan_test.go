package gateway

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitSelectList(t *testing.T) {
	tests := []struct {
		list string
		want []Segment
		ok   bool
	}{
		{"a, b, c", []Segment{"a", "b", "c"}, true},
		{"f(a,b) AS r", []Segment{"f(a,b) AS r"}, true},
		{"coalesce(a, max(b, c)), d", []Segment{"coalesce(a, max(b, c))", "d"}, true},
		{"'a,b' AS s, \"x,y\"", []Segment{"'a,b' AS s", `"x,y"`}, true},
		{"concat('(', a, ')') AS p, b", []Segment{"concat('(', a, ')') AS p", "b"}, true},
		{`'it''s, fine' AS q, r`, []Segment{`'it''s, fine' AS q`, "r"}, true},
		{"\"a'b\", c", []Segment{`"a'b"`, "c"}, true},
		{"a,,b", []Segment{"a", "", "b"}, true},
		{"a, b,", []Segment{"a", "b"}, true},
		{"", nil, true},
		{"f(a, b", []Segment{"f(a, b"}, false},
		{"'open, b", []Segment{"'open, b"}, false},
		{"a), b", []Segment{"a)", "b"}, false},
	}
	for _, tt := range tests {
		got, ok := SplitSelectList(tt.list)
		assert.Equal(t, tt.want, got, "SplitSelectList(%q)", tt.list)
		assert.Equal(t, tt.ok, ok, "SplitSelectList(%q) ok", tt.list)
	}
}

func TestScanner_modes(t *testing.T) {
	var sc scanner
	steps := []struct {
		c    byte
		top  bool
		mode scanMode
	}{
		{'a', true, modeDefault},
		{'(', false, modeParen},
		{'(', false, modeParen},
		{'\'', false, modeQuoted},
		{')', false, modeQuoted},
		{'\'', false, modeParen},
		{')', false, modeParen},
		{',', false, modeParen},
		{')', false, modeDefault},
		{',', true, modeDefault},
		{'"', false, modeQuoted},
		{'\'', false, modeQuoted},
		{'"', false, modeDefault},
	}
	for i, s := range steps {
		assert.Equal(t, s.top, sc.step(s.c), "step %d (%q)", i, s.c)
		assert.Equal(t, s.mode, sc.mode, "mode after step %d (%q)", i, s.c)
	}
	assert.True(t, sc.closed())
}

func TestSelectList(t *testing.T) {
	tests := []struct {
		sql  string
		kind Kind
		want string
		ok   bool
	}{
		{"SELECT a, b AS c FROM t", KindSelect, "a, b AS c", true},
		{"select id, name from cars LIMIT 500", KindSelect, "id, name", true},
		{"SELECT extract(year FROM d) AS y FROM t", KindSelect, "extract(year FROM d) AS y", true},
		{"SELECT a AS \"from\" FROM t", KindSelect, "a AS \"from\"", true},
		{"SELECT date_from, b FROM t", KindSelect, "date_from, b", true},
		{"SELECT region, count(*) GROUP BY region", KindSelect, "region, count(*)", true},
		{"SELECT 1 LIMIT 1000", KindSelect, "1", true},
		{"SELECT now()", KindSelect, "now()", true},
		{"SELECT\n\ta,\n\tb\nFROM\n\tt", KindSelect, "a,\n\tb", true},
		{"SELECT DISTINCT a, b FROM t", KindSelect, "a, b", true},
		{"SELECT DISTINCT ON (a) a, b FROM t", KindSelect, "a, b", true},
		{"SELECT ALL a FROM t", KindSelect, "a", true},
		{"SELECT a FROM t UNION SELECT b FROM u", KindSelect, "a", true},
		{"WITH x AS (SELECT id, name FROM t) SELECT name, id FROM x", KindWithSelect, "name, id", true},
		{"WITH a AS (SELECT 1 AS one), b AS (SELECT 2 AS two) SELECT one, two FROM a, b", KindWithSelect, "one, two", true},
		{"WITH x AS (SELECT 1) (SELECT 2)", KindWithSelect, "", false},
		{"selectivity", KindSelect, "", false},
	}
	for _, tt := range tests {
		got, ok := SelectList(tt.sql, tt.kind)
		assert.Equal(t, tt.ok, ok, "SelectList(%q) ok", tt.sql)
		assert.Equal(t, tt.want, got, "SelectList(%q)", tt.sql)
	}
}

func TestKeywordOffsets(t *testing.T) {
	assert.Equal(t, []int{9}, keywordOffsets("select a from t", "from"))
	assert.Nil(t, keywordOffsets("select fromage", "from"))
	assert.Nil(t, keywordOffsets("select 'from'", "from"))
	assert.Equal(t, []int{9}, keywordOffsets("select a GROUP\n  BY a", "group", "by"))
	assert.Nil(t, keywordOffsets("select groupby", "group", "by"))
}
