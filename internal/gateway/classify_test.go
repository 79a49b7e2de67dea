package gateway

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		sql    string
		want   Kind
		reason string
	}{
		{"SELECT 1", KindSelect, ""},
		{"  select * from users  ", KindSelect, ""},
		{"\n\tSeLeCt id FROM t", KindSelect, ""},
		{"WITH cte AS (SELECT 1) SELECT * FROM cte", KindWithSelect, ""},
		{"with a as (select id from t), b as (select id from a) select id from b", KindWithSelect, ""},
		{"with x as (select updated_at from t) select * from x", KindWithSelect, ""},
		{"INSERT INTO t VALUES (1)", KindRejected, ReasonNotSelect},
		{"UPDATE t SET x = 1", KindRejected, ReasonNotSelect},
		{"DELETE FROM t", KindRejected, ReasonNotSelect},
		{"DROP TABLE t", KindRejected, ReasonNotSelect},
		{"-- comment\nSELECT 1", KindRejected, ReasonNotSelect},
		{"", KindRejected, ReasonNotSelect},
		{"   ", KindRejected, ReasonNotSelect},
		{"WITH x AS (UPDATE t SET a = 1 RETURNING a) DELETE FROM t", KindRejected, ReasonWithNoSelect},
		{"WITH d AS (DELETE FROM t RETURNING id) INSERT INTO log SELECT id FROM d", KindRejected, ReasonWithNoSelect},
		{"with", KindRejected, ReasonWithNoSelect},
	}
	for _, tt := range tests {
		kind, err := Classify(tt.sql, false)
		assert.Equal(t, tt.want, kind, "Classify(%q)", tt.sql)
		if tt.reason == "" {
			assert.NoError(t, err, "Classify(%q)", tt.sql)
			continue
		}
		var verr *ValidationError
		require.True(t, errors.As(err, &verr), "Classify(%q): got %v, want ValidationError", tt.sql, err)
		assert.Equal(t, tt.reason, verr.Reason)
		assert.Equal(t, tt.sql, verr.Query)
	}
}

func TestClassify_strict(t *testing.T) {
	tests := []struct {
		sql  string
		want bool // true = accepted
	}{
		{"SELECT 1", true},
		{"SELECT * FROM users WHERE status = 'update pending'", true},
		{"SELECT 1 -- drop table t", true},
		{"SELECT 1 /* delete */", true},
		{"SELECT 1;", true},
		{"SELECT replace(name, 'a', 'b') FROM t", true},
		{"SELECT 1; INSERT INTO t VALUES (1)", false},
		{"SELECT 1; SELECT 2", false},
		{"WITH x AS (SELECT 1) SELECT * FROM x; DROP TABLE t", false},
		{"SELECT * FROM t WHERE id IN (SELECT id FROM u) AND EXISTS (DELETE FROM t)", false},
	}
	for _, tt := range tests {
		_, err := Classify(tt.sql, true)
		assert.Equal(t, tt.want, err == nil, "Classify(%q, strict): err=%v", tt.sql, err)
		if err != nil {
			var verr *ValidationError
			assert.True(t, errors.As(err, &verr))
		}
	}
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "select", KindSelect.String())
	assert.Equal(t, "with_select", KindWithSelect.String())
	assert.Equal(t, "rejected", KindRejected.String())
}

func TestEcho(t *testing.T) {
	short := "select 1"
	assert.Equal(t, short, Echo(short))

	exact := make([]byte, 100)
	for i := range exact {
		exact[i] = 'a'
	}
	assert.Equal(t, string(exact), Echo(string(exact)))

	long := string(exact) + "bcd"
	assert.Equal(t, string(exact)+"...", Echo(long))

	// counts characters, not bytes
	wide := ""
	for i := 0; i < 101; i++ {
		wide += "é"
	}
	got := Echo(wide)
	assert.Equal(t, wide[:200]+"...", got)
}

func TestValidationError_message(t *testing.T) {
	_, err := Classify("TRUNCATE users", false)
	require.Error(t, err)
	assert.Equal(t, "only SELECT/WITH permitted. Attempted query: TRUNCATE users", err.Error())
}
