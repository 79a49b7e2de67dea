package gateway

import (
	"fmt"
	"regexp"
	"strings"
)

// Kind is the classification of a submitted query.
type Kind int

const (
	KindRejected Kind = iota
	KindSelect
	KindWithSelect
)

func (k Kind) String() string {
	switch k {
	case KindSelect:
		return "select"
	case KindWithSelect:
		return "with_select"
	default:
		return "rejected"
	}
}

// Rejection reasons carried by ValidationError.
const (
	ReasonNotSelect      = "only SELECT/WITH permitted"
	ReasonWithNoSelect   = "WITH clause must terminate in SELECT"
	ReasonMultiStatement = "multiple statements not permitted"
)

var (
	selectWord = regexp.MustCompile(`\bselect\b`)
	dmlWord    = regexp.MustCompile(`\b(insert|update|delete)\b`)
)

// Classify decides whether query is a permitted read-only statement. The
// check is textual: it looks at the leading keyword and, for WITH queries,
// requires some ")"-delimited section to hold a SELECT with no DML keyword.
// It is a safety heuristic, not a parser; a DML keyword hidden in a string
// literal inside a CTE can still fool it.
//
// With strict set, a keyword guard runs as well: comments
// and string literals are removed and any data or schema modifying keyword,
// or a second statement, rejects the query.
func Classify(query string, strict bool) (Kind, error) {
	cleaned := strings.ToLower(strings.TrimSpace(query))

	var kind Kind
	switch {
	case strings.HasPrefix(cleaned, "select"):
		kind = KindSelect
	case strings.HasPrefix(cleaned, "with"):
		if !terminatesInSelect(cleaned) {
			return KindRejected, &ValidationError{Reason: ReasonWithNoSelect, Query: query}
		}
		kind = KindWithSelect
	default:
		return KindRejected, &ValidationError{Reason: ReasonNotSelect, Query: query}
	}

	if strict {
		if reason := strictReadOnly(query); reason != "" {
			return KindRejected, &ValidationError{Reason: reason, Query: query}
		}
	}
	return kind, nil
}

func terminatesInSelect(cleaned string) bool {
	for _, section := range strings.Split(cleaned, ")") {
		if selectWord.MatchString(section) && !dmlWord.MatchString(section) {
			return true
		}
	}
	return false
}

// forbidden in strict mode: keywords that modify data or schema
var forbiddenSQLWords = []string{
	"INSERT", "UPDATE", "DELETE", "DROP", "CREATE", "ALTER", "TRUNCATE",
	"GRANT", "REVOKE", "EXEC", "EXECUTE", "MERGE",
}

var (
	sqlLineComment  = regexp.MustCompile(`--[^\n]*`)
	sqlBlockComment = regexp.MustCompile(`/\*[\s\S]*?\*/`)
	sqlLiteral      = regexp.MustCompile(`'(?:[^']|'')*'`)
	forbiddenWordRe = regexp.MustCompile(`(?i)\b(` + strings.Join(forbiddenSQLWords, "|") + `)\b`)
)

// strictReadOnly returns a rejection reason, or "" if the query passes.
func strictReadOnly(query string) string {
	cleaned := sqlLineComment.ReplaceAllString(query, " ")
	cleaned = sqlBlockComment.ReplaceAllString(cleaned, " ")
	cleaned = sqlLiteral.ReplaceAllString(cleaned, "''")
	cleaned = strings.TrimSpace(cleaned)
	if loc := forbiddenWordRe.FindStringIndex(cleaned); loc != nil {
		word := strings.ToUpper(cleaned[loc[0]:loc[1]])
		return fmt.Sprintf("read-only queries only: found %q", word)
	}
	cleaned = strings.TrimSpace(strings.TrimSuffix(cleaned, ";"))
	if strings.Contains(cleaned, ";") {
		return ReasonMultiStatement
	}
	return ""
}
