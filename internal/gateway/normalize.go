package gateway

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

var limitWord = regexp.MustCompile(`(?i)\blimit\b`)

// Normalize trims query, drops one trailing ";" and appends "LIMIT <limit>"
// when no limit is present. WITH queries never get a limit injected: where a
// cap belongs in a CTE is left to the caller. A limit <= 0 disables
// injection.
func Normalize(query string, kind Kind, limit int) string {
	s := strings.TrimSpace(query)
	if strings.HasSuffix(s, ";") {
		s = strings.TrimRightFunc(s[:len(s)-1], unicode.IsSpace)
	}
	if kind == KindWithSelect || limit <= 0 || limitWord.MatchString(s) {
		return s
	}
	return s + " LIMIT " + strconv.Itoa(limit)
}
