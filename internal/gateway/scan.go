package gateway

import (
	"strings"
)

// scanMode is the lexical context of the scanner.
type scanMode int

const (
	modeDefault scanMode = iota // top level
	modeParen                   // inside one or more parentheses
	modeQuoted                  // inside a '...' or "..." literal
)

// scanner walks SQL text one byte at a time, tracking parenthesis depth and
// the active quote character. Every delimiter it cares about is ASCII, so
// stepping through UTF-8 bytes is safe.
type scanner struct {
	mode  scanMode
	depth int
	quote byte
	stray bool // saw ")" with nothing open
}

// step consumes c and reports whether c is top-level content: outside any
// parentheses or quotes and not itself a delimiter.
func (s *scanner) step(c byte) bool {
	switch s.mode {
	case modeQuoted:
		if c == s.quote {
			s.quote = 0
			s.mode = s.outerMode()
		}
		return false
	default:
		switch c {
		case '\'', '"':
			s.quote = c
			s.mode = modeQuoted
			return false
		case '(':
			s.depth++
			s.mode = modeParen
			return false
		case ')':
			if s.depth == 0 {
				s.stray = true
			} else {
				s.depth--
			}
			s.mode = s.outerMode()
			return false
		}
		return s.mode == modeDefault
	}
}

func (s *scanner) outerMode() scanMode {
	if s.depth > 0 {
		return modeParen
	}
	return modeDefault
}

// closed reports whether every parenthesis and quote opened so far was
// closed again.
func (s *scanner) closed() bool {
	return s.mode == modeDefault && !s.stray
}

// Segment is one top-level comma-separated expression of a select-list,
// trimmed of surrounding whitespace.
type Segment string

// SplitSelectList splits list on commas that are outside parentheses and
// quoted literals. The bool is false when the list ends inside an open quote
// or parenthesis, or closes one that was never opened.
func SplitSelectList(list string) ([]Segment, bool) {
	var (
		sc       scanner
		segments []Segment
		start    int
	)
	for i := 0; i < len(list); i++ {
		if sc.step(list[i]) && list[i] == ',' {
			segments = append(segments, Segment(strings.TrimSpace(list[start:i])))
			start = i + 1
		}
	}
	if last := strings.TrimSpace(list[start:]); last != "" {
		segments = append(segments, Segment(last))
	}
	return segments, sc.closed()
}

// listTerminators end a select-list when the statement has no FROM.
var listTerminators = [][]string{
	{"group", "by"}, {"where"}, {"having"}, {"order", "by"}, {"limit"},
	{"offset"}, {"union"}, {"intersect"}, {"except"}, {"fetch"},
}

// SelectList returns the select-list text of sql with its original case. For
// KindSelect it follows the first top-level SELECT; for KindWithSelect it
// follows the last one, the statement the CTEs feed into. The list ends at
// the first top-level FROM or, when there is none, at the earliest clause
// keyword that can follow a select-list. A leading DISTINCT, DISTINCT ON (...)
// or ALL is dropped.
func SelectList(sql string, kind Kind) (string, bool) {
	selects := keywordOffsets(sql, "select")
	if len(selects) == 0 {
		return "", false
	}
	at := selects[0]
	if kind == KindWithSelect {
		at = selects[len(selects)-1]
	}
	body := sql[at+len("select"):]

	end := len(body)
	if from := keywordOffsets(body, "from"); len(from) > 0 {
		end = from[0]
	} else {
		for _, kw := range listTerminators {
			if offs := keywordOffsets(body, kw...); len(offs) > 0 && offs[0] < end {
				end = offs[0]
			}
		}
	}
	return dropSetQuantifier(strings.TrimSpace(body[:end])), true
}

func dropSetQuantifier(list string) string {
	if end, ok := matchWords(list, 0, "distinct", "on"); ok {
		rest := strings.TrimLeft(list[end:], " \t\r\n")
		if strings.HasPrefix(rest, "(") {
			var sc scanner
			for i := 0; i < len(rest); i++ {
				sc.step(rest[i])
				if sc.closed() {
					return strings.TrimSpace(rest[i+1:])
				}
			}
		}
		return list
	}
	for _, kw := range []string{"distinct", "all"} {
		if end, ok := matchWords(list, 0, kw); ok {
			return strings.TrimSpace(list[end:])
		}
	}
	return list
}

// keywordOffsets returns the byte offsets of every top-level occurrence of
// the keyword sequence words in s. Matching is ASCII case-insensitive and
// respects word boundaries; consecutive words may be separated by any
// whitespace.
func keywordOffsets(s string, words ...string) []int {
	var (
		sc   scanner
		offs []int
	)
	for i := 0; i < len(s); i++ {
		if !sc.step(s[i]) {
			continue
		}
		if i > 0 && isIdentByte(s[i-1]) {
			continue
		}
		if _, ok := matchWords(s, i, words...); ok {
			offs = append(offs, i)
		}
	}
	return offs
}

// matchWords reports whether words start at s[i], each ending on a word
// boundary, and returns the offset just past the last word.
func matchWords(s string, i int, words ...string) (int, bool) {
	for n, w := range words {
		if n > 0 {
			j := i
			for j < len(s) && isSpace(s[j]) {
				j++
			}
			if j == i {
				return 0, false
			}
			i = j
		}
		if len(s)-i < len(w) || !strings.EqualFold(s[i:i+len(w)], w) {
			return 0, false
		}
		i += len(w)
		if i < len(s) && isIdentByte(s[i]) {
			return 0, false
		}
	}
	return i, true
}

func isIdentByte(c byte) bool {
	return c == '_' || c == '$' || c >= 0x80 ||
		('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || ('0' <= c && c <= '9')
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v'
}
