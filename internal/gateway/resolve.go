package gateway

import "strings"

// ResolvedColumn is the output name of one select-list expression.
type ResolvedColumn struct {
	Name     string
	Position int
	// Wildcard marks "*" or "t.*"; the reorderer expands it from row keys.
	Wildcard bool
}

// Resolve extracts the select-list of sql and resolves every expression to
// its output column name. It returns nil when resolution fails for any part
// of the list; callers then fall back to the row's own key order.
func Resolve(sql string, kind Kind) []ResolvedColumn {
	list, ok := SelectList(sql, kind)
	if !ok {
		return nil
	}
	segments, ok := SplitSelectList(list)
	if !ok {
		return nil
	}
	cols, ok := ResolveColumns(segments)
	if !ok {
		return nil
	}
	return cols
}

// ResolveColumns names each segment: the text after the last top-level AS,
// else the text after the last top-level unquoted dot, else the segment
// itself, with one pair of surrounding quotes removed. Empty segments are
// skipped. The bool is false if any segment cannot be named.
func ResolveColumns(segments []Segment) ([]ResolvedColumn, bool) {
	cols := make([]ResolvedColumn, 0, len(segments))
	for _, seg := range segments {
		text := strings.TrimSpace(string(seg))
		if text == "" {
			continue
		}
		name, ok := columnName(text)
		if !ok {
			return nil, false
		}
		cols = append(cols, ResolvedColumn{
			Name:     name,
			Position: len(cols),
			Wildcard: name == "*",
		})
	}
	return cols, true
}

func columnName(seg string) (string, bool) {
	name := seg
	if as := keywordOffsets(seg, "as"); len(as) > 0 {
		name = seg[as[len(as)-1]+len("as"):]
	} else if dot := lastTopLevel(seg, '.'); dot >= 0 {
		name = seg[dot+1:]
	}
	name = unquote(strings.TrimSpace(name))
	return name, name != ""
}

func lastTopLevel(s string, c byte) int {
	var sc scanner
	at := -1
	for i := 0; i < len(s); i++ {
		if sc.step(s[i]) && s[i] == c {
			at = i
		}
	}
	return at
}

// unquote strips one matching pair of single or double quotes.
func unquote(s string) string {
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}
