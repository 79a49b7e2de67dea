package gateway

// Reorder rebuilds rows so that resolved columns come first, in resolved
// order, followed by any other keys each row carries in that row's own order.
// It returns the output column list: the resolved names deduplicated by first
// occurrence, or the first row's keys when nothing was resolved. A wildcard
// column expands in place to the first row's keys that are not named
// elsewhere in the list.
//
// When an alias shares its name with a real column, the resolved name wins
// the position and the value is whatever the executor keyed under that name.
func Reorder(resolved []ResolvedColumn, rows []*Row) ([]string, []*Row) {
	columns := outputColumns(resolved, rows)
	out := make([]*Row, len(rows))
	for i, r := range rows {
		out[i] = reorderRow(columns, r)
	}
	return columns, out
}

func outputColumns(resolved []ResolvedColumn, rows []*Row) []string {
	var first []string
	if len(rows) > 0 {
		first = RowKeys(rows[0])
	}
	if len(resolved) == 0 {
		return append([]string{}, first...)
	}

	named := make(map[string]struct{}, len(resolved))
	for _, c := range resolved {
		if !c.Wildcard {
			named[c.Name] = struct{}{}
		}
	}

	columns := make([]string, 0, len(resolved))
	seen := make(map[string]struct{}, len(resolved))
	add := func(name string) {
		if _, dup := seen[name]; dup {
			return
		}
		seen[name] = struct{}{}
		columns = append(columns, name)
	}
	for _, c := range resolved {
		if !c.Wildcard {
			add(c.Name)
			continue
		}
		for _, k := range first {
			if _, ok := named[k]; !ok {
				add(k)
			}
		}
	}
	return columns
}

func reorderRow(columns []string, row *Row) *Row {
	out := NewRow()
	if row == nil {
		return out
	}
	for _, c := range columns {
		if v, ok := row.Get(c); ok {
			out.Set(c, v)
		}
	}
	for p := row.Oldest(); p != nil; p = p.Next() {
		if _, done := out.Get(p.Key); !done {
			out.Set(p.Key, p.Value)
		}
	}
	return out
}
