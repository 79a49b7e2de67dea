package gateway

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Row is one record keyed by column name. Iteration order is insertion order:
// for raw rows that is whatever the executor produced, for reordered rows it
// is the resolved column order followed by any leftover keys.
type Row = orderedmap.OrderedMap[string, any]

// NewRow returns an empty row.
func NewRow() *Row {
	return orderedmap.New[string, any]()
}

// RowKeys returns the keys of r in iteration order. A nil row has no keys.
func RowKeys(r *Row) []string {
	if r == nil {
		return nil
	}
	keys := make([]string, 0, r.Len())
	for p := r.Oldest(); p != nil; p = p.Next() {
		keys = append(keys, p.Key)
	}
	return keys
}
