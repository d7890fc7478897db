package docstore

import (
	"cmp"
	"slices"
)

// Filter matches documents whose field equals Value.
type Filter struct {
	Field string
	Value any
}

// Where builds an equality filter.
func Where(field string, value any) Filter {
	return Filter{Field: field, Value: value}
}

// Query selects and orders documents of one collection.
type Query struct {
	Where   []Filter
	OrderBy string
	Desc    bool
	Limit   int
}

func (q Query) matches(d *Document) bool {
	for _, f := range q.Where {
		if !equalValues(d.Fields[f.Field], f.Value) {
			return false
		}
	}
	return true
}

// apply filters, orders and limits docs in place and returns the result.
func (q Query) apply(docs []*Document) []*Document {
	out := docs[:0]
	for _, d := range docs {
		if q.matches(d) {
			out = append(out, d)
		}
	}

	if q.OrderBy != "" {
		slices.SortStableFunc(out, func(a, b *Document) int {
			c := compareValues(a.Fields[q.OrderBy], b.Fields[q.OrderBy])
			if q.Desc {
				c = -c
			}
			if c == 0 {
				c = cmp.Compare(a.ID, b.ID)
			}
			return c
		})
	}

	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out
}

func equalValues(a, b any) bool {
	if isNumber(a) && isNumber(b) {
		return numberOf(a) == numberOf(b)
	}
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	case nil:
		return b == nil
	}
	return false
}

// compareValues orders missing values first, then numbers, then strings.
func compareValues(a, b any) int {
	ra, rb := rank(a), rank(b)
	if ra != rb {
		return cmp.Compare(ra, rb)
	}
	switch ra {
	case 1:
		return cmp.Compare(numberOf(a), numberOf(b))
	case 2:
		return cmp.Compare(a.(string), b.(string))
	}
	return 0
}

func rank(v any) int {
	switch {
	case isNumber(v):
		return 1
	default:
		if _, ok := v.(string); ok {
			return 2
		}
		return 0
	}
}

func isNumber(v any) bool {
	switch v.(type) {
	case float64, float32, int, int32, int64, uint, uint32, uint64:
		return true
	}
	return false
}
