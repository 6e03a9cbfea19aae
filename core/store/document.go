package store

import "time"

// Document is a loosely typed projection of a profile, as returned by
// JoinData. Getters return zero values for missing or mistyped fields.
type Document map[string]any

// Has reports if the document contains key.
func (d Document) Has(key string) bool {
	_, ok := d[key]
	return ok
}

// String returns the string stored under key.
func (d Document) String(key string) string {
	s, _ := d[key].(string)
	return s
}

// Int returns the integer stored under key. Numeric types produced by JSON or
// BSON decoding are converted.
func (d Document) Int(key string) int {
	switch v := d[key].(type) {
	case int:
		return v
	case int32:
		return int(v)
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}

// Ints returns the integer slice stored under key.
func (d Document) Ints(key string) []int {
	switch v := d[key].(type) {
	case []int:
		return append([]int(nil), v...)
	case []any:
		out := make([]int, 0, len(v))
		for _, e := range v {
			out = append(out, Document{"v": e}.Int("v"))
		}
		return out
	}
	return nil
}

// Balances returns the currency map stored under key.
func (d Document) Balances(key string) map[string]int {
	v, ok := d[key].(map[string]int)
	if !ok {
		return map[string]int{}
	}
	return copyBalances(v)
}

// Time returns the timestamp stored under key.
func (d Document) Time(key string) time.Time {
	t, _ := d[key].(time.Time)
	return t
}
