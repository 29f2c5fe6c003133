// Package jsonvalue implements structural equality, right-biased deep merge and
// deep copy over decoded JSON values (map[string]any, []any and scalars).
//
// Object key order never matters; array element order always does. Values of
// different shapes compare unequal rather than failing.
package jsonvalue

import "encoding/json"

// Equal reports whether a and b are structurally equal.
func Equal(a, b any) bool {
	if an, ok := number(a); ok {
		bn, ok := number(b)
		return ok && an == bn
	}

	switch av := a.(type) {
	case nil:
		return b == nil
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	case map[string]any:
		bv, ok := asObject(b)
		return ok && equalObjects(av, bv)
	case map[string]string:
		bv, ok := asObject(b)
		return ok && equalObjects(widenObject(av), bv)
	case []any:
		bv, ok := asArray(b)
		return ok && equalArrays(av, bv)
	case []string:
		bv, ok := asArray(b)
		return ok && equalArrays(widenArray(av), bv)
	default:
		return false
	}
}

func equalObjects(a, b map[string]any) bool {
	if len(a) != len(b) {
		return false
	}
	for k, av := range a {
		bv, ok := b[k]
		if !ok || !Equal(av, bv) {
			return false
		}
	}
	return true
}

func equalArrays(a, b []any) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

// Merge deep-merges src over dst and returns a new map.
//   - Objects present on both sides: merged recursively
//   - Arrays and scalars: replaced by src
//   - Keys only in dst: retained
//
// Neither argument is modified.
func Merge(dst, src map[string]any) map[string]any {
	out := CloneMap(dst)
	if out == nil {
		out = make(map[string]any, len(src))
	}
	for k, sv := range src {
		if sm, ok := asObject(sv); ok {
			if dm, ok := asObject(out[k]); ok {
				out[k] = Merge(dm, sm)
				continue
			}
		}
		out[k] = Clone(sv)
	}
	return out
}

// Clone returns a deep copy of v. Scalars are returned as-is.
func Clone(v any) any {
	switch tv := v.(type) {
	case map[string]any:
		return CloneMap(tv)
	case map[string]string:
		return widenObject(tv)
	case []any:
		out := make([]any, len(tv))
		for i, e := range tv {
			out[i] = Clone(e)
		}
		return out
	case []string:
		return widenArray(tv)
	default:
		return v
	}
}

// CloneMap returns a deep copy of m, or nil when m is nil.
func CloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = Clone(v)
	}
	return out
}

func asObject(v any) (map[string]any, bool) {
	switch tv := v.(type) {
	case map[string]any:
		return tv, true
	case map[string]string:
		return widenObject(tv), true
	default:
		return nil, false
	}
}

func asArray(v any) ([]any, bool) {
	switch tv := v.(type) {
	case []any:
		return tv, true
	case []string:
		return widenArray(tv), true
	default:
		return nil, false
	}
}

func widenObject(m map[string]string) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func widenArray(s []string) []any {
	out := make([]any, len(s))
	for i, v := range s {
		out[i] = v
	}
	return out
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
