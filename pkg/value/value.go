// Package value implements the tagged-union event payload carried by
// every Hap: numbers, strings, booleans, lists, and maps (used for chords,
// voicings, and parameter bundles).
package value

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Kind discriminates the variant held by a Value.
type Kind int

const (
	KindNumber Kind = iota
	KindString
	KindBool
	KindList
	KindMap
)

// V is the tagged union. Exactly one of the payload fields is meaningful
// for a given Kind; the others are left zero.
type V struct {
	Kind Kind
	Num  float64
	Str  string
	Bool bool
	List []V
	Map  map[string]V
}

// Number, String, Bool, List and Map are constructors for each variant.
func Number(n float64) V { return V{Kind: KindNumber, Num: n} }
func String(s string) V  { return V{Kind: KindString, Str: s} }
func Bool(b bool) V      { return V{Kind: KindBool, Bool: b} }
func List(vs []V) V      { return V{Kind: KindList, List: vs} }

func Map(m map[string]V) V { return V{Kind: KindMap, Map: m} }

// MapOf is a convenience constructor building a Map from alternating
// key/value pairs, mainly used in tests and registry glue code.
func MapOf(pairs ...any) V {
	m := map[string]V{}
	for i := 0; i+1 < len(pairs); i += 2 {
		k, _ := pairs[i].(string)
		v, _ := pairs[i+1].(V)
		m[k] = v
	}
	return Map(m)
}

// AsNumber extracts a float64, with best-effort coercion from strings and
// booleans so that arithmetic combinators can operate on mini-notation
// atoms that were lexed as bare words.
func (v V) AsNumber() (float64, bool) {
	switch v.Kind {
	case KindNumber:
		return v.Num, true
	case KindString:
		f, err := strconv.ParseFloat(v.Str, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	case KindBool:
		if v.Bool {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}

// AsString renders v as a string; used by sinks and diagnostics.
func (v V) AsString() string {
	switch v.Kind {
	case KindNumber:
		return strconv.FormatFloat(v.Num, 'g', -1, 64)
	case KindString:
		return v.Str
	case KindBool:
		return strconv.FormatBool(v.Bool)
	case KindList:
		parts := make([]string, len(v.List))
		for i, e := range v.List {
			parts[i] = e.AsString()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case KindMap:
		keys := make([]string, 0, len(v.Map))
		for k := range v.Map {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = fmt.Sprintf("%s: %s", k, v.Map[k].AsString())
		}
		return "{" + strings.Join(parts, ", ") + "}"
	default:
		return ""
	}
}

// SoundOrString renders v the way a console or log line wants it: a bare
// mini-notation atom lowers to {s: name} once it resolves through a name
// registry, and this unwraps that single-key shape back to the plain name
// instead of showing map-brace syntax. Anything else falls back to
// AsString, including a map that also carries n/gain/etc alongside s.
func (v V) SoundOrString() string {
	if v.Kind == KindMap && len(v.Map) == 1 {
		if s, ok := v.Map["s"]; ok {
			return s.AsString()
		}
	}
	return v.AsString()
}

// Truthy implements the struct/mask truthiness convention: zero numbers,
// empty or "~" strings, false booleans, empty lists and empty maps are
// false; everything else is true.
func (v V) Truthy() bool {
	switch v.Kind {
	case KindNumber:
		return v.Num != 0
	case KindString:
		return v.Str != "" && v.Str != "~"
	case KindBool:
		return v.Bool
	case KindList:
		return len(v.List) > 0
	case KindMap:
		return len(v.Map) > 0
	default:
		return false
	}
}

// AsMap promotes scalars to a single-entry {value: x} map, matching the
// spec's "scalars promote to {value: x} as needed" merge rule. Maps pass
// through unchanged.
func (v V) AsMap() map[string]V {
	if v.Kind == KindMap {
		return v.Map
	}
	return map[string]V{"value": v}
}

// MergeLeft combines v and o into a Map, with v's entries taking
// precedence over o's on key collision ("∪", left-biased union).
func MergeLeft(v, o V) V {
	return mergeBiased(v, o, false)
}

// MergeRight combines v and o into a Map, with o's entries taking
// precedence over v's on key collision ("#", right-biased union).
func MergeRight(v, o V) V {
	return mergeBiased(v, o, true)
}

func mergeBiased(v, o V, rightWins bool) V {
	out := map[string]V{}
	for k, val := range v.AsMap() {
		out[k] = val
	}
	for k, val := range o.AsMap() {
		if rightWins {
			out[k] = val
		} else if _, exists := out[k]; !exists {
			out[k] = val
		}
	}
	return Map(out)
}

// Equal does a deep structural comparison, used by pattern determinism
// tests.
func Equal(a, b V) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindNumber:
		return a.Num == b.Num
	case KindString:
		return a.Str == b.Str
	case KindBool:
		return a.Bool == b.Bool
	case KindList:
		if len(a.List) != len(b.List) {
			return false
		}
		for i := range a.List {
			if !Equal(a.List[i], b.List[i]) {
				return false
			}
		}
		return true
	case KindMap:
		if len(a.Map) != len(b.Map) {
			return false
		}
		for k, av := range a.Map {
			bv, ok := b.Map[k]
			if !ok || !Equal(av, bv) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// WithKey returns a copy of v promoted to a Map with key set to val,
// merging into an existing Map if v is already one. Used by the mini
// evaluator to lower "bd:3" (set n) and "bd:snare" (set s) modifiers.
func (v V) WithKey(key string, val V) V {
	m := map[string]V{}
	for k, existing := range v.AsMap() {
		m[k] = existing
	}
	m[key] = val
	return Map(m)
}
