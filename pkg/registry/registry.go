// Package registry implements the global name scope the host evaluator
// uses to turn mini-notation atoms like "bd" into pattern values: every
// registered no-argument name (sound/FX names, as seeded in sounds.go)
// is reachable by name here, built up via Register rather than a static
// table, so a host can extend the scope at runtime (e.g. after scanning
// a sample library). pkg/pattern's combinators are not registered here.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/chase3718/strudel-go/pkg/pattern"
	"github.com/chase3718/strudel-go/pkg/value"
)

// Fn is a named, no-argument combinator: most commonly a sound-bank
// name that lowers to pure({s: name}).
type Fn func() pattern.Pattern

// Reifier turns bare source text into a Pattern; registered once by a
// host that wants the mini evaluator's "string reifier" hook.
type Reifier func(source string) (pattern.Pattern, error)

// Registry is the mutable name scope. The zero value is usable; Global
// is the process-wide instance the mini evaluator consults by default.
type Registry struct {
	mu      sync.RWMutex
	fns     map[string]Fn
	reifier Reifier
}

// New builds an empty Registry.
func New() *Registry {
	return &Registry{fns: map[string]Fn{}}
}

// Global is the default registry, seeded at init with the drum-machine
// sound names in sounds.go (no pattern combinators); hosts add
// sound-bank names to it directly, or build a fresh Registry for
// isolated test scopes.
var Global = New()

// Register adds or replaces the no-arg combinator bound to name.
func (r *Registry) Register(name string, fn Fn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fns[name] = fn
}

// RegisterSound is a convenience wrapper for the common case: name
// becomes a no-arg combinator yielding pure({s: name}).
func (r *Registry) RegisterSound(name string) {
	r.Register(name, func() pattern.Pattern {
		return pattern.Pure(value.MapOf("s", value.String(name)))
	})
}

// Lookup resolves name to a Pattern, or reports that it isn't bound.
func (r *Registry) Lookup(name string) (pattern.Pattern, bool) {
	r.mu.RLock()
	fn, ok := r.fns[name]
	r.mu.RUnlock()
	if !ok {
		return pattern.Silence, false
	}
	return fn(), true
}

// Names returns every registered name, sorted, mainly for diagnostics
// and tab-completion hosts.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.fns))
	for k := range r.fns {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// SetReifier installs the one-slot string reifier hook that Reify
// calls. The mini evaluator does not call Reify; a host converts a
// string by calling Reify explicitly.
func (r *Registry) SetReifier(fn Reifier) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reifier = fn
}

// Reify parses source using the installed reifier, or reports that none
// is installed.
func (r *Registry) Reify(source string) (pattern.Pattern, error) {
	r.mu.RLock()
	fn := r.reifier
	r.mu.RUnlock()
	if fn == nil {
		return pattern.Silence, fmt.Errorf("registry: no string reifier installed")
	}
	return fn(source)
}
