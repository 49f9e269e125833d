// Package alloy is the resolution runtime that generated wiring modules
// (and, in tests, hand-written registrations) populate and query: Component
// E of the compiler pipeline. It owns the metadata registry, the resolver
// with cycle detection and singleton coalescing, deferred-import retry,
// token values, the identifier registry, and the testing overlay.
package alloy

// Scope is a service's lifetime mode.
type Scope string

const (
	Singleton Scope = "singleton"
	Transient Scope = "transient"
)

// ServiceKey is Alloy's stand-in for "constructor identity". Go functions
// and types don't carry attachable metadata the way a JS class does, so
// generated code mints one interned, comparable handle per service and
// uses it everywhere the specification says "constructor": as the
// registry key, the identifier-registry key, and the value placed on the
// resolution stack for cycle detection.
type ServiceKey struct {
	// Name is used only for diagnostics (error paths, warnings).
	Name string
	// IdentifierKey seeds this key's canonical identifier, see SymbolFor.
	IdentifierKey string
	// IsPlaceholder marks a factory-deferred stub: resolving it directly
	// by key (not by identifier) triggers the developer-mode warning.
	IsPlaceholder bool
}

func (k *ServiceKey) String() string {
	if k == nil {
		return "<nil>"
	}
	return k.Name
}

// NewServiceKey mints a fresh key. Generated code calls this once per
// service at package-init time and reuses the resulting pointer.
func NewServiceKey(name, identifierKey string) *ServiceKey {
	return &ServiceKey{Name: name, IdentifierKey: identifierKey}
}

// NewPlaceholderKey mints a key for a factory-deferred stub class.
func NewPlaceholderKey(name, identifierKey string) *ServiceKey {
	return &ServiceKey{Name: name, IdentifierKey: identifierKey, IsPlaceholder: true}
}

// RetryPolicy is spec.md §3's retry hint bag, with the same defaults.
type RetryPolicy struct {
	AttemptsAfterFirst int
	InitialBackoffMS   int
	Factor             float64
}

// DefaultRetryPolicy matches spec.md's defaults for a bare Lazy(...).
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{AttemptsAfterFirst: 0, InitialBackoffMS: 0, Factor: 2}
}

// DependencyKind tags the three (plus invalid) shapes a dependency can take
// at resolution time, per spec.md §4.E.2.
type DependencyKind int

const (
	KindConstructor DependencyKind = iota
	KindToken
	KindDeferred
	KindInvalid
)

// Importer fetches the real service key behind a deferred dependency —
// Alloy's analogue of `() => import('./mod').then(m => m.Export)`.
type Importer func() (*ServiceKey, error)

// Deferred is a dependency wrapped in Lazy(...).
type Deferred struct {
	Import Importer
	Retry  RetryPolicy
}

// Dependency is one positional constructor argument, classified.
type Dependency struct {
	Kind     DependencyKind
	Target   *ServiceKey
	Token    *Token
	Deferred *Deferred
	// InvalidValue is retained only so an invalid-dependency error can
	// report the offending runtime-type tag, per spec.md §7.
	InvalidValue any
}

// Factory func invoked once dependency values are resolved, in positional
// order.
type Factory func(args []any) (any, error)

// RegistryEntry is what the process-wide metadata registry stores per key.
type RegistryEntry struct {
	Scope Scope
	// DependenciesThunk is called lazily so a self-referential graph
	// declared within one compilation unit doesn't need forward
	// declarations (spec.md §3's rationale for the thunk indirection).
	DependenciesThunk func() []Dependency
	New               Factory
	// Factory is set for factory-deferred services: the real constructor
	// is fetched through it before New is ever invoked in anger.
	Factory *Deferred
	// NewMock, when set by a hand-written registration, builds a
	// spy-backed stand-in for the test overlay's auto-mock walk (see
	// testing.go). Generated code never sets it.
	NewMock func(spies *SpySet) any
}

func (e RegistryEntry) dependencies() []Dependency {
	if e.DependenciesThunk == nil {
		return nil
	}
	return e.DependenciesThunk()
}
