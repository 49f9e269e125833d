package alloy

import "sync"

// SpySet records method invocations made through auto-mocked services
// during a test, standing in for the "mock instances whose method surface
// mirrors the constructor's prototype methods" of spec.md §4.E.4. A
// hand-written RegistryEntry.NewMock closure receives a *SpySet and calls
// Record on every method it implements.
type SpySet struct {
	mu    sync.Mutex
	calls map[string][][]any
}

// NewSpySet builds an empty spy set.
func NewSpySet() *SpySet {
	return &SpySet{calls: map[string][][]any{}}
}

// Record logs one call to method with the given positional arguments.
func (s *SpySet) Record(method string, args ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[method] = append(s.calls[method], args)
}

// Calls returns a copy of every recorded call to method, in call order.
func (s *SpySet) Calls(method string) [][]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]any, len(s.calls[method]))
	copy(out, s.calls[method])
	return out
}

// CallCount returns how many times method was recorded.
func (s *SpySet) CallCount(method string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls[method])
}

// TestOverrides seeds a TestContainer's token values and instance pins
// before any auto-mock walk runs.
type TestOverrides struct {
	Tokens    map[*Token]any
	Instances map[*ServiceKey]any
}

// TestContainerOptions mirrors create_test_container's option bag from
// spec.md §4.E.4.
type TestContainerOptions struct {
	Overrides TestOverrides
	AutoMock  bool
	Target    *ServiceKey
	Providers []Provider
}

// TestContainer is a Container plus the bookkeeping create_test_container
// needs to undo itself: the registry snapshot taken before providers and
// mocks were applied, and the spies auto-mocked services record into.
type TestContainer struct {
	*Container
	Spies      *SpySet
	snapshot   RegistrySnapshot
	mockedKeys []*ServiceKey
}

// CreateTestContainer snapshots the process-wide registry, applies
// providers, applies token and instance overrides, and — when AutoMock is
// set — walks the dependency graph reachable from Target (breadth-first,
// across constructor dependencies and through deferred descriptors),
// overriding every reachable service that carries a NewMock constructor
// with a spy-backed instance. Deferred descriptors are followed by
// invoking their importer to find the real target rather than by
// substituting the importer itself: unlike a dynamic `import()`, Alloy's
// Go importer closures are cheap to call and carry no loading side
// effects, so there is nothing to gain by intercepting them instead of
// the key they resolve to.
func CreateTestContainer(opts TestContainerOptions) (*TestContainer, error) {
	snap := DefaultRegistry.Snapshot()
	c := New()

	if len(opts.Providers) > 0 {
		if err := ApplyProviders(c, opts.Providers); err != nil {
			DefaultRegistry.Restore(snap)
			return nil, err
		}
	}
	for tok, v := range opts.Overrides.Tokens {
		c.ProvideValue(tok, v)
	}
	for key, v := range opts.Overrides.Instances {
		c.OverrideInstance(key, v)
	}

	tc := &TestContainer{Container: c, Spies: NewSpySet(), snapshot: snap}
	if opts.AutoMock && opts.Target != nil {
		tc.autoMock(opts.Target)
	}
	return tc, nil
}

// Restore undoes every registry mutation CreateTestContainer performed,
// per spec.md §4.E.4.
func (tc *TestContainer) Restore() {
	tc.registry.Restore(tc.snapshot)
}

func (tc *TestContainer) autoMock(target *ServiceKey) {
	visited := map[*ServiceKey]bool{target: true}
	queue := tc.directDependencyTargets(target)

	for len(queue) > 0 {
		key := queue[0]
		queue = queue[1:]
		if visited[key] {
			continue
		}
		visited[key] = true

		entry := tc.registry.GetOrDefault(key)
		if entry.NewMock != nil {
			mock := entry.NewMock(tc.Spies)
			tc.OverrideInstance(key, mock)
			tc.mockedKeys = append(tc.mockedKeys, key)
			continue
		}
		queue = append(queue, tc.directDependencyTargets(key)...)
	}
}

func (tc *TestContainer) directDependencyTargets(key *ServiceKey) []*ServiceKey {
	entry := tc.registry.GetOrDefault(key)
	var out []*ServiceKey

	if entry.Factory != nil {
		if realKey, err := resolveDeferred(entry.Factory, nil); err == nil && realKey != nil {
			out = append(out, realKey)
		}
		return out
	}

	for _, dep := range entry.dependencies() {
		switch dep.Kind {
		case KindConstructor:
			if dep.Target != nil {
				out = append(out, dep.Target)
			}
		case KindDeferred:
			if dep.Deferred != nil {
				if realKey, err := resolveDeferred(dep.Deferred, nil); err == nil && realKey != nil {
					out = append(out, realKey)
				}
			}
		}
	}
	return out
}
