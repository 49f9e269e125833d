package alloy

// ProviderValue binds a token to a value, applied before any service entry.
type ProviderValue struct {
	Token *Token
	Value any
}

// ProviderService is one constructor-backed registration contributed by a
// provider. Dependencies may be declared either as a plain slice (the
// array form, eligible for the pre-application cycle check) or as a thunk
// (the closure form, deliberately skipped by that check to avoid
// evaluating it before every other provider entry has landed).
type ProviderService struct {
	Key               *ServiceKey
	Scope             Scope
	Dependencies      []Dependency
	DependenciesThunk func() []Dependency
	New               Factory
}

func (s ProviderService) isClosureForm() bool {
	return s.DependenciesThunk != nil
}

func (s ProviderService) thunk() func() []Dependency {
	if s.DependenciesThunk != nil {
		return s.DependenciesThunk
	}
	deps := s.Dependencies
	return func() []Dependency { return deps }
}

// ProviderDeferredService registers a factory-deferred placeholder from a
// provider block.
type ProviderDeferredService struct {
	Key     *ServiceKey
	Scope   Scope
	Factory *Deferred
}

// Provider is one wiring module's contribution, per spec.md §4.E.4.
type Provider struct {
	Values           []ProviderValue
	Services         []ProviderService
	DeferredServices []ProviderDeferredService
}

// ApplyProviders applies providers to c's registry in order: values bind
// first, then services, then deferred services. Before anything is
// applied, a synchronous depth-first pass over every provider's
// array-form service dependencies checks for cycles among
// provider-declared constructors; closure-form dependency lists are
// skipped by this pass, per spec.md §4.E.4.
func ApplyProviders(c *Container, providers []Provider) error {
	if err := detectProviderCycles(providers); err != nil {
		return err
	}

	for _, p := range providers {
		for _, v := range p.Values {
			c.ProvideValue(v.Token, v.Value)
		}
	}
	for _, p := range providers {
		for _, s := range p.Services {
			c.registry.Register(s.Key, RegistryEntry{
				Scope:             s.Scope,
				DependenciesThunk: s.thunk(),
				New:               s.New,
			})
		}
	}
	for _, p := range providers {
		for _, d := range p.DeferredServices {
			c.registry.Register(d.Key, RegistryEntry{Scope: d.Scope, Factory: d.Factory})
		}
	}
	return nil
}

const (
	visitStateUnvisited = 0
	visitStateVisiting  = 1
	visitStateDone      = 2
)

// detectProviderCycles walks the graph formed by array-form
// ProviderService.Dependencies (KindConstructor edges only). Closure-form
// entries contribute no outgoing edges, matching the "skip evaluation"
// rule; they may still be a cycle's target, since another node can
// declare a constructor edge into them.
func detectProviderCycles(providers []Provider) error {
	edges := map[*ServiceKey][]*ServiceKey{}
	for _, p := range providers {
		for _, s := range p.Services {
			if s.isClosureForm() {
				continue
			}
			var targets []*ServiceKey
			for _, dep := range s.Dependencies {
				if dep.Kind == KindConstructor && dep.Target != nil {
					targets = append(targets, dep.Target)
				}
			}
			edges[s.Key] = append(edges[s.Key], targets...)
		}
	}

	state := map[*ServiceKey]int{}
	var stack []*ServiceKey

	var visit func(key *ServiceKey) error
	visit = func(key *ServiceKey) error {
		switch state[key] {
		case visitStateDone:
			return nil
		case visitStateVisiting:
			return newCircularDependencyError(stack, key)
		}
		state[key] = visitStateVisiting
		stack = append(stack, key)
		for _, next := range edges[key] {
			if err := visit(next); err != nil {
				return err
			}
		}
		stack = stack[:len(stack)-1]
		state[key] = visitStateDone
		return nil
	}

	for key := range edges {
		if err := visit(key); err != nil {
			return err
		}
	}
	return nil
}
