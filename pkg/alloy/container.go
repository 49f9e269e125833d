package alloy

import (
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// Container is the runtime resolution graph of spec.md §4.E.2: it owns the
// singleton cache, instance overrides and token values for one wiring
// instance, and defers to a (normally process-wide) Registry and
// IdentifierRegistry for the metadata every service was registered under.
type Container struct {
	registry    *Registry
	identifiers *IdentifierRegistry

	mu         sync.RWMutex
	singletons map[*ServiceKey]any
	overrides  map[*ServiceKey]any
	tokens     map[*Token]any

	flight singleflight.Group

	warnMu sync.Mutex
	warned map[*ServiceKey]bool
}

// Option configures a Container at construction time.
type Option func(*Container)

// WithRegistry overrides the process-wide metadata registry — the
// injection seam spec.md §9 suggests for a strict no-globals setup.
func WithRegistry(r *Registry) Option { return func(c *Container) { c.registry = r } }

// WithIdentifiers overrides the process-wide identifier registry.
func WithIdentifiers(r *IdentifierRegistry) Option { return func(c *Container) { c.identifiers = r } }

// New builds a Container backed by the process-wide registries unless
// overridden.
func New(opts ...Option) *Container {
	c := &Container{
		registry:    DefaultRegistry,
		identifiers: DefaultIdentifiers,
		singletons:  map[*ServiceKey]any{},
		overrides:   map[*ServiceKey]any{},
		tokens:      map[*Token]any{},
		warned:      map[*ServiceKey]bool{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get resolves target, which must be a *ServiceKey minted by generated
// code or a manual Registry.Register call.
func (c *Container) Get(target *ServiceKey) (any, error) {
	return c.resolve(target, nil, false)
}

// GetByIdentifier resolves the service bound to id. Resolving through the
// identifier entry point never triggers the factory-placeholder warning,
// per spec.md §4.E.2.
func (c *Container) GetByIdentifier(id *Identifier) (any, error) {
	key, ok := c.identifiers.Lookup(id)
	if !ok {
		return nil, newNoServiceError(id)
	}
	return c.resolve(key, nil, true)
}

// ProvideValue records a value for a token, for later injection.
func (c *Container) ProvideValue(token *Token, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tokens[token] = value
}

// GetToken reads a previously provided token value.
func (c *Container) GetToken(token *Token) (any, error) {
	c.mu.RLock()
	v, ok := c.tokens[token]
	c.mu.RUnlock()
	if !ok {
		return nil, &ResolutionError{Kind: ErrMissingToken, Message: fmt.Sprintf("no value provided for token %q", token.Description)}
	}
	return v, nil
}

// OverrideInstance pins an instance for key: resolution returns it without
// constructing dependencies, and it also seeds the singleton cache so a
// later singleton-scoped Get sees the same pinned value.
func (c *Container) OverrideInstance(key *ServiceKey, instance any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.overrides[key] = instance
	c.singletons[key] = instance
}

func (c *Container) getOverride(key *ServiceKey) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.overrides[key]
	return v, ok
}

func (c *Container) getTokenValue(token *Token) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.tokens[token]
	return v, ok
}

// resolve implements the five-step algorithm of spec.md §4.E.2.
func (c *Container) resolve(key *ServiceKey, stack []*ServiceKey, viaIdentifier bool) (any, error) {
	if v, ok := c.getOverride(key); ok {
		return v, nil
	}

	for _, s := range stack {
		if s == key {
			return nil, newCircularDependencyError(stack, key)
		}
	}

	entry := c.registry.GetOrDefault(key)

	if key.IsPlaceholder && entry.Factory == nil {
		return nil, newPlaceholderInstantiatedError(key)
	}

	if entry.Scope == Singleton {
		return c.resolveSingleton(key, entry, stack, viaIdentifier)
	}
	return c.create(key, entry, stack, viaIdentifier)
}

// resolveSingleton consults the singleton cache, then coalesces concurrent
// first-time creators through singleflight so "exactly one construction
// path executes; others await the same future" (spec.md §5) holds under
// concurrent Get calls. A failed creation is never cached: the next call
// starts fresh, per spec.md's no-poisoning invariant.
func (c *Container) resolveSingleton(key *ServiceKey, entry RegistryEntry, stack []*ServiceKey, viaIdentifier bool) (any, error) {
	c.mu.RLock()
	if v, ok := c.singletons[key]; ok {
		c.mu.RUnlock()
		return v, nil
	}
	c.mu.RUnlock()

	flightKey := fmt.Sprintf("%p", key)
	v, err, _ := c.flight.Do(flightKey, func() (any, error) {
		c.mu.RLock()
		if v, ok := c.singletons[key]; ok {
			c.mu.RUnlock()
			return v, nil
		}
		c.mu.RUnlock()

		created, err := c.create(key, entry, stack, viaIdentifier)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.singletons[key] = created
		c.mu.Unlock()
		return created, nil
	})
	return v, err
}

// create builds one instance: resolving a factory-deferred placeholder's
// real constructor first if needed, then resolving every declared
// dependency concurrently before invoking the factory with them in
// declaration order.
func (c *Container) create(key *ServiceKey, entry RegistryEntry, stack []*ServiceKey, viaIdentifier bool) (any, error) {
	newStack := append(append([]*ServiceKey{}, stack...), key)

	if entry.Factory != nil {
		if key.IsPlaceholder && !viaIdentifier {
			c.warnOncePlaceholderViaConstructor(key)
		}
		realKey, err := resolveDeferred(entry.Factory, nil)
		if err != nil {
			return nil, newDeferredImportFailedError(newStack, key, err)
		}
		if realKey == nil {
			return nil, newNotAClassError(newStack, key)
		}
		realEntry, ok := c.registry.Get(realKey)
		if !ok {
			return nil, newNotAClassError(newStack, key)
		}
		if realEntry.Scope == Singleton {
			return c.resolveSingleton(realKey, realEntry, stack, viaIdentifier)
		}
		return c.create(realKey, realEntry, stack, viaIdentifier)
	}

	deps := entry.dependencies()
	args := make([]any, len(deps))
	var g errgroup.Group
	for i, dep := range deps {
		i, dep := i, dep
		g.Go(func() error {
			v, err := c.resolveDependency(dep, newStack)
			if err != nil {
				return err
			}
			args[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if entry.New == nil {
		return nil, &ResolutionError{
			Kind:    ErrNoService,
			Target:  key,
			Stack:   newStack,
			Message: fmt.Sprintf("%s has no registered factory", key),
		}
	}
	return entry.New(args)
}

// resolveDependency classifies and resolves one constructor argument, per
// spec.md §4.E.2's per-dependency classification.
func (c *Container) resolveDependency(dep Dependency, stack []*ServiceKey) (any, error) {
	current := stack[len(stack)-1]
	switch dep.Kind {
	case KindToken:
		if v, ok := c.getTokenValue(dep.Token); ok {
			return v, nil
		}
		return nil, newMissingTokenError(stack, current, dep.Token)
	case KindDeferred:
		realKey, err := resolveDeferred(dep.Deferred, nil)
		if err != nil {
			return nil, newDeferredImportFailedError(stack, current, err)
		}
		if realKey == nil {
			return nil, newNotAClassError(stack, current)
		}
		return c.resolve(realKey, stack, false)
	case KindConstructor:
		return c.resolve(dep.Target, stack, false)
	default:
		return nil, newInvalidDependencyError(stack, current, dep.InvalidValue)
	}
}

func (c *Container) warnOncePlaceholderViaConstructor(key *ServiceKey) {
	c.warnMu.Lock()
	defer c.warnMu.Unlock()
	if c.warned[key] {
		return
	}
	c.warned[key] = true
	fmt.Printf("alloy: warning: %s was resolved via its constructor rather than its identifier; factory-deferred services should be resolved with GetByIdentifier\n", key)
}
