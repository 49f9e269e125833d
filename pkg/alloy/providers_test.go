package alloy

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyProviders_ValuesThenServicesThenDeferred(t *testing.T) {
	reg, ids := freshRegistries()
	c := New(WithRegistry(reg), WithIdentifiers(ids))

	tok := CreateToken("dsn")
	svcKey := NewServiceKey("Store", "test/providers#Store")
	placeholderKey := NewPlaceholderKey("LazyThing", "test/providers#LazyThing")
	realKey := NewServiceKey("RealThing", "test/providers#RealThing")
	reg.Register(realKey, RegistryEntry{Scope: Singleton, New: func(args []any) (any, error) { return "real", nil }})

	err := ApplyProviders(c, []Provider{{
		Values: []ProviderValue{{Token: tok, Value: "postgres://x"}},
		Services: []ProviderService{{
			Key:          svcKey,
			Scope:        Singleton,
			Dependencies: []Dependency{{Kind: KindToken, Token: tok}},
			New:          func(args []any) (any, error) { return args[0], nil },
		}},
		DeferredServices: []ProviderDeferredService{{
			Key:     placeholderKey,
			Scope:   Singleton,
			Factory: &Deferred{Import: func() (*ServiceKey, error) { return realKey, nil }},
		}},
	}})
	require.NoError(t, err)

	v, err := c.Get(svcKey)
	require.NoError(t, err)
	assert.Equal(t, "postgres://x", v)

	v2, err := c.Get(placeholderKey)
	require.NoError(t, err)
	assert.Equal(t, "real", v2)
}

func TestApplyProviders_DetectsCycleInArrayFormDeps(t *testing.T) {
	a := NewServiceKey("A", "test/providers-cycle#A")
	b := NewServiceKey("B", "test/providers-cycle#B")

	providers := []Provider{{
		Services: []ProviderService{
			{Key: a, Scope: Transient, Dependencies: []Dependency{{Kind: KindConstructor, Target: b}}, New: noopFactory},
			{Key: b, Scope: Transient, Dependencies: []Dependency{{Kind: KindConstructor, Target: a}}, New: noopFactory},
		},
	}}

	reg, ids := freshRegistries()
	c := New(WithRegistry(reg), WithIdentifiers(ids))
	err := ApplyProviders(c, providers)
	require.Error(t, err)
	var resErr *ResolutionError
	require.True(t, errors.As(err, &resErr))
	assert.Equal(t, ErrCircularDependency, resErr.Kind)
}

func TestApplyProviders_SkipsClosureFormDependenciesInCycleCheck(t *testing.T) {
	a := NewServiceKey("A", "test/providers-closure#A")
	b := NewServiceKey("B", "test/providers-closure#B")

	// A -> B via closure form, B -> A via closure form: would be a cycle if
	// evaluated eagerly, but closure-form lists are never walked by the
	// pre-check, so this must not error.
	providers := []Provider{{
		Services: []ProviderService{
			{Key: a, Scope: Transient, DependenciesThunk: func() []Dependency {
				return []Dependency{{Kind: KindConstructor, Target: b}}
			}, New: noopFactory},
			{Key: b, Scope: Transient, DependenciesThunk: func() []Dependency {
				return []Dependency{{Kind: KindConstructor, Target: a}}
			}, New: noopFactory},
		},
	}}

	reg, ids := freshRegistries()
	c := New(WithRegistry(reg), WithIdentifiers(ids))
	err := ApplyProviders(c, providers)
	require.NoError(t, err)
}

func noopFactory(args []any) (any, error) { return nil, nil }
