package alloy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type notifierSpy struct{ spies *SpySet }

func (n *notifierSpy) Notify(message string) {
	n.spies.Record("Notify", message)
}

func TestCreateTestContainer_AutoMockReplacesTransitiveDependency(t *testing.T) {
	defer resetDefaultsForTest(t)()

	notifierKey := NewServiceKey("Notifier", "test/tc#Notifier")
	orderKey := NewServiceKey("OrderService", "test/tc#OrderService")

	DefaultRegistry.Register(notifierKey, RegistryEntry{
		Scope: Singleton,
		New:   func(args []any) (any, error) { t.Fatal("real notifier must not be constructed"); return nil, nil },
		NewMock: func(spies *SpySet) any {
			return &notifierSpy{spies: spies}
		},
	})
	DefaultRegistry.Register(orderKey, RegistryEntry{
		Scope: Transient,
		DependenciesThunk: func() []Dependency {
			return []Dependency{{Kind: KindConstructor, Target: notifierKey}}
		},
		New: func(args []any) (any, error) { return args[0], nil },
	})

	tc, err := CreateTestContainer(TestContainerOptions{AutoMock: true, Target: orderKey})
	require.NoError(t, err)
	defer tc.Restore()

	got, err := tc.Get(orderKey)
	require.NoError(t, err)
	spy := got.(*notifierSpy)
	spy.Notify("hello")

	assert.Equal(t, 1, tc.Spies.CallCount("Notify"))
	assert.Equal(t, []any{"hello"}, tc.Spies.Calls("Notify")[0])
}

func TestCreateTestContainer_RestoreUndoesProviderRegistrations(t *testing.T) {
	defer resetDefaultsForTest(t)()

	key := NewServiceKey("FromProvider", "test/tc-restore#FromProvider")

	tc, err := CreateTestContainer(TestContainerOptions{
		Providers: []Provider{{
			Services: []ProviderService{{
				Key:   key,
				Scope: Transient,
				New:   func(args []any) (any, error) { return "provided", nil },
			}},
		}},
	})
	require.NoError(t, err)
	got, err := tc.Get(key)
	require.NoError(t, err)
	assert.Equal(t, "provided", got)

	tc.Restore()

	plain := New()
	_, err = plain.Get(key)
	require.Error(t, err, "the provider's registration must not survive Restore")
}

func TestCreateTestContainer_OverridesApplyBeforeAutoMock(t *testing.T) {
	defer resetDefaultsForTest(t)()

	tok := CreateToken("test/tc-overrides#token")
	key := NewServiceKey("NeedsToken", "test/tc-overrides#NeedsToken")
	DefaultRegistry.Register(key, RegistryEntry{
		Scope:             Transient,
		DependenciesThunk: func() []Dependency { return []Dependency{{Kind: KindToken, Token: tok}} },
		New:               func(args []any) (any, error) { return args[0], nil },
	})

	tc, err := CreateTestContainer(TestContainerOptions{
		Overrides: TestOverrides{Tokens: map[*Token]any{tok: "stub-value"}},
	})
	require.NoError(t, err)
	defer tc.Restore()

	got, err := tc.Get(key)
	require.NoError(t, err)
	assert.Equal(t, "stub-value", got)
}

// resetDefaultsForTest clears the process-wide registry before a test that
// registers into it, and returns a func to clear it again afterward so
// tests don't leak state into one another.
func resetDefaultsForTest(t *testing.T) func() {
	t.Helper()
	DefaultRegistry.Clear()
	return func() { DefaultRegistry.Clear() }
}
