package scanner

import (
	"testing"

	compileerrors "github.com/alloy-di/alloy/internal/errors"
	"github.com/alloy-di/alloy/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sourceA = `package services

//alloy:singleton
type A struct{}
`

const sourceB = `package services

//alloy:singleton(deps(A))
type B struct{}
`

const sourceDeferred = `package services

import "github.com/example/proj/internal/reporting"

//alloy:service(deps(Lazy(reporting.Reporter, {retries: 3, backoffMs: 10, factor: 2})))
type Consumer struct{}
`

const sourceInterface = `package services

//alloy:interface(Repository)
//alloy:singleton(deps(DB))
type PostgresRepo struct{}
`

func TestScan_BasicSingleton(t *testing.T) {
	s := New()
	res, err := s.Scan("a.go", "internal/services", sourceA)
	require.NoError(t, err)
	require.Len(t, res.Services, 1)
	assert.Equal(t, "A", res.Services[0].ClassName)
	assert.Equal(t, models.ScopeSingleton, res.Services[0].Metadata.Scope)
	assert.Equal(t, "alloy:internal/services#A", res.Services[0].IdentifierKey)
}

func TestScan_DependenciesInDeclarationOrder(t *testing.T) {
	s := New()
	res, err := s.Scan("b.go", "internal/services", sourceB)
	require.NoError(t, err)
	require.Len(t, res.Services, 1)
	require.Len(t, res.Services[0].Metadata.Dependencies, 1)
	assert.Equal(t, "A", res.Services[0].Metadata.Dependencies[0].Expression)
	assert.False(t, res.Services[0].Metadata.Dependencies[0].IsDeferred)
}

func TestScan_DeferredKeyAndRetry(t *testing.T) {
	s := New()
	res, err := s.Scan("c.go", "internal/services", sourceDeferred)
	require.NoError(t, err)
	require.Len(t, res.Services, 1)
	dep := res.Services[0].Metadata.Dependencies[0]
	assert.True(t, dep.IsDeferred)
	require.NotNil(t, dep.Retry)
	assert.Equal(t, 3, dep.Retry.AttemptsAfterFirst)
	assert.Equal(t, 10, dep.Retry.InitialBackoffMS)
	assert.Equal(t, 2.0, dep.Retry.Factor)

	wantKey := models.ServiceDeferredKey("github.com/example/proj/internal/reporting", "Reporter")
	assert.True(t, res.DeferredKeys[wantKey])
}

func TestScan_InterfaceBinding(t *testing.T) {
	s := New()
	res, err := s.Scan("d.go", "internal/services", sourceInterface)
	require.NoError(t, err)
	require.Len(t, res.Services, 1)
	assert.Equal(t, "Repository", res.Services[0].InterfaceName)
}

const sourceLogger = `package services

//alloy:logger
type Log struct{}
`

func TestScan_LoggerAnnotationSynthesizesZeroDependencySingleton(t *testing.T) {
	s := New()
	res, err := s.Scan("f.go", "internal/services", sourceLogger)
	require.NoError(t, err)
	require.Len(t, res.Services, 1)
	svc := res.Services[0]
	assert.Equal(t, "Log", svc.ClassName)
	assert.Equal(t, models.SynthesizedZapLogger, svc.Synthesized)
	assert.Equal(t, models.ScopeSingleton, svc.Metadata.Scope)
	assert.Empty(t, svc.Metadata.Dependencies)
}

func TestScan_UndecoratedTypeIsUndiscovered(t *testing.T) {
	s := New()
	res, err := s.Scan("e.go", "internal/services", "package services\n\ntype Plain struct{}\n")
	require.NoError(t, err)
	assert.Empty(t, res.Services)
}

const sourceUnresolvedLazy = `package services

//alloy:service(deps(Lazy(missingpkg.Reporter)))
type Consumer struct{}
`

func TestScan_UnresolvedLazyTargetIsUnsupported(t *testing.T) {
	s := New()
	_, err := s.Scan("c.go", "internal/services", sourceUnresolvedLazy)
	require.Error(t, err)
	var ce compileerrors.CompileError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, compileerrors.UnsupportedLazyIdentifierCode, ce.Code())
}

func TestScan_Purity(t *testing.T) {
	s := New()
	r1, err := s.Scan("b.go", "internal/services", sourceB)
	require.NoError(t, err)
	r2, err := s.Scan("b.go", "internal/services", sourceB)
	require.NoError(t, err)
	assert.Equal(t, r1.Services, r2.Services)
}
