package codegen

import (
	"testing"

	"github.com/alloy-di/alloy/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func svc(className, filePath, identifierKey string, deps ...models.DependencyDescriptor) models.DiscoveredService {
	return models.DiscoveredService{
		ClassName:     className,
		FilePath:      filePath,
		IdentifierKey: identifierKey,
		Metadata:      models.ServiceMetadata{Scope: models.ScopeTransient, Dependencies: deps},
		Origin:        models.OriginLocal,
	}
}

func TestGenerate_BasicSingletonChain(t *testing.T) {
	a := svc("A", "acme/a", "alloy:acme/a#A")
	a.Metadata.Scope = models.ScopeSingleton
	b := svc("B", "acme/b", "alloy:acme/b#B", models.DependencyDescriptor{
		Expression: "A", ReferencedIdentifiers: []string{"A"}, TargetImportPath: "acme/a", TargetExportName: "A",
	})
	b.Metadata.Scope = models.ScopeSingleton

	out, err := Generate(Input{
		PackageName:       "wiring",
		PackageImportPath: "acme/wiring",
		RuntimeImport:     "github.com/alloy-di/alloy/pkg/alloy",
		Services:          []models.DiscoveredService{a, b},
		DeferredKeys:      map[models.DeferredKey]bool{},
	})
	require.NoError(t, err)
	assert.Contains(t, out.Source, "package wiring")
	assert.Contains(t, out.Source, `alloy.NewServiceKey("A", "alloy:acme/a#A")`)
	assert.Contains(t, out.Source, `alloy.NewServiceKey("B", "alloy:acme/b#B")`)
	assert.Contains(t, out.Source, "alloy.Singleton")
	assert.Contains(t, out.Identifiers, "A")
	assert.Contains(t, out.Identifiers, "B")

	assert.Contains(t, out.AmbientSource, "package wiring")
	assert.Contains(t, out.AmbientSource, "var Container = alloy.New()")
	assert.Contains(t, out.AmbientSource, "ServiceSymbols")
	assert.Contains(t, out.AmbientSource, "A *alloy.ServiceKey")
	assert.Contains(t, out.AmbientSource, "B *alloy.ServiceKey")
}

func TestGenerate_AmbientFileOmitsServiceSymbolsWhenNoServices(t *testing.T) {
	out, err := Generate(Input{
		PackageName:       "wiring",
		PackageImportPath: "acme/wiring",
		RuntimeImport:     "github.com/alloy-di/alloy/pkg/alloy",
		Services:          nil,
		DeferredKeys:      map[models.DeferredKey]bool{},
	})
	require.NoError(t, err)
	assert.Contains(t, out.AmbientSource, "var Container = alloy.New()")
	assert.NotContains(t, out.AmbientSource, "ServiceSymbols")
}

func TestGenerate_CollisionAliasing(t *testing.T) {
	s1 := svc("Service", "acme/one", "alloy:acme/one#Service")
	s2 := svc("Service", "acme/two", "alloy:acme/two#Service")

	out, err := Generate(Input{
		PackageName:       "wiring",
		PackageImportPath: "acme/wiring",
		RuntimeImport:     "github.com/alloy-di/alloy/pkg/alloy",
		Services:          []models.DiscoveredService{s1, s2},
		DeferredKeys:      map[models.DeferredKey]bool{},
	})
	require.NoError(t, err)

	assert.Len(t, out.Identifiers, 2)
	var fields []string
	for field := range out.Identifiers {
		fields = append(fields, field)
	}
	assert.NotEqual(t, fields[0], fields[1])
	for _, field := range fields {
		assert.Contains(t, field, "Service_")
	}
	assert.Contains(t, out.Source, `alloy.NewServiceKey("Service", "alloy:acme/one#Service")`)
	assert.Contains(t, out.Source, `alloy.NewServiceKey("Service", "alloy:acme/two#Service")`)
}

func TestGenerate_InterfaceAnnotationRegistersAlias(t *testing.T) {
	s := svc("PostgresRepo", "acme/repo", "alloy:acme/repo#PostgresRepo")
	s.InterfaceName = "Repository"

	out, err := Generate(Input{
		PackageName:       "wiring",
		PackageImportPath: "acme/wiring",
		RuntimeImport:     "github.com/alloy-di/alloy/pkg/alloy",
		Services:          []models.DiscoveredService{s},
		DeferredKeys:      map[models.DeferredKey]bool{},
	})
	require.NoError(t, err)
	assert.Contains(t, out.Source, "Repository   *alloy.Identifier")
	assert.Contains(t, out.Source, `alloy.SymbolFor("alloy:acme/repo#Repository")`)
	assert.Contains(t, out.Source, "alloy.DefaultIdentifiers.RegisterAlias(postgresRepoKey, Identifiers.Repository)")
}

func TestGenerate_SynthesizedLoggerEmitsZapConstructor(t *testing.T) {
	s := svc("Log", "acme/logging", "alloy:acme/logging#Log")
	s.Metadata.Scope = models.ScopeSingleton
	s.Synthesized = models.SynthesizedZapLogger

	out, err := Generate(Input{
		PackageName:       "wiring",
		PackageImportPath: "acme/wiring",
		RuntimeImport:     "github.com/alloy-di/alloy/pkg/alloy",
		Services:          []models.DiscoveredService{s},
		DeferredKeys:      map[models.DeferredKey]bool{},
	})
	require.NoError(t, err)
	assert.Contains(t, out.Source, `"go.uber.org/zap"`)
	assert.Contains(t, out.Source, "return zap.NewProduction()")
	assert.NotContains(t, out.Source, "NewLog(")
}

func TestGenerate_DuplicateAcrossLocalAndManifest(t *testing.T) {
	local := svc("Foo", "internal/foo", "alloy:internal/foo#Foo")
	manifest := svc("Foo", "acme/foo", "acme-foo-symbol")
	manifest.Origin = models.OriginManifest

	_, err := Generate(Input{
		PackageName:       "wiring",
		PackageImportPath: "acme/wiring",
		RuntimeImport:     "github.com/alloy-di/alloy/pkg/alloy",
		Services:          []models.DiscoveredService{local, manifest},
		DeferredKeys:      map[models.DeferredKey]bool{},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "internal/foo")
	assert.Contains(t, err.Error(), "acme/foo")
	assert.Contains(t, err.Error(), "Foo")
}

func TestComputeActiveServices_DeferredOnlyServiceIsExcluded(t *testing.T) {
	a := svc("A", "acme/a", "alloy:acme/a#A", models.DependencyDescriptor{
		Expression: "Lazy(b.B)", IsDeferred: true, TargetImportPath: "acme/b", TargetExportName: "B",
	})
	b := svc("B", "acme/b", "alloy:acme/b#B")

	deferredKeys := map[models.DeferredKey]bool{
		models.ServiceDeferredKey("acme/b", "B"): true,
	}

	active := computeActiveServices([]models.DiscoveredService{a, b}, deferredKeys)
	require.Len(t, active, 1)
	assert.Equal(t, "A", active[0].ClassName)
}

func TestComputeActiveServices_ReinstatesServiceReferencedEagerlyElsewhere(t *testing.T) {
	a := svc("A", "acme/a", "alloy:acme/a#A", models.DependencyDescriptor{
		Expression: "Lazy(b.B)", IsDeferred: true, TargetImportPath: "acme/b", TargetExportName: "B",
	})
	c := svc("C", "acme/c", "alloy:acme/c#C", models.DependencyDescriptor{
		Expression: "b.B", TargetImportPath: "acme/b", TargetExportName: "B",
	})
	b := svc("B", "acme/b", "alloy:acme/b#B")

	deferredKeys := map[models.DeferredKey]bool{
		models.ServiceDeferredKey("acme/b", "B"): true,
	}

	active := computeActiveServices([]models.DiscoveredService{a, c, b}, deferredKeys)
	names := map[string]bool{}
	for _, svc := range active {
		names[svc.ClassName] = true
	}
	assert.True(t, names["B"], "B should be reinstated because C references it eagerly")
}

func TestBuildUnits_FactoryDeferredAugmentation(t *testing.T) {
	s := svc("Worker", "acme/worker", "alloy:acme/worker#Worker")
	units := buildUnits([]models.DiscoveredService{s}, map[string]bool{"alloy:acme/worker#Worker": true})
	require.Len(t, units, 1)
	assert.True(t, units[0].factory)
	assert.NotEmpty(t, units[0].realVarName)
	assert.NotEqual(t, units[0].varName, units[0].realVarName)
}

func TestGenerate_FactoryDeferredServiceEmitsPlaceholderAndRealKeys(t *testing.T) {
	s := svc("Worker", "acme/worker", "alloy:acme/worker#Worker")

	out, err := Generate(Input{
		PackageName:       "wiring",
		PackageImportPath: "acme/wiring",
		RuntimeImport:     "github.com/alloy-di/alloy/pkg/alloy",
		Services:          []models.DiscoveredService{s},
		DeferredKeys:      map[models.DeferredKey]bool{},
		FactoryDeferred:   map[string]bool{"alloy:acme/worker#Worker": true},
	})
	require.NoError(t, err)
	assert.Contains(t, out.Source, "alloy.NewPlaceholderKey")
	assert.Contains(t, out.Source, "Factory: &alloy.Deferred{")
}
