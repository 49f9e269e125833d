package codegen

import "github.com/alloy-di/alloy/internal/models"

// ProviderModule names an exported func, somewhere in the project, that
// returns provider registrations to be applied at init time — the Go
// counterpart of spec.md §3's manifest `providers[]` module specifiers.
type ProviderModule struct {
	ImportPath string
	FuncName   string // exported func() []alloy.Provider
}

// Input is everything one codegen run needs: the unified service list
// (local scan output plus manifest-materialized services), the global
// deferred-reference key set the scanner and ingestor collected, the
// identifier keys configured for factory deferral, and the provider
// modules to wire.
type Input struct {
	PackageName string
	// PackageImportPath is the Go import path of the package this
	// generated file will live in; a service declared at this same path
	// is called directly (New<Class>) instead of through an import alias.
	PackageImportPath string
	RuntimeImport     string // e.g. "github.com/alloy-di/alloy/pkg/alloy"
	Services          []models.DiscoveredService
	DeferredKeys      map[models.DeferredKey]bool
	FactoryDeferred   map[string]bool // identifier_key set
	Providers         []ProviderModule
}

// Output is the generated file text plus the exported-identifier map the
// ambient type declaration mirrors.
type Output struct {
	// Source is the primary wiring file: token/key vars, the
	// ServiceIdentifiers type and its init-time registrations.
	Source string
	// AmbientSource is the companion declarations file (Go's structural
	// analogue of a bundler's ambient .d.ts): it exposes the process-wide
	// Container and one *alloy.ServiceKey per active service under
	// ServiceSymbols, so consumer code can reference either without
	// importing pkg/alloy's registry internals directly.
	AmbientSource string
	// Identifiers maps each service's exported field name (its class name,
	// or "<class_name>_<hash>" on collision) to the generated package-level
	// var name holding its *alloy.ServiceKey.
	Identifiers map[string]string
}

// unit is one active service after collision resolution: everything the
// emission step needs, keyed by var/field names already disambiguated.
type unit struct {
	svc         models.DiscoveredService
	varName     string // package-level var holding the *alloy.ServiceKey
	fieldName   string // exported field on ServiceIdentifiers
	pkgAlias    string // import alias of svc.FilePath, "" if same package as generated file
	factory     bool   // true if this unit is a factory-deferred stub
	realVarName string // set when factory is true: the hidden real key's var name

	// ifaceFieldName and ifaceIdentifierKey are set when the preceding
	// //alloy:interface annotation bound this service to a Go interface
	// identifier: the service is then resolvable both under its own
	// identifier and under this one ("resolve by interface").
	ifaceFieldName     string
	ifaceIdentifierKey string

	// synthesized mirrors models.DiscoveredService.Synthesized: non-empty
	// means writeRegistration emits a built-in constructor instead of a
	// New<Class> call, and the unit needs no DependenciesThunk.
	synthesized string
}
