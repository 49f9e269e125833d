// Package models holds the data shapes shared by every compiler component:
// the scanner, the discovery store, the manifest ingestor and codegen all
// speak in DiscoveredService and DependencyDescriptor.
package models

import "fmt"

// Scope is a service's lifetime mode.
type Scope string

const (
	ScopeSingleton Scope = "singleton"
	ScopeTransient Scope = "transient"
)

// RetryPolicy carries the literal retry options parsed off a Lazy(...) call.
type RetryPolicy struct {
	AttemptsAfterFirst int     `yaml:"attemptsAfterFirst"` // default 0
	InitialBackoffMS   int     `yaml:"initialBackoffMs"`   // default 0
	Factor             float64 `yaml:"factor"`             // default 2
}

// DefaultRetryPolicy mirrors the defaults spec.md §3 assigns a bare Lazy(...).
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{AttemptsAfterFirst: 0, InitialBackoffMS: 0, Factor: 2}
}

// ReferencedImport is one import statement that a dependency expression uses.
type ReferencedImport struct {
	LocalName          string
	ModuleSpecifier    string
	OriginalExportName string // "default", "*", or the exported symbol name
	IsTypeOnly         bool
}

// DependencyDescriptor is the smallest atom in the data model: one
// constructor-argument's worth of source text plus what it means.
type DependencyDescriptor struct {
	Expression            string
	ReferencedIdentifiers []string
	IsDeferred            bool
	Retry                 *RetryPolicy // nil unless the expression is Lazy(...) with an option bag

	// TargetImportPath is the resolved Go import path of the package
	// declaring the referenced service, "" when the reference is a bare
	// identifier resolving to a sibling in the declaring service's own
	// package. Populated at discovery time (scanner or manifest ingestor)
	// so codegen never has to re-derive it from Expression text.
	TargetImportPath string
	// TargetExportName is the referenced service's class name.
	TargetExportName string
	// IsToken marks a dependency that resolves against a token's value map
	// rather than the service registry (spec.md §3's token_deps).
	IsToken bool
}

// ServiceMetadata is the annotation-derived shape of one service.
type ServiceMetadata struct {
	Scope        Scope
	Dependencies []DependencyDescriptor
	Factory      *DependencyDescriptor // service-level deferral (factory-deferred stub)
}

// DiscoveredService is a fully resolved annotated type, whether found by
// the scanner or materialized from an ingested manifest.
type DiscoveredService struct {
	ClassName         string
	FilePath          string
	IdentifierKey     string
	Metadata          ServiceMetadata
	ReferencedImports []ReferencedImport

	// InterfaceName is non-empty when the preceding //alloy:interface
	// annotation binds this service to a Go interface identifier; codegen
	// registers the service under both identifiers.
	InterfaceName string

	// Synthesized names a zero-dependency built-in service codegen
	// manufactures itself instead of calling a user-authored New<Class>
	// constructor. "" for every ordinarily scanned service; see
	// SynthesizedZapLogger for the one kind the scanner currently emits.
	Synthesized string

	// Origin distinguishes a locally scanned service ("local") from one
	// materialized out of an ingested manifest ("manifest"); codegen's
	// duplicate-detection step (spec.md §4.D step 4) only fires across
	// that boundary, not between two local files.
	Origin string
}

const (
	OriginLocal    = "local"
	OriginManifest = "manifest"
)

// SynthesizedZapLogger marks a type carrying only a bare //alloy:logger
// annotation: codegen registers it as a singleton whose constructor calls
// zap.NewProduction() directly, so a project gets a *zap.Logger service
// without writing a New<Class> function for it.
const SynthesizedZapLogger = "zap-logger"

// Key returns the "<file_path>#<class_name>" string codegen uses to index
// units when resolving a dependency to its target service.
func (s DiscoveredService) Key() string {
	return fmt.Sprintf("%s#%s", s.FilePath, s.ClassName)
}

// DeferredKey is one candidate "<path>::<export>" entry produced while
// resolving a Lazy(...) call, per spec.md §4.A.
type DeferredKey string

func MakeDeferredKey(path, export string) DeferredKey {
	return DeferredKey(fmt.Sprintf("%s::%s", path, export))
}

// ServiceDeferredKey is the deferred-key form of a discovered service's own
// (file_path, class_name) pair, used by codegen to test set membership
// against the keys the scanner collected.
func ServiceDeferredKey(filePath, className string) DeferredKey {
	return MakeDeferredKey(filePath, className)
}

// LibraryManifest is the declarative record consumed from a prebuilt
// library, spec.md §3.
type LibraryManifest struct {
	SchemaVersion int                    `yaml:"schemaVersion" validate:"omitempty,eq=1"`
	PackageName   string                 `yaml:"packageName" validate:"required"`
	BuildMode     string                 `yaml:"buildMode" validate:"required,oneof=preserve-modules chunks bundled"`
	Services      []ManifestService      `yaml:"services" validate:"dive"`
	Providers     []string               `yaml:"providers,omitempty"`
	Diagnostics   []string               `yaml:"diagnostics,omitempty"`
}

type ManifestService struct {
	ExportName    string             `yaml:"exportName" validate:"required"`
	ImportPath    string             `yaml:"importPath" validate:"required"`
	SymbolKey     string             `yaml:"symbolKey" validate:"required"`
	Scope         Scope              `yaml:"scope" validate:"omitempty,oneof=singleton transient"`
	Deps          []string           `yaml:"deps,omitempty"`
	TokenDeps     []ManifestTokenDep `yaml:"tokenDeps,omitempty" validate:"dive"`
	DeferredDeps  []ManifestDeferredDep `yaml:"deferredDeps,omitempty" validate:"dive"`
}

type ManifestTokenDep struct {
	ExportName string `yaml:"exportName" validate:"required"`
	ImportPath string `yaml:"importPath" validate:"required"`
}

type ManifestDeferredDep struct {
	ExportName string       `yaml:"exportName" validate:"required"`
	ImportPath string       `yaml:"importPath" validate:"required"`
	Retry      *RetryPolicy `yaml:"retry,omitempty"`
}
