package cli

// Config holds one run's worth of generation configuration.
type Config struct {
	// Directories is the list of directories to scan for //alloy annotated
	// Go files. Supports Go-style "./..." recursive patterns.
	Directories []string

	// ManifestGlobs is the list of glob patterns matching prebuilt-library
	// manifest YAML files to ingest alongside the local scan.
	ManifestGlobs []string

	// ModuleName is the Go module path used to build package import paths.
	// If empty, resolved from the nearest go.mod.
	ModuleName string

	// OutputPackage is the package name of the generated wiring file.
	OutputPackage string

	// OutputFile is where the generated wiring source is written, relative
	// to the working directory.
	OutputFile string

	// LazyServices lists identifier keys ("alloy:<path>#<Class>") whose
	// backing service must be emitted as factory-deferred (a placeholder
	// key plus a hidden real key behind an import() factory) even though
	// nothing else in the graph references it through Lazy(...).
	LazyServices []string

	// ContainerDeclarationDir is where the companion ambient declarations
	// file (alloy_identifiers_gen.go) is written. Defaults to the same
	// directory as OutputFile.
	ContainerDeclarationDir string

	// Visualize names a path for a dependency-graph diagram. No diagram is
	// emitted: a non-empty value only makes generation print a warning that
	// it is skipped.
	Visualize string
}
