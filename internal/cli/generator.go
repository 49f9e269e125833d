package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alloy-di/alloy/internal/codegen"
	"github.com/alloy-di/alloy/internal/discovery"
	compileerrors "github.com/alloy-di/alloy/internal/errors"
	"github.com/alloy-di/alloy/internal/manifest"
	"github.com/alloy-di/alloy/internal/models"
)

// ambientFileName is the companion file exposing the process-wide
// Container and one *alloy.ServiceKey per active service, alongside the
// primary wiring file generatedFileName holds the registrations in.
const ambientFileName = "alloy_identifiers_gen.go"

// factoryDeferredSet validates cfg.LazyServices against spec.md's
// alloy: prefix convention and turns it into the identifier-key set
// codegen.Input.FactoryDeferred expects.
func factoryDeferredSet(lazyServices []string) (map[string]bool, error) {
	if len(lazyServices) == 0 {
		return nil, nil
	}
	out := make(map[string]bool, len(lazyServices))
	for _, key := range lazyServices {
		if !strings.HasPrefix(key, "alloy:") {
			return nil, compileerrors.NewUnsupportedLazyIdentifier(key, compileerrors.SourceLocation{})
		}
		out[key] = true
	}
	return out, nil
}

// GenerationSummary reports what one Run produced, for the CLI's closing
// status line.
type GenerationSummary struct {
	ScannedFiles    int
	DiscoveredCount int
	ManifestCount   int
	OutputFile      string
	Duration        time.Duration
}

// Generator drives the full compiler pipeline: scan local packages, ingest
// manifests, run codegen, write the result.
type Generator struct {
	dirScanner *DirectoryScanner
	resolver   *ModuleResolver
	reporter   *Reporter
	summary    GenerationSummary
}

func NewGenerator(reporter *Reporter) *Generator {
	return &Generator{
		dirScanner: NewDirectoryScanner(),
		resolver:   NewModuleResolver(),
		reporter:   reporter,
	}
}

func (g *Generator) Summary() GenerationSummary { return g.summary }

// Run executes one full compile: scan, ingest, generate, write.
func (g *Generator) Run(cfg Config) error {
	start := time.Now()
	g.summary = GenerationSummary{}

	moduleName, err := g.resolver.ResolveModuleName(cfg.ModuleName)
	if err != nil {
		return fmt.Errorf("resolving module name: %w", err)
	}
	g.reporter.Info("module: %s", moduleName)

	store := discovery.New(false)
	packageDirs, err := g.dirScanner.PackageDirs(cfg.Directories)
	if err != nil {
		return fmt.Errorf("scanning directories: %w", err)
	}

	for _, dir := range packageDirs {
		importPath, err := g.resolver.BuildPackagePath(moduleName, dir)
		if err != nil {
			return fmt.Errorf("resolving import path for %s: %w", dir, err)
		}
		files, err := g.dirScanner.GoFiles(dir)
		if err != nil {
			return fmt.Errorf("listing %s: %w", dir, err)
		}
		for _, file := range files {
			source, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("reading %s: %w", file, err)
			}
			if _, _, _, _, err := store.Update(file, importPath, string(source)); err != nil {
				return fmt.Errorf("scanning %s: %w", file, err)
			}
			g.summary.ScannedFiles++
		}
	}

	localServices := store.Services()
	g.reporter.Info("discovered %d local service(s) across %d file(s)", len(localServices), g.summary.ScannedFiles)

	manifests, err := loadManifests(cfg.ManifestGlobs)
	if err != nil {
		return fmt.Errorf("loading manifests: %w", err)
	}

	ingestor := manifest.NewIngestor(localServices)
	ingested, err := ingestor.Ingest(manifests)
	if err != nil {
		return err
	}
	for _, d := range ingested.Diagnostics {
		g.reporter.Warning(d)
	}
	g.summary.ManifestCount = len(ingested.Services)
	if len(ingested.Services) > 0 {
		g.reporter.Info("ingested %d manifest service(s)", len(ingested.Services))
	}

	allServices := append(append([]models.DiscoveredService{}, localServices...), ingested.Services...)
	g.summary.DiscoveredCount = len(allServices)

	outputPackage := cfg.OutputPackage
	if outputPackage == "" {
		outputPackage = "wiring"
	}
	outputFile := cfg.OutputFile
	if outputFile == "" {
		outputFile = filepath.Join(".", generatedFileName)
	}

	packageImportPath, err := g.resolver.BuildPackagePath(moduleName, filepath.Dir(outputFile))
	if err != nil {
		return fmt.Errorf("resolving output package path: %w", err)
	}

	providers := make([]codegen.ProviderModule, 0, len(ingested.Providers))
	for _, importPath := range ingested.Providers {
		providers = append(providers, codegen.ProviderModule{ImportPath: importPath, FuncName: "Providers"})
	}

	factoryDeferred, err := factoryDeferredSet(cfg.LazyServices)
	if err != nil {
		return err
	}

	out, err := codegen.Generate(codegen.Input{
		PackageName:       outputPackage,
		PackageImportPath: packageImportPath,
		RuntimeImport:     moduleName + "/pkg/alloy",
		Services:          allServices,
		DeferredKeys:      store.DeferredKeys(),
		FactoryDeferred:   factoryDeferred,
		Providers:         providers,
	})
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(outputFile), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	if err := os.WriteFile(outputFile, []byte(out.Source), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", outputFile, err)
	}

	declDir := cfg.ContainerDeclarationDir
	if declDir == "" {
		declDir = filepath.Dir(outputFile)
	}
	if err := os.MkdirAll(declDir, 0o755); err != nil {
		return fmt.Errorf("creating declaration directory: %w", err)
	}
	ambientFile := filepath.Join(declDir, ambientFileName)
	if err := os.WriteFile(ambientFile, []byte(out.AmbientSource), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", ambientFile, err)
	}

	if cfg.Visualize != "" {
		g.reporter.Warning(fmt.Sprintf("--visualize %s requested but diagram emission is not implemented; skipping", cfg.Visualize))
	}

	g.summary.OutputFile = outputFile
	g.summary.Duration = time.Since(start)
	g.reporter.Success("wrote %s and %s (%d service(s)) in %s", outputFile, ambientFile, len(out.Identifiers), g.summary.Duration.Round(time.Millisecond))
	return nil
}

func loadManifests(globs []string) ([]*models.LibraryManifest, error) {
	var out []*models.LibraryManifest
	for _, pattern := range globs {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid manifest glob %q: %w", pattern, err)
		}
		for _, path := range matches {
			data, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("reading manifest %s: %w", path, err)
			}
			m, err := manifest.ParseYAML(data)
			if err != nil {
				return nil, fmt.Errorf("parsing manifest %s: %w", path, err)
			}
			out = append(out, m)
		}
	}
	return out, nil
}
