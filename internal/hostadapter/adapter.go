// Package hostadapter is the thin boundary a host build tool drives this
// compiler through: seed on startup, feed file changes as they happen, and
// resolve the virtual wiring module on demand. The host's own module graph,
// watch scheduling and asset pipeline stay entirely outside this package;
// only the I/O contract at the edge is specified here.
package hostadapter

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/alloy-di/alloy/internal/codegen"
	"github.com/alloy-di/alloy/internal/discovery"
	"github.com/alloy-di/alloy/internal/manifest"
	"github.com/alloy-di/alloy/internal/models"
)

// VirtualModuleID is the symbolic import name a host resolves to this
// adapter's synthesized wiring package.
const VirtualModuleID = "virtual:alloy-container"

// ambientFileName is the companion declarations asset OnLoad writes as a
// side effect, mirroring the ambient .d.ts a bundler adapter would emit
// alongside the resolved virtual module.
const ambientFileName = "alloy_identifiers_gen.go"

// Adapter is what a host build tool calls into. Every method is safe to
// call concurrently: OnTransform/OnHotUpdate are typically invoked from a
// file-watcher goroutine while OnLoad serves a build/serve request.
type Adapter interface {
	// OnBuildStart clears discovery state and ingested manifests. When no
	// runtime import path was configured, modulePath + "/pkg/alloy" becomes
	// the runtime import of the generated code.
	OnBuildStart(modulePath string)

	// ResolveVirtual maps a symbolic import name to the opaque id OnLoad
	// accepts. Only VirtualModuleID resolves; anything else returns false.
	ResolveVirtual(id string) (resolvedID string, ok bool)

	// OnTransform is invoked for every recognized Go source unit found
	// during a walk or reported by the host's own file watcher.
	OnTransform(fileID, packageImportPath, source string) error

	// OnHotUpdate reports a change to fileID. deleted signals the file no
	// longer exists (the Go analogue of an empty module list).
	OnHotUpdate(fileID string, deleted bool)

	// IngestManifest ingests one prebuilt-library manifest's already
	// decoded record.
	IngestManifest(m *models.LibraryManifest) error

	// OnLoad synthesizes the current wiring module for resolvedID and, as a
	// side effect, writes the companion ambient declarations file to
	// ContainerDeclarationDir via EmitFile.
	OnLoad(resolvedID string) (*codegen.Output, error)

	// EmitFile writes one generated asset (name relative to
	// ContainerDeclarationDir, contents already formatted) to disk. Exposed
	// on the interface so a host that emits assets its own way (bundling
	// them, writing to a virtual filesystem) can substitute its own
	// PluginAdapter-compatible implementation.
	EmitFile(name string, contents []byte) error
}

// Options configures the generated module's shape.
type Options struct {
	PackageName       string
	PackageImportPath string
	RuntimeImport     string
	FactoryDeferred   map[string]bool
	Providers         []codegen.ProviderModule

	// ContainerDeclarationDir is where EmitFile writes generated assets.
	// Defaults to the working directory.
	ContainerDeclarationDir string
}

// PluginAdapter is the default in-process Adapter: a discovery store plus
// an accumulating manifest pool, regenerated on every OnLoad call.
type PluginAdapter struct {
	mu       sync.Mutex
	store    *discovery.Store
	opts     Options
	manifest []*models.LibraryManifest
}

func New(opts Options) *PluginAdapter {
	return &PluginAdapter{
		store: discovery.New(false),
		opts:  opts,
	}
}

func (a *PluginAdapter) OnBuildStart(modulePath string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.store.Clear()
	a.manifest = nil
	if a.opts.RuntimeImport == "" {
		a.opts.RuntimeImport = modulePath + "/pkg/alloy"
	}
}

func (a *PluginAdapter) ResolveVirtual(id string) (string, bool) {
	if id != VirtualModuleID {
		return "", false
	}
	return VirtualModuleID, true
}

func (a *PluginAdapter) OnTransform(fileID, packageImportPath, source string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, _, _, _, err := a.store.Update(fileID, packageImportPath, source)
	if err != nil {
		return fmt.Errorf("hostadapter: transforming %s: %w", fileID, err)
	}
	return nil
}

func (a *PluginAdapter) OnHotUpdate(fileID string, deleted bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if deleted {
		a.store.Remove(fileID)
	}
	// A non-delete update is expected to arrive via a follow-up OnTransform
	// call carrying the new source; there is nothing to do here beyond
	// dropping stale state, matching the host contract's split between
	// "something changed" and "here is what it changed to".
}

func (a *PluginAdapter) IngestManifest(m *models.LibraryManifest) error {
	if err := manifest.Validate(m); err != nil {
		return fmt.Errorf("hostadapter: invalid manifest %q: %w", m.PackageName, err)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.manifest = append(a.manifest, m)
	return nil
}

func (a *PluginAdapter) OnLoad(resolvedID string) (*codegen.Output, error) {
	if resolvedID != VirtualModuleID {
		return nil, fmt.Errorf("hostadapter: unknown resolved id %q", resolvedID)
	}

	a.mu.Lock()
	local := a.store.Services()
	deferredKeys := a.store.DeferredKeys()
	manifests := append([]*models.LibraryManifest{}, a.manifest...)
	opts := a.opts
	a.mu.Unlock()

	ingestor := manifest.NewIngestor(local)
	ingested, err := ingestor.Ingest(manifests)
	if err != nil {
		return nil, err
	}

	all := append(append([]models.DiscoveredService{}, local...), ingested.Services...)

	providers := append([]codegen.ProviderModule{}, opts.Providers...)
	for _, importPath := range ingested.Providers {
		providers = append(providers, codegen.ProviderModule{ImportPath: importPath, FuncName: "Providers"})
	}

	out, err := codegen.Generate(codegen.Input{
		PackageName:       opts.PackageName,
		PackageImportPath: opts.PackageImportPath,
		RuntimeImport:     opts.RuntimeImport,
		Services:          all,
		DeferredKeys:      deferredKeys,
		FactoryDeferred:   opts.FactoryDeferred,
		Providers:         providers,
	})
	if err != nil {
		return nil, err
	}

	if err := a.EmitFile(ambientFileName, []byte(out.AmbientSource)); err != nil {
		return nil, fmt.Errorf("hostadapter: writing ambient declarations: %w", err)
	}

	return out, nil
}

// EmitFile writes contents under ContainerDeclarationDir, creating it if
// necessary. name is joined against the directory, never treated as an
// absolute override, so a host can't be redirected outside its configured
// declaration root by a crafted asset name.
func (a *PluginAdapter) EmitFile(name string, contents []byte) error {
	a.mu.Lock()
	dir := a.opts.ContainerDeclarationDir
	a.mu.Unlock()
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("hostadapter: creating declaration dir %s: %w", dir, err)
	}
	path := filepath.Join(dir, filepath.Base(name))
	if err := os.WriteFile(path, contents, 0o644); err != nil {
		return fmt.Errorf("hostadapter: writing %s: %w", path, err)
	}
	return nil
}
