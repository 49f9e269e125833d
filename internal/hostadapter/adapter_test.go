package hostadapter

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/alloy-di/alloy/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPluginAdapter_ResolveVirtual(t *testing.T) {
	a := New(Options{PackageName: "wiring", PackageImportPath: "acme/wiring", RuntimeImport: "github.com/alloy-di/alloy/pkg/alloy", ContainerDeclarationDir: t.TempDir()})

	id, ok := a.ResolveVirtual(VirtualModuleID)
	assert.True(t, ok)
	assert.Equal(t, VirtualModuleID, id)

	_, ok = a.ResolveVirtual("something-else")
	assert.False(t, ok)
}

func TestPluginAdapter_OnTransformThenOnLoad(t *testing.T) {
	a := New(Options{PackageName: "wiring", PackageImportPath: "acme/wiring", RuntimeImport: "github.com/alloy-di/alloy/pkg/alloy", ContainerDeclarationDir: t.TempDir()})
	a.OnBuildStart("acme")

	source := `package billing

//alloy:singleton
type Repo struct{}

func NewRepo() *Repo { return &Repo{} }
`
	require.NoError(t, a.OnTransform("acme/billing/repo.go", "acme/billing", source))

	out, err := a.OnLoad(VirtualModuleID)
	require.NoError(t, err)
	assert.Contains(t, out.Source, `alloy.NewServiceKey("Repo"`)
}

func TestPluginAdapter_OnHotUpdateDeleteRemovesServices(t *testing.T) {
	a := New(Options{PackageName: "wiring", PackageImportPath: "acme/wiring", RuntimeImport: "github.com/alloy-di/alloy/pkg/alloy", ContainerDeclarationDir: t.TempDir()})

	source := `package billing

//alloy:singleton
type Repo struct{}

func NewRepo() *Repo { return &Repo{} }
`
	require.NoError(t, a.OnTransform("acme/billing/repo.go", "acme/billing", source))
	out, err := a.OnLoad(VirtualModuleID)
	require.NoError(t, err)
	assert.NotEmpty(t, out.Identifiers)

	a.OnHotUpdate("acme/billing/repo.go", true)

	out, err = a.OnLoad(VirtualModuleID)
	require.NoError(t, err)
	assert.Empty(t, out.Identifiers)
}

func TestPluginAdapter_IngestManifestRejectsInvalid(t *testing.T) {
	a := New(Options{PackageName: "wiring", PackageImportPath: "acme/wiring", RuntimeImport: "github.com/alloy-di/alloy/pkg/alloy", ContainerDeclarationDir: t.TempDir()})
	err := a.IngestManifest(&models.LibraryManifest{})
	assert.Error(t, err)
}

func TestPluginAdapter_OnLoadUnknownID(t *testing.T) {
	a := New(Options{})
	_, err := a.OnLoad("not-the-virtual-id")
	assert.Error(t, err)
}

func TestPluginAdapter_OnLoadEmitsAmbientDeclarationsFile(t *testing.T) {
	dir := t.TempDir()
	a := New(Options{PackageName: "wiring", PackageImportPath: "acme/wiring", RuntimeImport: "github.com/alloy-di/alloy/pkg/alloy", ContainerDeclarationDir: dir})
	a.OnBuildStart("acme")

	source := `package billing

//alloy:singleton
type Repo struct{}

func NewRepo() *Repo { return &Repo{} }
`
	require.NoError(t, a.OnTransform("acme/billing/repo.go", "acme/billing", source))

	out, err := a.OnLoad(VirtualModuleID)
	require.NoError(t, err)

	written, err := os.ReadFile(filepath.Join(dir, "alloy_identifiers_gen.go"))
	require.NoError(t, err)
	assert.Equal(t, out.AmbientSource, string(written))
	assert.Contains(t, string(written), "var Container = alloy.New()")
	assert.Contains(t, string(written), "ServiceSymbols")
}

func TestPluginAdapter_EmitFileRejectsPathTraversalInName(t *testing.T) {
	dir := t.TempDir()
	a := New(Options{ContainerDeclarationDir: dir})
	require.NoError(t, a.EmitFile("../escape.go", []byte("package x")))

	_, err := os.Stat(filepath.Join(dir, "escape.go"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(filepath.Dir(dir), "escape.go"))
	assert.True(t, os.IsNotExist(err))
}
