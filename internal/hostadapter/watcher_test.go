package hostadapter

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcher_HandleWriteTriggersTransform(t *testing.T) {
	tempDir := t.TempDir()
	file := filepath.Join(tempDir, "repo.go")
	source := `package billing

//alloy:singleton
type Repo struct{}

func NewRepo() *Repo { return &Repo{} }
`
	require.NoError(t, os.WriteFile(file, []byte(source), 0o644))

	adapter := New(Options{PackageName: "wiring", PackageImportPath: "acme/wiring", RuntimeImport: "github.com/alloy-di/alloy/pkg/alloy", ContainerDeclarationDir: t.TempDir()})
	w, err := NewWatcher(adapter, func(dir string) (string, error) { return "acme/billing", nil })
	require.NoError(t, err)
	defer w.Close()

	applied, err := w.handle(fsnotify.Event{Name: file, Op: fsnotify.Write})
	require.NoError(t, err)
	assert.True(t, applied)

	out, err := adapter.OnLoad(VirtualModuleID)
	require.NoError(t, err)
	assert.Contains(t, out.Source, `alloy.NewServiceKey("Repo"`)
}

func TestWatcher_HandleRemoveMarksDeleted(t *testing.T) {
	adapter := New(Options{PackageName: "wiring", PackageImportPath: "acme/wiring", RuntimeImport: "github.com/alloy-di/alloy/pkg/alloy"})
	w, err := NewWatcher(adapter, func(dir string) (string, error) { return "acme/billing", nil })
	require.NoError(t, err)
	defer w.Close()

	applied, err := w.handle(fsnotify.Event{Name: "acme/billing/repo.go", Op: fsnotify.Remove})
	require.NoError(t, err)
	assert.True(t, applied)
}

func TestWatcher_HandleIgnoresNonGoFiles(t *testing.T) {
	adapter := New(Options{PackageName: "wiring", PackageImportPath: "acme/wiring", RuntimeImport: "github.com/alloy-di/alloy/pkg/alloy"})
	w, err := NewWatcher(adapter, func(dir string) (string, error) { return "acme/billing", nil })
	require.NoError(t, err)
	defer w.Close()

	applied, err := w.handle(fsnotify.Event{Name: "acme/billing/README.md", Op: fsnotify.Write})
	require.NoError(t, err)
	assert.False(t, applied)
}
