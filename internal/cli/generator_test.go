package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerator_Run_ScansAndWritesWiringFile(t *testing.T) {
	tempDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tempDir, "go.mod"), []byte("module github.com/acme/app\n\ngo 1.25\n"), 0o644))

	pkgDir := filepath.Join(tempDir, "internal", "billing")
	require.NoError(t, os.MkdirAll(pkgDir, 0o755))

	source := `package billing

//alloy:singleton
type Repo struct{}

func NewRepo() *Repo { return &Repo{} }

//alloy:singleton(deps(Repo))
type Service struct{}

func NewService(r *Repo) *Service { return &Service{} }
`
	require.NoError(t, os.WriteFile(filepath.Join(pkgDir, "service.go"), []byte(source), 0o644))

	chdir(t, tempDir)

	reporter := NewReporter(false, true)
	defer reporter.Sync()

	outputFile := filepath.Join("internal", "billing", generatedFileName)
	gen := NewGenerator(reporter)
	err := gen.Run(Config{
		Directories:   []string{"./..."},
		OutputPackage: "billing",
		OutputFile:    outputFile,
	})
	require.NoError(t, err)

	written, err := os.ReadFile(outputFile)
	require.NoError(t, err)
	source2 := string(written)
	assert.Contains(t, source2, "package billing")
	assert.Contains(t, source2, `alloy.NewServiceKey("Repo"`)
	assert.Contains(t, source2, `alloy.NewServiceKey("Service"`)

	summary := gen.Summary()
	assert.Equal(t, 1, summary.ScannedFiles)
	assert.Equal(t, 2, summary.DiscoveredCount)

	ambient, err := os.ReadFile(filepath.Join("internal", "billing", ambientFileName))
	require.NoError(t, err)
	assert.Contains(t, string(ambient), "var Container = alloy.New()")
	assert.Contains(t, string(ambient), "ServiceSymbols")
}

func TestGenerator_Run_RejectsLazyServiceWithoutAlloyPrefix(t *testing.T) {
	tempDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tempDir, "go.mod"), []byte("module github.com/acme/app\n\ngo 1.25\n"), 0o644))
	chdir(t, tempDir)

	gen := NewGenerator(NewReporter(false, true))
	err := gen.Run(Config{
		Directories:  []string{"./..."},
		LazyServices: []string{"NotPrefixed"},
	})
	assert.Error(t, err)
}

func TestGenerator_Run_MissingModule(t *testing.T) {
	tempDir := t.TempDir()
	chdir(t, tempDir)

	gen := NewGenerator(NewReporter(false, true))
	err := gen.Run(Config{Directories: []string{"./..."}})
	assert.Error(t, err)
}
