package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	original, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(original) })
}

func TestModuleResolver_ResolveModuleName_CustomOverride(t *testing.T) {
	resolver := NewModuleResolver()
	result, err := resolver.ResolveModuleName("github.com/custom/module")
	require.NoError(t, err)
	assert.Equal(t, "github.com/custom/module", result)
}

func TestModuleResolver_ResolveModuleName_ReadsGoMod(t *testing.T) {
	tempDir := t.TempDir()
	goModContent := "module github.com/example/testapp\n\ngo 1.25\n"
	require.NoError(t, os.WriteFile(filepath.Join(tempDir, "go.mod"), []byte(goModContent), 0o644))

	chdir(t, tempDir)

	result, err := NewModuleResolver().ResolveModuleName("")
	require.NoError(t, err)
	assert.Equal(t, "github.com/example/testapp", result)
}

func TestModuleResolver_ResolveModuleName_MissingGoMod(t *testing.T) {
	tempDir := t.TempDir()
	chdir(t, tempDir)

	_, err := NewModuleResolver().ResolveModuleName("")
	assert.Error(t, err)
}

func TestModuleResolver_BuildPackagePath(t *testing.T) {
	tempDir := t.TempDir()
	sub := filepath.Join(tempDir, "internal", "billing")
	require.NoError(t, os.MkdirAll(sub, 0o755))
	chdir(t, tempDir)

	resolver := NewModuleResolver()

	path, err := resolver.BuildPackagePath("github.com/acme/app", sub)
	require.NoError(t, err)
	assert.Equal(t, "github.com/acme/app/internal/billing", path)

	path, err = resolver.BuildPackagePath("github.com/acme/app", ".")
	require.NoError(t, err)
	assert.Equal(t, "github.com/acme/app", path)
}
