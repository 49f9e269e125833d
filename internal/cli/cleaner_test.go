package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleaner_CleanGeneratedFiles_RemovesRecursively(t *testing.T) {
	tempDir := t.TempDir()
	sub := filepath.Join(tempDir, "internal", "billing")
	require.NoError(t, os.MkdirAll(sub, 0o755))

	generated := filepath.Join(sub, generatedFileName)
	require.NoError(t, os.WriteFile(generated, []byte("package billing\n"), 0o644))
	other := filepath.Join(sub, "service.go")
	require.NoError(t, os.WriteFile(other, []byte("package billing\n"), 0o644))

	removed, err := NewCleaner().CleanGeneratedFiles([]string{tempDir + "/..."})
	require.NoError(t, err)
	assert.Equal(t, []string{generated}, removed)

	_, err = os.Stat(generated)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(other)
	assert.NoError(t, err)
}

func TestCleaner_CleanGeneratedFiles_NothingToRemove(t *testing.T) {
	tempDir := t.TempDir()
	removed, err := NewCleaner().CleanGeneratedFiles([]string{tempDir})
	require.NoError(t, err)
	assert.Empty(t, removed)
}

func TestCleaner_CleanGeneratedFiles_SingleDirectoryNoRecursion(t *testing.T) {
	tempDir := t.TempDir()
	generated := filepath.Join(tempDir, generatedFileName)
	require.NoError(t, os.WriteFile(generated, []byte("package wiring\n"), 0o644))

	removed, err := NewCleaner().CleanGeneratedFiles([]string{tempDir})
	require.NoError(t, err)
	assert.Equal(t, []string{generated}, removed)
}
