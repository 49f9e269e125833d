package cli

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// generatedFileName is the default name of the single wiring file that
// generation writes when no --output path is given, and the file name the
// cleaner removes from each directory it visits.
const generatedFileName = "alloy_wiring_generated.go"

// Cleaner removes generated wiring files.
type Cleaner struct{}

func NewCleaner() *Cleaner {
	return &Cleaner{}
}

// CleanGeneratedFiles removes generatedFileName from every directory under
// the given roots (expanding "./..." recursion) and returns what it
// removed. Unlike DirectoryScanner.PackageDirs, a directory containing only
// the generated file still qualifies, since that's exactly the state clean
// needs to undo.
func (c *Cleaner) CleanGeneratedFiles(directories []string) ([]string, error) {
	var removed []string
	for _, dir := range directories {
		if err := c.cleanRoot(dir, &removed); err != nil {
			return removed, fmt.Errorf("failed to clean %s: %w", dir, err)
		}
	}
	return removed, nil
}

func (c *Cleaner) cleanRoot(dir string, removed *[]string) error {
	base := strings.TrimSuffix(dir, "/...")
	if base == "" {
		base = "."
	}
	if base == dir {
		return c.cleanOne(base, removed)
	}

	return filepath.WalkDir(base, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != base && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return c.cleanOne(path, removed)
	})
}

func (c *Cleaner) cleanOne(dir string, removed *[]string) error {
	target := filepath.Join(dir, generatedFileName)
	if _, err := os.Stat(target); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to check %s: %w", target, err)
	}
	if err := os.Remove(target); err != nil {
		return fmt.Errorf("failed to remove %s: %w", target, err)
	}
	*removed = append(*removed, target)
	return nil
}
