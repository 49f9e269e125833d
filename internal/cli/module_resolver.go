package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/mod/modfile"
)

// ModuleResolver resolves the Go module path new packages get imported
// under, either from an explicit override or by walking up to the nearest
// go.mod.
type ModuleResolver struct{}

func NewModuleResolver() *ModuleResolver {
	return &ModuleResolver{}
}

// ResolveModuleName returns customModule verbatim when set, otherwise reads
// the module directive out of the nearest go.mod.
func (r *ModuleResolver) ResolveModuleName(customModule string) (string, error) {
	if customModule != "" {
		return customModule, nil
	}

	modulePath, err := r.readGoModFile()
	if err != nil {
		return "", fmt.Errorf("failed to determine module name: %w (consider using --module)", err)
	}
	return modulePath, nil
}

func (r *ModuleResolver) readGoModFile() (string, error) {
	currentDir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current directory: %w", err)
	}

	for {
		goModPath := filepath.Join(currentDir, "go.mod")
		if data, err := os.ReadFile(goModPath); err == nil {
			mf, err := modfile.Parse(goModPath, data, nil)
			if err != nil {
				return "", fmt.Errorf("failed to parse %s: %w", goModPath, err)
			}
			if mf.Module == nil {
				return "", fmt.Errorf("%s has no module directive", goModPath)
			}
			return mf.Module.Mod.Path, nil
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			break
		}
		currentDir = parentDir
	}

	return "", fmt.Errorf("go.mod file not found")
}

// BuildPackagePath turns a filesystem package directory into its Go import
// path, given the resolved module name.
func (r *ModuleResolver) BuildPackagePath(moduleName, packageDir string) (string, error) {
	currentDir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current directory: %w", err)
	}

	absPackageDir, err := filepath.Abs(packageDir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve package directory: %w", err)
	}

	relPath, err := filepath.Rel(currentDir, absPackageDir)
	if err != nil {
		return "", fmt.Errorf("failed to calculate relative path: %w", err)
	}

	importSuffix := filepath.ToSlash(relPath)
	if importSuffix == "." {
		return moduleName, nil
	}
	return fmt.Sprintf("%s/%s", moduleName, importSuffix), nil
}
