package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"golang.org/x/mod/modfile"
)

// ModulePath is the import path declared in the repository's go.mod
const ModulePath = "github.com/cursorgallery/cursorgallery"

// FindProjectRoot walks up from the caller's source file to the directory
// holding the cursorgallery go.mod. A go.mod declaring another module is
// skipped so nested fixtures cannot be mistaken for the root.
func FindProjectRoot() (string, error) {
	_, filename, _, ok := runtime.Caller(1)
	if !ok {
		return "", fmt.Errorf("failed to get caller information")
	}

	dir := filepath.Dir(filename)

	for {
		if mod, err := ReadModulePath(dir); err == nil && mod == ModulePath {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("go.mod for %s not found in any parent directory", ModulePath)
		}
		dir = parent
	}
}

// ReadModulePath returns the module path declared by dir/go.mod
func ReadModulePath(dir string) (string, error) {
	data, err := os.ReadFile(filepath.Join(dir, "go.mod"))
	if err != nil {
		return "", err
	}
	mod := modfile.ModulePath(data)
	if mod == "" {
		return "", fmt.Errorf("no module directive in %s", filepath.Join(dir, "go.mod"))
	}
	return mod, nil
}
