package utils

import (
	"os"
	"path/filepath"
	"runtime"
)

// FindProjectRoot walks up from this source file to the directory holding go.mod.
func FindProjectRoot() string {
	_, filename, _, _ := runtime.Caller(0)
	dir := filepath.Dir(filename)

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			panic("could not find project root (go.mod not found)")
		}
		dir = parent
	}
}

// ProjectPath joins elem onto the project root.
func ProjectPath(elem ...string) string {
	return filepath.Join(append([]string{FindProjectRoot()}, elem...)...)
}
