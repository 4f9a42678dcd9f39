package confkit

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// maxRootDepth bounds how far the project root search climbs.
const maxRootDepth = 8

// walkUp visits this source file's directory and its parents, nearest first,
// until visit returns true or the root marker is passed. It reports whether
// the walk ran at all.
func walkUp(visit func(dir string) bool) bool {
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		return false
	}
	dir := filepath.Dir(file)
	for i := 0; i < maxRootDepth; i++ {
		if visit(dir) || isProjectRoot(dir) {
			return true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return true
}

func isProjectRoot(dir string) bool {
	return fileExists(filepath.Join(dir, "go.mod")) || fileExists(filepath.Join(dir, ".git"))
}

func fileExists(p string) bool {
	if p == "" {
		return false
	}
	_, err := os.Stat(p)
	return err == nil
}

// ProjectRoot locates the module root (the nearest directory holding go.mod
// or .git). Falls back to the working directory.
func ProjectRoot() (string, error) {
	root := ""
	walkUp(func(dir string) bool {
		if isProjectRoot(dir) {
			root = dir
			return true
		}
		return false
	})
	if root != "" {
		return root, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return ".", fmt.Errorf("getwd: %w", err)
	}
	return wd, nil
}

// MustProjectPath joins the project root with rel and panics when the root
// cannot be determined.
func MustProjectPath(rel string) string {
	root, err := ProjectRoot()
	if err != nil {
		panic(err)
	}
	return filepath.Join(root, rel)
}
