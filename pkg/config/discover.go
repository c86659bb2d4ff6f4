package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// TablePatterns match the files nv can load, relative to a scan root.
var TablePatterns = []string{
	"**/navtree.js",
	"**/*.navtree.json",
	"**/*.navtree.yaml",
	"**/*.navtree.yml",
}

// skipDirs are never descended into while scanning.
var skipDirs = map[string]bool{
	"node_modules": true,
	"vendor":       true,
}

// TableRef is a navigation table found on disk.
type TableRef struct {
	Name string // Path relative to the scan root it was found under
	Path string // Absolute path
}

// DiscoverTables returns the configured table (if any) followed by every
// table found under the discovery scan paths, deduplicated by path.
func DiscoverTables(cfg Config) []TableRef {
	seen := make(map[string]bool)
	var result []TableRef

	if cfg.Table != "" {
		abs := absPath(expandHome(cfg.Table))
		seen[abs] = true
		result = append(result, TableRef{Name: filepath.Base(cfg.Table), Path: abs})
	}

	maxDepth := cfg.Discovery.MaxDepth
	if maxDepth <= 0 {
		maxDepth = 4
	}
	for _, scanPath := range cfg.Discovery.ScanPaths {
		for _, f := range scanForTables(scanPath, maxDepth) {
			if !seen[f.Path] {
				seen[f.Path] = true
				result = append(result, f)
			}
		}
	}
	return result
}

// scanForTables walks root up to maxDepth directory levels and returns files
// matching TablePatterns, in walk order.
func scanForTables(root string, maxDepth int) []TableRef {
	root = absPath(expandHome(root))
	var results []TableRef

	rootDepth := strings.Count(filepath.Clean(root), string(filepath.Separator))

	_ = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			if path == root {
				return nil
			}
			depth := strings.Count(filepath.Clean(path), string(filepath.Separator)) - rootDepth
			if depth > maxDepth {
				return filepath.SkipDir
			}
			name := d.Name()
			if strings.HasPrefix(name, ".") || skipDirs[name] {
				return filepath.SkipDir
			}
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		if matchesTable(filepath.ToSlash(rel)) {
			results = append(results, TableRef{Name: rel, Path: path})
		}
		return nil
	})

	return results
}

func matchesTable(rel string) bool {
	for _, pattern := range TablePatterns {
		if ok, err := doublestar.Match(pattern, rel); err == nil && ok {
			return true
		}
	}
	return false
}

func absPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}

// DetectProjectRoot walks up from the working directory looking for a .nv
// state directory.
func DetectProjectRoot() (string, bool) {
	dir, err := os.Getwd()
	if err != nil {
		return "", false
	}
	return findStateRoot(dir)
}

// findStateRoot walks up from dir looking for a .nv/ directory, stopping at
// the filesystem root or the home directory.
func findStateRoot(dir string) (string, bool) {
	home, _ := os.UserHomeDir()

	for {
		stateDir := filepath.Join(dir, StateDir)
		if info, err := os.Stat(stateDir); err == nil && info.IsDir() {
			return dir, true
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		if home != "" && dir == home {
			break
		}
		dir = parent
	}
	return "", false
}
