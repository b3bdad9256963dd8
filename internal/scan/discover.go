package scan

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/roach88/yodascan/internal/extract"
)

// Layout names the input files expected inside each scan-point directory.
type Layout struct {
	ParamFile  string
	BundleFile string
}

// DefaultLayout is the layout produced by the event generation step.
var DefaultLayout = Layout{
	ParamFile:  "param.dat",
	BundleFile: "Higgs-scaled.yoda",
}

// PointPaths is one discovered scan point. A path is empty when no candidate
// file exists.
type PointPaths struct {
	ID         string
	Dir        string
	ParamPath  string
	BundlePath string
}

// Input converts the paths into extractor input.
func (p PointPaths) Input() extract.Input {
	return extract.Input{Point: p.ID, ParamPath: p.ParamPath, BundlePath: p.BundlePath}
}

// Complete reports whether both input files were found.
func (p PointPaths) Complete() bool {
	return p.ParamPath != "" && p.BundlePath != ""
}

// Discover lists the scan-point directories directly under root, sorted by
// name. A directory is kept when it matches any include pattern (all
// directories when include is empty) and no exclude pattern. Patterns use
// doublestar syntax and match the directory name.
func Discover(root string, layout Layout, include, exclude []string) ([]PointPaths, error) {
	if err := ValidatePatterns("include", include); err != nil {
		return nil, err
	}
	if err := ValidatePatterns("exclude", exclude); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("read scan directory: %w", err)
	}

	var points []PointPaths
	for _, e := range entries {
		if !isDir(root, e) {
			continue
		}
		name := e.Name()

		if !selected(name, include, exclude) {
			continue
		}

		dir := filepath.Join(root, name)
		p := PointPaths{ID: name, Dir: dir}
		if p.ParamPath, err = resolve(dir, layout.ParamFile); err != nil {
			return nil, err
		}
		if p.BundlePath, err = resolve(dir, layout.BundleFile); err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	return points, nil
}

// isDir reports whether e is a directory, following a symlink entry to its
// target. A dangling link is not a directory.
func isDir(root string, e fs.DirEntry) bool {
	if e.Type()&fs.ModeSymlink == 0 {
		return e.IsDir()
	}
	info, err := os.Stat(filepath.Join(root, e.Name()))
	return err == nil && info.IsDir()
}

// ValidatePatterns checks that every pattern is well-formed doublestar syntax.
func ValidatePatterns(kind string, patterns []string) error {
	for _, pattern := range patterns {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("%s pattern %q: %w", kind, pattern, doublestar.ErrBadPattern)
		}
	}
	return nil
}

func selected(name string, include, exclude []string) bool {
	in := len(include) == 0
	for _, pattern := range include {
		if doublestar.MatchUnvalidated(pattern, name) {
			in = true
			break
		}
	}
	if !in {
		return false
	}

	for _, pattern := range exclude {
		if doublestar.MatchUnvalidated(pattern, name) {
			return false
		}
	}
	return true
}

// resolve returns the first existing regular file among name and its
// compressed variants, or "" when none exists.
func resolve(dir, name string) (string, error) {
	candidates := []string{name}
	for _, suffix := range extract.CompressedSuffixes {
		candidates = append(candidates, name+suffix)
	}

	for _, c := range candidates {
		path := filepath.Join(dir, c)
		info, err := os.Stat(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("stat %s: %w", path, err)
		}
		if info.Mode().IsRegular() {
			return path, nil
		}
	}
	return "", nil
}
