// Package security guards the files the analysis tools write.
package security

import (
	"fmt"
	"path/filepath"
	"strings"
)

// maxNameLen bounds derived file names.
const maxNameLen = 128

// ValidatePathWithinDirectory reports an error if filePath, after cleaning and
// symlink resolution, lies outside dir. Paths that do not exist yet are
// resolved through their nearest existing parent so that a symlinked parent
// cannot redirect a new file elsewhere.
func ValidatePathWithinDirectory(filePath, dir string) error {
	canonicalPath, err := canonical(filePath)
	if err != nil {
		return err
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("failed to resolve directory %s: %w", dir, err)
	}
	canonicalDir, err := filepath.EvalSymlinks(absDir)
	if err != nil {
		return fmt.Errorf("failed to resolve directory symlinks: %w", err)
	}

	rel, err := filepath.Rel(canonicalDir, canonicalPath)
	if err != nil {
		return fmt.Errorf("path is outside %s: %w", dir, err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(rel) {
		return fmt.Errorf("path traversal detected: %s escapes %s", filePath, dir)
	}
	return nil
}

// canonical returns the absolute, symlink-free form of path. Missing trailing
// components are kept as given.
func canonical(path string) (string, error) {
	abs, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return "", fmt.Errorf("failed to resolve absolute path: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved, nil
	}
	for parent := filepath.Dir(abs); ; parent = filepath.Dir(parent) {
		if resolved, err := filepath.EvalSymlinks(parent); err == nil {
			rel, _ := filepath.Rel(parent, abs)
			return filepath.Join(resolved, rel), nil
		}
		if parent == filepath.Dir(parent) {
			return abs, nil
		}
	}
}

// SanitizeFilename maps s onto ASCII letters, digits, dot, underscore and
// dash, collapsing runs of anything else into a single underscore.
func SanitizeFilename(s string) string {
	var b strings.Builder
	lastUnderscore := false
	for _, r := range s {
		if b.Len() >= maxNameLen {
			break
		}
		switch {
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'),
			r == '.' || r == '-':
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore {
				b.WriteRune('_')
				lastUnderscore = true
			}
		}
	}
	out := strings.Trim(b.String(), "._")
	if out == "" {
		return "unknown"
	}
	return out
}

// DerivedOutputPath names an output file next to input: the input's base name
// without extension, an underscore, suffix and ext. The result is checked to
// stay inside the input's directory.
func DerivedOutputPath(input, suffix, ext string) (string, error) {
	dir := filepath.Dir(input)
	stem := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	name := SanitizeFilename(stem+"_"+suffix) + "." + strings.TrimPrefix(ext, ".")

	out := filepath.Join(dir, name)
	if err := ValidatePathWithinDirectory(out, dir); err != nil {
		return "", err
	}
	return out, nil
}
