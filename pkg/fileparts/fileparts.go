// Package fileparts splits file paths into directory, base name and
// extension, and derives output paths from input paths.
package fileparts

import (
	"path/filepath"
	"strings"
)

// Parts is a path broken into its directory, base name and extension.
// Ext includes the leading dot.
type Parts struct {
	Dir  string
	Base string
	Ext  string
}

// Name returns the file name without the directory.
func (p Parts) Name() string {
	return p.Base + p.Ext
}

// Split breaks path into its parts. A name whose only dot is the leading one
// (".profile") has an empty base name.
func Split(path string) Parts {
	dir, name := filepath.Split(path)
	ext := filepath.Ext(name)
	return Parts{
		Dir:  filepath.Clean(dir),
		Base: strings.TrimSuffix(name, ext),
		Ext:  ext,
	}
}

// Join is the inverse of Split.
func Join(p Parts) string {
	return filepath.Join(p.Dir, p.Name())
}

// WithExt replaces the extension of path with ext. A missing leading dot is added.
func WithExt(path, ext string) string {
	p := Split(path)
	p.Ext = normalizeExt(ext)
	return Join(p)
}

// OutputPath derives the output path for in: same base name, extension ext,
// in outDir or, when outDir is empty, next to the input.
func OutputPath(in, outDir, ext string) string {
	p := Split(in)
	if outDir != "" {
		p.Dir = outDir
	}
	p.Ext = normalizeExt(ext)
	return Join(p)
}

// Hidden reports whether the file name of path starts with a dot.
func Hidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}

// HasExt reports whether path has extension ext, ignoring case.
func HasExt(path, ext string) bool {
	return strings.EqualFold(filepath.Ext(path), normalizeExt(ext))
}

func normalizeExt(ext string) string {
	if ext == "" || strings.HasPrefix(ext, ".") {
		return ext
	}
	return "." + ext
}
