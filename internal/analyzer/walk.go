package analyzer

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
	"github.com/spf13/afero"

	"github.com/Ayushpate2003/Ai-doc-generater/internal/errors"
)

// MaxFileSize bounds how much of a single file the scanners read.
const MaxFileSize = 1 << 20

// File is one entry visited by a Walker.
type File struct {
	// Rel is slash-separated and relative to the snapshot root.
	Rel  string
	Size int64
	Dir  bool
}

// Depth returns the number of path elements below the root, starting at 1.
func (f File) Depth() int { return strings.Count(f.Rel, "/") + 1 }

// Ext returns the lowercased extension including the dot.
func (f File) Ext() string { return strings.ToLower(path.Ext(f.Rel)) }

// Base returns the last path element.
func (f File) Base() string { return path.Base(f.Rel) }

// Walker visits the files of a snapshot, honoring ignore patterns.
type Walker struct {
	fs       afero.Fs
	patterns []string
	ignore   []glob.Glob
}

// NewWalker compiles the ignore patterns. Patterns use '/' as the separator
// and are matched against paths relative to the snapshot root.
func NewWalker(fs afero.Fs, patterns []string) (*Walker, error) {
	w := &Walker{fs: fs, patterns: patterns}
	for _, p := range patterns {
		g, err := glob.Compile(filepath.ToSlash(p), '/')
		if err != nil {
			return nil, errors.NewValidationError("analysis.ignore", p, err.Error())
		}
		w.ignore = append(w.ignore, g)
	}
	return w, nil
}

// Fs returns the underlying filesystem.
func (w *Walker) Fs() afero.Fs { return w.fs }

// Ignored reports whether rel matches an ignore pattern.
func (w *Walker) Ignored(rel string, dir bool) bool {
	rel = filepath.ToSlash(rel)
	for _, g := range w.ignore {
		if g.Match(rel) || (dir && g.Match(rel+"/")) {
			return true
		}
	}
	return false
}

// Walk calls fn for every entry under root that is not ignored, in lexical
// order. Unreadable subdirectories are skipped; an unreadable root is an error.
func (w *Walker) Walk(ctx context.Context, root string, fn func(File) error) error {
	return afero.Walk(w.fs, root, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			if p == root {
				return err
			}
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		rel, err := filepath.Rel(root, p)
		if err != nil || rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if w.Ignored(rel, info.IsDir()) {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		return fn(File{Rel: rel, Size: info.Size(), Dir: info.IsDir()})
	})
}

// ReadFile returns at most MaxFileSize bytes of rel.
func (w *Walker) ReadFile(root, rel string) ([]byte, error) {
	f, err := w.fs.Open(filepath.Join(root, filepath.FromSlash(rel)))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(io.LimitReader(f, MaxFileSize))
}

// ScanLines calls fn for each line of every text file accepted by accept.
// Line numbers start at 1. Binary and oversized files are skipped.
func (w *Walker) ScanLines(ctx context.Context, root string, accept func(File) bool, fn func(f File, n int, line string)) error {
	return w.Walk(ctx, root, func(f File) error {
		if f.Dir || f.Size > MaxFileSize || !accept(f) {
			return nil
		}
		data, err := w.ReadFile(root, f.Rel)
		if err != nil || isBinary(data) {
			return nil
		}
		sc := bufio.NewScanner(bytes.NewReader(data))
		sc.Buffer(make([]byte, 0, 64*1024), MaxFileSize)
		n := 0
		for sc.Scan() {
			n++
			fn(f, n, sc.Text())
		}
		return nil
	})
}

func isBinary(data []byte) bool {
	head := data[:min(len(data), 512)]
	return bytes.IndexByte(head, 0) >= 0
}

// sourceExts are the extensions the pattern scanners read.
var sourceExts = map[string]string{
	".go":    "Go",
	".py":    "Python",
	".js":    "JavaScript",
	".jsx":   "JavaScript",
	".mjs":   "JavaScript",
	".cjs":   "JavaScript",
	".ts":    "TypeScript",
	".tsx":   "TypeScript",
	".java":  "Java",
	".kt":    "Kotlin",
	".rb":    "Ruby",
	".rs":    "Rust",
	".php":   "PHP",
	".cs":    "C#",
	".c":     "C",
	".h":     "C",
	".cpp":   "C++",
	".hpp":   "C++",
	".swift": "Swift",
	".scala": "Scala",
}

// otherExts are recognized for the language mix but not scanned.
var otherExts = map[string]string{
	".sh":    "Shell",
	".sql":   "SQL",
	".proto": "Protocol Buffers",
	".html":  "HTML",
	".css":   "CSS",
	".scss":  "CSS",
	".md":    "Markdown",
	".yaml":  "YAML",
	".yml":   "YAML",
	".json":  "JSON",
	".toml":  "TOML",
}

// Language returns the language name for f, or "" when unknown.
func Language(f File) string {
	if l, ok := sourceExts[f.Ext()]; ok {
		return l
	}
	if l, ok := otherExts[f.Ext()]; ok {
		return l
	}
	switch f.Base() {
	case "Dockerfile":
		return "Dockerfile"
	case "Makefile":
		return "Makefile"
	}
	return ""
}

func isSource(f File) bool {
	_, ok := sourceExts[f.Ext()]
	return ok
}
