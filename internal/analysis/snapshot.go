package analysis

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/afero"

	"github.com/Ayushpate2003/Ai-doc-generater/internal/errors"
)

// Snapshot is an immutable view of the repository being analyzed.
type Snapshot struct {
	// Root is the absolute path of the repository working tree.
	Root string `json:"root"`
	// ID names the repository. It is stable across runs for the same root.
	ID string `json:"id"`
	// Commit is the resolved HEAD commit, empty when the root is not a git checkout.
	Commit string `json:"commit,omitempty"`
}

// Identity returns the key under which artifacts for this snapshot are stored.
func (s Snapshot) Identity() string {
	if s.Commit == "" {
		return s.ID
	}
	c := s.Commit
	if len(c) > 12 {
		c = c[:12]
	}
	return s.ID + "@" + c
}

var unsafeIDChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// ResolveSnapshot builds a Snapshot for root, reading HEAD from .git when present.
// It does not validate that root exists; call ValidateSnapshot for that.
func ResolveSnapshot(fs afero.Fs, root string) (Snapshot, error) {
	if root == "" {
		return Snapshot{}, errors.NewSnapshotError(root, "root path is empty")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return Snapshot{}, errors.NewSnapshotError(root, err.Error())
	}

	sum := sha256.Sum256([]byte(abs))
	name := unsafeIDChars.ReplaceAllString(filepath.Base(abs), "-")
	if name == "" || name == "-" || name == "." {
		name = "repo"
	}

	return Snapshot{
		Root:   abs,
		ID:     name + "-" + hex.EncodeToString(sum[:])[:8],
		Commit: readHead(fs, abs),
	}, nil
}

// ValidateSnapshot checks that the snapshot root exists and is a directory.
func ValidateSnapshot(fs afero.Fs, s Snapshot) error {
	if s.Root == "" {
		return errors.NewSnapshotError("", "root path is empty")
	}
	if s.ID == "" {
		return errors.NewSnapshotError(s.Root, "snapshot identifier is empty")
	}
	info, err := fs.Stat(s.Root)
	if err != nil {
		return errors.NewSnapshotError(s.Root, "root is not readable: "+err.Error())
	}
	if !info.IsDir() {
		return errors.NewSnapshotError(s.Root, "root is not a directory")
	}
	return nil
}

// readHead returns the commit HEAD points at, or "" if it cannot be resolved.
// Both detached heads and symbolic refs (loose or packed) are handled.
func readHead(fs afero.Fs, root string) string {
	gitDir := filepath.Join(root, ".git")
	head, err := afero.ReadFile(fs, filepath.Join(gitDir, "HEAD"))
	if err != nil {
		return ""
	}
	line := strings.TrimSpace(string(head))
	ref, ok := strings.CutPrefix(line, "ref: ")
	if !ok {
		return line
	}

	if b, err := afero.ReadFile(fs, filepath.Join(gitDir, filepath.FromSlash(ref))); err == nil {
		return strings.TrimSpace(string(b))
	}

	f, err := fs.Open(filepath.Join(gitDir, "packed-refs"))
	if err != nil {
		return ""
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) == 2 && fields[1] == ref {
			return fields[0]
		}
	}
	return ""
}
