package blob

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"
)

// DiskStore persists blobs as files under root/<namespace>/<path>.
// Writes go to a temporary file that is renamed over the target.
type DiskStore struct {
	fs   afero.Fs
	root string
}

// NewDiskStore creates a DiskStore rooted at root on fs.
func NewDiskStore(fs afero.Fs, root string) *DiskStore {
	return &DiskStore{fs: fs, root: strings.TrimSpace(root)}
}

func (s *DiskStore) Put(_ context.Context, namespace, p string, content []byte) error {
	full, err := s.pathFor(namespace, p)
	if err != nil {
		return err
	}
	dir := filepath.Dir(full)
	if err := s.fs.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := afero.TempFile(s.fs, dir, "."+filepath.Base(full)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(content); err != nil {
		_ = tmp.Close()
		_ = s.fs.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = s.fs.Remove(tmpName)
		return err
	}
	if err := s.fs.Rename(tmpName, full); err != nil {
		_ = s.fs.Remove(tmpName)
		return err
	}
	return nil
}

func (s *DiskStore) Get(_ context.Context, namespace, p string) ([]byte, error) {
	full, err := s.pathFor(namespace, p)
	if err != nil {
		return nil, err
	}
	data, err := afero.ReadFile(s.fs, full)
	if os.IsNotExist(err) {
		return nil, notFound(namespace, p)
	}
	return data, err
}

func (s *DiskStore) List(_ context.Context, namespace string) ([]string, error) {
	namespace, err := cleanNamespace(namespace)
	if err != nil {
		return nil, err
	}
	if s.root == "" {
		return nil, fmt.Errorf("root is required")
	}
	nsRoot := filepath.Join(s.root, namespace)

	paths := make([]string, 0, 32)
	walkErr := afero.Walk(s.fs, nsRoot, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || strings.Contains(info.Name(), ".tmp-") {
			return nil
		}
		rel, err := filepath.Rel(nsRoot, p)
		if err != nil {
			return err
		}
		paths = append(paths, filepath.ToSlash(rel))
		return nil
	})
	if walkErr != nil {
		if os.IsNotExist(walkErr) {
			return []string{}, nil
		}
		return nil, walkErr
	}
	sort.Strings(paths)
	return paths, nil
}

func (s *DiskStore) Close() error { return nil }

func (s *DiskStore) pathFor(namespace, p string) (string, error) {
	if s.root == "" {
		return "", fmt.Errorf("root is required")
	}
	namespace, p, err := cleanKey(namespace, p)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.root, namespace, filepath.FromSlash(p)), nil
}
