// Package blob provides byte-level storage backends for the artifact store.
//
// Every backend stores content under a (namespace, path) pair. A Put to an
// existing pair replaces its content atomically from the reader's point of
// view. There is no delete operation.
package blob

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/Ayushpate2003/Ai-doc-generater/internal/errors"
)

// Store persists opaque blobs keyed by namespace and path.
// Get returns an error matching errors.ErrNotFound for a missing key.
type Store interface {
	Put(ctx context.Context, namespace, path string, content []byte) error
	Get(ctx context.Context, namespace, path string) ([]byte, error)
	// List returns the paths stored under namespace, sorted.
	List(ctx context.Context, namespace string) ([]string, error)
	Close() error
}

// Backend names accepted by Open.
const (
	BackendMemory   = "memory"
	BackendDisk     = "disk"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendS3       = "s3"
)

func notFound(namespace, p string) error {
	return fmt.Errorf("%s/%s: %w", namespace, p, errors.ErrNotFound)
}

// cleanKey trims and validates a key. Paths are slash-separated and may not
// escape their namespace.
func cleanKey(namespace, p string) (string, string, error) {
	namespace = strings.TrimSpace(namespace)
	if namespace == "" {
		return "", "", fmt.Errorf("namespace is required")
	}
	if strings.Contains(namespace, "..") || strings.ContainsAny(namespace, `/\`) {
		return "", "", fmt.Errorf("invalid namespace: %s", namespace)
	}
	p = strings.TrimLeft(strings.TrimSpace(p), "/")
	if p == "" {
		return "", "", fmt.Errorf("path is required")
	}
	if strings.Contains(p, "..") || strings.Contains(p, `\`) {
		return "", "", fmt.Errorf("invalid path: %s", p)
	}
	return namespace, path.Clean(p), nil
}

func cleanNamespace(namespace string) (string, error) {
	ns, _, err := cleanKey(namespace, "_")
	return ns, err
}

func objectKey(namespace, p string) string {
	return namespace + "/" + p
}
