package blob

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/Ayushpate2003/Ai-doc-generater/internal/config"
)

// Open builds the backend selected by cfg.Backend. Relative paths in cfg are
// resolved against root. When cfg.Cache.Enabled the backend is wrapped in a
// CachedStore.
func Open(fs afero.Fs, root string, cfg config.StoreConfig) (Store, error) {
	var (
		store Store
		err   error
	)
	switch cfg.Backend {
	case BackendMemory:
		store = NewMemoryStore()
	case BackendDisk, "":
		store = NewDiskStore(fs, config.ResolvePath(root, cfg.Dir))
	case BackendSQLite:
		path := config.ResolvePath(root, cfg.SQLitePath)
		if err := fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite directory: %w", err)
		}
		store, err = NewSQLiteStore(path)
	case BackendPostgres:
		store, err = NewPostgresStore(cfg.PostgresDSN)
	case BackendS3:
		store, err = NewS3Store(S3Config{
			Endpoint:  cfg.S3.Endpoint,
			Region:    cfg.S3.Region,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			Bucket:    cfg.S3.Bucket,
			UseSSL:    cfg.S3.UseSSL,
		})
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Backend, err)
	}

	if cfg.Cache.Enabled {
		store = NewCachedStore(store, CacheConfig{
			BlobTTL:        cfg.Cache.TTL,
			BlobMaxEntries: cfg.Cache.Size,
		})
	}
	return store, nil
}

// Name returns a short backend label for logs and errors.
func Name(s Store) string {
	switch v := s.(type) {
	case *MemoryStore:
		return BackendMemory
	case *DiskStore:
		return BackendDisk
	case *SQLStore:
		return v.Backend()
	case *S3Store:
		return BackendS3
	case *CachedStore:
		return Name(v.origin) + "+cache"
	default:
		return fmt.Sprintf("%T", s)
	}
}
