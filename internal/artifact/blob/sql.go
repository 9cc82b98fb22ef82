package blob

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

type dialect struct {
	name   string
	schema string
	upsert string
	get    string
	list   string
}

var sqliteDialect = dialect{
	name: BackendSQLite,
	schema: `
CREATE TABLE IF NOT EXISTS blobs (
    namespace TEXT NOT NULL,
    path TEXT NOT NULL,
    content BLOB NOT NULL,
    size INTEGER NOT NULL,
    updated_at TIMESTAMP NOT NULL,
    PRIMARY KEY (namespace, path)
);`,
	upsert: `
INSERT INTO blobs (namespace, path, content, size, updated_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT (namespace, path)
DO UPDATE SET content=excluded.content, size=excluded.size, updated_at=excluded.updated_at`,
	get:  `SELECT content FROM blobs WHERE namespace=? AND path=?`,
	list: `SELECT path FROM blobs WHERE namespace=? ORDER BY path`,
}

var postgresDialect = dialect{
	name: BackendPostgres,
	schema: `
CREATE TABLE IF NOT EXISTS aidocgen_blobs (
    namespace TEXT NOT NULL,
    path TEXT NOT NULL,
    content BYTEA NOT NULL DEFAULT ''::bytea,
    size BIGINT NOT NULL,
    updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
    PRIMARY KEY (namespace, path)
);`,
	upsert: `
INSERT INTO aidocgen_blobs (namespace, path, content, size, updated_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (namespace, path)
DO UPDATE SET content=EXCLUDED.content, size=EXCLUDED.size, updated_at=EXCLUDED.updated_at`,
	get:  `SELECT content FROM aidocgen_blobs WHERE namespace=$1 AND path=$2`,
	list: `SELECT path FROM aidocgen_blobs WHERE namespace=$1 ORDER BY path`,
}

// SQLStore keeps blobs in a single table of a SQL database. The primary key on
// (namespace, path) plus an upsert gives overwrite-on-rewrite semantics.
type SQLStore struct {
	db         *sql.DB
	dialect    dialect
	schemaOnce sync.Once
	schemaErr  error
}

// NewSQLiteStore opens (creating if needed) a SQLite database at path.
func NewSQLiteStore(path string) (*SQLStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, err
	}
	// SQLite allows one writer; serializing through one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	return &SQLStore{db: db, dialect: sqliteDialect}, nil
}

// NewPostgresStore connects to Postgres through the pgx driver.
func NewPostgresStore(dsn string) (*SQLStore, error) {
	db, err := sql.Open("pgx", strings.TrimSpace(dsn))
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLStore{db: db, dialect: postgresDialect}, nil
}

func (s *SQLStore) ensureSchema(ctx context.Context) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("db is nil")
	}
	s.schemaOnce.Do(func() {
		_, s.schemaErr = s.db.ExecContext(ctx, s.dialect.schema)
	})
	return s.schemaErr
}

func (s *SQLStore) Put(ctx context.Context, namespace, p string, content []byte) error {
	namespace, p, err := cleanKey(namespace, p)
	if err != nil {
		return err
	}
	if err := s.ensureSchema(ctx); err != nil {
		return err
	}
	if content == nil {
		content = []byte{}
	}
	_, err = s.db.ExecContext(ctx, s.dialect.upsert, namespace, p, content, int64(len(content)), time.Now().UTC())
	return err
}

func (s *SQLStore) Get(ctx context.Context, namespace, p string) ([]byte, error) {
	namespace, p, err := cleanKey(namespace, p)
	if err != nil {
		return nil, err
	}
	if err := s.ensureSchema(ctx); err != nil {
		return nil, err
	}
	var content []byte
	err = s.db.QueryRowContext(ctx, s.dialect.get, namespace, p).Scan(&content)
	if err == sql.ErrNoRows {
		return nil, notFound(namespace, p)
	}
	return content, err
}

func (s *SQLStore) List(ctx context.Context, namespace string) ([]string, error) {
	namespace, err := cleanNamespace(namespace)
	if err != nil {
		return nil, err
	}
	if err := s.ensureSchema(ctx); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, s.dialect.list, namespace)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	paths := []string{}
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}
	return paths, rows.Err()
}

// Backend returns the dialect name.
func (s *SQLStore) Backend() string { return s.dialect.name }

func (s *SQLStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
