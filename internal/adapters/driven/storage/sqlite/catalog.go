// Package sqlite provides the SQLite-backed source catalog, the audit
// trail of every ingestion. The vector index itself lives in the flatfile
// store; this database only records who ingested what and when, which
// keeps repeated source IDs observable.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/citeline/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/citeline/internal/core/ports/driven"
)

var _ driven.SourceCatalog = (*Catalog)(nil)

// Catalog is a SQLite-backed ingestion audit trail.
type Catalog struct {
	db   *sql.DB
	path string
}

// NewCatalog opens (or creates) the catalog database under dataDir.
// If dataDir is empty, defaults to ~/.citeline/data.
func NewCatalog(dataDir string) (*Catalog, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".citeline", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "catalog.db")

	// WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	c := &Catalog{db: db, path: dbPath}
	if err := c.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return c, nil
}

// RecordIngestion appends one audit row. Repeated source IDs append
// additional rows; nothing is replaced.
func (c *Catalog) RecordIngestion(ctx context.Context, sourceID string, chunksAdded int) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO ingestions (source_id, chunks_added, ingested_at)
		VALUES (?, ?, ?)
	`, sourceID, chunksAdded, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("recording ingestion: %w", err)
	}
	return nil
}

// ListSources returns all ingestion rows, most recent first.
func (c *Catalog) ListSources(ctx context.Context) ([]driven.IngestionRecord, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT source_id, chunks_added, ingested_at
		FROM ingestions
		ORDER BY ingested_at DESC, id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("listing sources: %w", err)
	}
	defer rows.Close()

	var out []driven.IngestionRecord
	for rows.Next() {
		var r driven.IngestionRecord
		if err := rows.Scan(&r.SourceID, &r.ChunksAdded, &r.IngestedAt); err != nil {
			return nil, fmt.Errorf("scanning ingestion row: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating ingestion rows: %w", err)
	}
	return out, nil
}

// Close closes the database connection.
func (c *Catalog) Close() error {
	return c.db.Close()
}

// Path returns the database file path.
func (c *Catalog) Path() string {
	return c.path
}

// migrate runs all pending migrations.
func (c *Catalog) migrate(fsys embed.FS) error {
	_, err := c.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := c.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := c.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := c.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}
