// Package storage persists the built catalog and cluster index in SQLite so
// the server can come back up without re-reading and re-embedding the dump.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/cinesense/cinesense/internal/cluster"
	"github.com/cinesense/cinesense/internal/models"
	"github.com/cinesense/cinesense/internal/vector"
)

// SQLiteStorage stores catalog items, cluster centroids, and member
// assignments. A snapshot save replaces everything in one transaction.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens or creates a SQLite database at dbPath and
// initializes the schema. Parent directories are created if they do not
// exist.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dbPath != ":memory:" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS items (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		type TEXT NOT NULL,
		franchise_key TEXT,
		overview TEXT,
		genre TEXT,
		rating REAL,
		popularity REAL,
		year INTEGER,
		release_date TEXT,
		embedding BLOB NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_items_type ON items(type);

	CREATE TABLE IF NOT EXISTS clusters (
		id INTEGER PRIMARY KEY,
		type TEXT NOT NULL,
		centroid BLOB NOT NULL
	);

	CREATE TABLE IF NOT EXISTS cluster_members (
		cluster_id INTEGER NOT NULL,
		item_id TEXT NOT NULL,
		PRIMARY KEY (item_id),
		FOREIGN KEY (cluster_id) REFERENCES clusters(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS snapshot_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	_, err := db.Exec(schema)
	return err
}

// SaveSnapshot replaces the persisted catalog with the given items and
// clusters. All writes happen in one transaction so readers never observe a
// half-written snapshot.
func (s *SQLiteStorage) SaveSnapshot(ctx context.Context, items []*models.CatalogItem, clusters []*cluster.Cluster) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"cluster_members", "clusters", "items"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	itemStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO items (id, title, type, franchise_key, overview, genre, rating, popularity, year, release_date, embedding)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer itemStmt.Close()
	for _, it := range items {
		_, err := itemStmt.ExecContext(ctx,
			it.ID, it.Title, string(it.Type), it.FranchiseKey,
			it.Metadata.Overview, it.Metadata.Genre, it.Metadata.Rating,
			it.Metadata.Popularity, it.Metadata.Year, it.Metadata.ReleaseDate,
			vector.ToBytes(it.Embedding),
		)
		if err != nil {
			return fmt.Errorf("failed to insert item %s: %w", it.ID, err)
		}
	}

	clusterStmt, err := tx.PrepareContext(ctx, `INSERT INTO clusters (id, type, centroid) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer clusterStmt.Close()
	memberStmt, err := tx.PrepareContext(ctx, `INSERT INTO cluster_members (cluster_id, item_id) VALUES (?, ?)`)
	if err != nil {
		return err
	}
	defer memberStmt.Close()
	for _, cl := range clusters {
		if _, err := clusterStmt.ExecContext(ctx, cl.ID, string(cl.Type), vector.ToBytes(cl.Centroid)); err != nil {
			return fmt.Errorf("failed to insert cluster %d: %w", cl.ID, err)
		}
		for _, id := range cl.Members {
			if _, err := memberStmt.ExecContext(ctx, cl.ID, id); err != nil {
				return fmt.Errorf("failed to insert member %s of cluster %d: %w", id, cl.ID, err)
			}
		}
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO snapshot_meta (key, value) VALUES ('saved_at', ?)`,
		time.Now().UTC().Format(time.RFC3339),
	); err != nil {
		return fmt.Errorf("failed to record snapshot time: %w", err)
	}

	return tx.Commit()
}

// LoadItems returns all persisted catalog items in ascending id order.
func (s *SQLiteStorage) LoadItems(ctx context.Context) ([]*models.CatalogItem, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, type, franchise_key, overview, genre, rating, popularity, year, release_date, embedding
		 FROM items ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*models.CatalogItem
	for rows.Next() {
		var it models.CatalogItem
		var typ string
		var blob []byte
		if err := rows.Scan(&it.ID, &it.Title, &typ, &it.FranchiseKey,
			&it.Metadata.Overview, &it.Metadata.Genre, &it.Metadata.Rating,
			&it.Metadata.Popularity, &it.Metadata.Year, &it.Metadata.ReleaseDate,
			&blob); err != nil {
			return nil, err
		}
		ct, err := models.ParseContentType(typ)
		if err != nil {
			return nil, fmt.Errorf("item %s: %w", it.ID, err)
		}
		it.Type = ct
		it.Embedding = vector.FromBytes(blob)
		items = append(items, &it)
	}
	return items, rows.Err()
}

// LoadClusters returns all persisted clusters with their members, ready for
// cluster.Restore.
func (s *SQLiteStorage) LoadClusters(ctx context.Context) ([]*cluster.Cluster, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, type, centroid FROM clusters ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byID := make(map[int]*cluster.Cluster)
	var clusters []*cluster.Cluster
	for rows.Next() {
		var cl cluster.Cluster
		var typ string
		var blob []byte
		if err := rows.Scan(&cl.ID, &typ, &blob); err != nil {
			return nil, err
		}
		ct, err := models.ParseContentType(typ)
		if err != nil {
			return nil, fmt.Errorf("cluster %d: %w", cl.ID, err)
		}
		cl.Type = ct
		cl.Centroid = vector.FromBytes(blob)
		byID[cl.ID] = &cl
		clusters = append(clusters, &cl)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	mrows, err := s.db.QueryContext(ctx, `SELECT cluster_id, item_id FROM cluster_members ORDER BY item_id`)
	if err != nil {
		return nil, err
	}
	defer mrows.Close()
	for mrows.Next() {
		var clusterID int
		var itemID string
		if err := mrows.Scan(&clusterID, &itemID); err != nil {
			return nil, err
		}
		cl, ok := byID[clusterID]
		if !ok {
			return nil, fmt.Errorf("member %s references unknown cluster %d", itemID, clusterID)
		}
		cl.Members = append(cl.Members, itemID)
	}
	return clusters, mrows.Err()
}

// CountItems returns the persisted item total and a per-type breakdown.
func (s *SQLiteStorage) CountItems(ctx context.Context) (int, map[models.ContentType]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT type, COUNT(*) FROM items GROUP BY type`)
	if err != nil {
		return 0, nil, err
	}
	defer rows.Close()

	total := 0
	byType := make(map[models.ContentType]int)
	for rows.Next() {
		var typ string
		var n int
		if err := rows.Scan(&typ, &n); err != nil {
			return 0, nil, err
		}
		ct, err := models.ParseContentType(typ)
		if err != nil {
			return 0, nil, err
		}
		byType[ct] = n
		total += n
	}
	return total, byType, rows.Err()
}

// SavedAt returns when the stored snapshot was written, or the zero time if
// nothing has been saved yet.
func (s *SQLiteStorage) SavedAt(ctx context.Context) (time.Time, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM snapshot_meta WHERE key = 'saved_at'`).Scan(&value)
	if err == sql.ErrNoRows {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	return time.Parse(time.RFC3339, value)
}

// Close closes the underlying database.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
