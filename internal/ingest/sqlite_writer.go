package ingest

import (
	"database/sql"
	"log"
	"sync"

	"github.com/agentic-research/lsgraph/internal/graph"
	"github.com/cockroachdb/errors"
	_ "modernc.org/sqlite"
)

const nodesSchema = `
	CREATE TABLE IF NOT EXISTS nodes (
		id INTEGER PRIMARY KEY,
		parent_id INTEGER,
		name TEXT NOT NULL,
		kind INTEGER NOT NULL,
		size INTEGER NOT NULL DEFAULT 0,
		path TEXT NOT NULL
	);
`

// SQLiteWriter exports finished trees to a SQLite database, one row per
// node. Node IDs are kept so that LoadSQLite can rebuild the same arena.
type SQLiteWriter struct {
	db        *sql.DB
	tx        *sql.Tx
	stmtNode  *sql.Stmt
	batchSize int
	count     int
	mu        sync.Mutex
}

// NewSQLiteWriter creates a new writer and initializes the schema.
func NewSQLiteWriter(dbPath string) (*SQLiteWriter, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, errors.Wrapf(err, "open sqlite %s", dbPath)
	}

	// Bulk insert; durability comes from Close committing.
	if _, err := db.Exec("PRAGMA synchronous = OFF"); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.Exec("PRAGMA journal_mode = MEMORY"); err != nil {
		_ = db.Close()
		return nil, err
	}

	if _, err := db.Exec(nodesSchema); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "create schema")
	}

	w := &SQLiteWriter{
		db:        db,
		batchSize: 10000,
	}
	if err := w.beginTx(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return w, nil
}

func (w *SQLiteWriter) beginTx() error {
	var err error
	w.tx, err = w.db.Begin()
	if err != nil {
		return err
	}
	w.stmtNode, err = w.tx.Prepare(`
		INSERT OR REPLACE INTO nodes (id, parent_id, name, kind, size, path)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	return err
}

func (w *SQLiteWriter) commitTx() error {
	if w.stmtNode != nil {
		_ = w.stmtNode.Close()
	}
	return w.tx.Commit()
}

// WriteTree inserts every node of s in arena order.
func (w *SQLiteWriter) WriteTree(s *graph.Store) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	for i := 0; i < s.Len(); i++ {
		id := graph.NodeID(i)
		n := s.Node(id)

		var parentID *int64
		if n.Parent != graph.NoNode {
			p := int64(n.Parent)
			parentID = &p
		}

		if _, err := w.stmtNode.Exec(
			int64(id),
			parentID,
			n.Name,
			int(n.Kind),
			int64(n.Size),
			s.Path(id),
		); err != nil {
			return errors.Wrapf(err, "insert node %d (%s)", id, s.Path(id))
		}

		w.count++
		if w.count >= w.batchSize {
			if err := w.commitTx(); err != nil {
				return errors.Wrap(err, "commit batch")
			}
			if err := w.beginTx(); err != nil {
				return errors.Wrap(err, "begin batch")
			}
			w.count = 0
		}
	}
	return nil
}

func (w *SQLiteWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.commitTx(); err != nil {
		_ = w.db.Close()
		return err
	}

	// Create indices after bulk load for speed
	if _, err := w.db.Exec(`CREATE INDEX IF NOT EXISTS idx_parent_name ON nodes(parent_id, name)`); err != nil {
		log.Printf("SQLiteWriter: index creation failed: %v", err)
	}
	if _, err := w.db.Exec(`CREATE INDEX IF NOT EXISTS idx_kind_size ON nodes(kind, size)`); err != nil {
		log.Printf("SQLiteWriter: index creation failed: %v", err)
	}

	return w.db.Close()
}

// ExportSQLite writes s to a fresh database at dbPath.
func ExportSQLite(s *graph.Store, dbPath string) error {
	w, err := NewSQLiteWriter(dbPath)
	if err != nil {
		return err
	}
	if err := w.WriteTree(s); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}
