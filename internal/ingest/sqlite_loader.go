package ingest

import (
	"database/sql"
	"os"

	"github.com/agentic-research/lsgraph/internal/graph"
	"github.com/cockroachdb/errors"
	_ "modernc.org/sqlite"
)

// ErrCorruptExport is returned when a database written by SQLiteWriter no
// longer describes a valid tree.
var ErrCorruptExport = errors.New("corrupt tree export")

// LoadSQLite rebuilds a store from an export. File sizes are replayed
// through AddSize, so directory sizes are recomputed rather than trusted;
// the stored directory sizes must agree with the recomputed ones.
func LoadSQLite(dbPath string) (*graph.Store, error) {
	if _, err := os.Stat(dbPath); err != nil {
		return nil, errors.Wrap(err, "open export")
	}
	// Read-only, so a failed load never creates or modifies the file.
	db, err := sql.Open("sqlite", "file:"+dbPath+"?mode=ro")
	if err != nil {
		return nil, errors.Wrapf(err, "open sqlite %s", dbPath)
	}
	defer func() { _ = db.Close() }() // safe to ignore

	rows, err := db.Query("SELECT id, parent_id, name, kind, size FROM nodes ORDER BY id")
	if err != nil {
		return nil, errors.Wrap(err, "query nodes")
	}
	defer func() { _ = rows.Close() }() // safe to ignore

	type storedDir struct {
		id   graph.NodeID
		size uint64
	}
	var dirs []storedDir

	s := graph.NewStore()
	for rows.Next() {
		var (
			id     int64
			parent sql.NullInt64
			name   string
			kind   int
			size   int64
		)
		if err := rows.Scan(&id, &parent, &name, &kind, &size); err != nil {
			return nil, errors.Wrap(err, "scan row")
		}

		if id != int64(s.Len()) {
			return nil, errors.Wrapf(ErrCorruptExport, "expected node %d, found %d", s.Len(), id)
		}
		if kind != int(graph.KindDirectory) && kind != int(graph.KindFile) {
			return nil, errors.Wrapf(ErrCorruptExport, "node %d has kind %d", id, kind)
		}
		k := graph.Kind(kind)
		if size < 0 {
			return nil, errors.Wrapf(ErrCorruptExport, "node %d has size %d", id, size)
		}

		parentID := graph.NoNode
		switch {
		case id == 0 && (parent.Valid || k != graph.KindDirectory):
			return nil, errors.Wrap(ErrCorruptExport, "node 0 is not a parentless directory")
		case id > 0 && !parent.Valid:
			return nil, errors.Wrapf(ErrCorruptExport, "node %d has no parent", id)
		case id > 0:
			if parent.Int64 < 0 || parent.Int64 >= id {
				return nil, errors.Wrapf(ErrCorruptExport, "node %d has parent %d", id, parent.Int64)
			}
			parentID = graph.NodeID(parent.Int64)
			if s.Kind(parentID) != graph.KindDirectory {
				return nil, errors.Wrapf(ErrCorruptExport, "node %d has file %d as parent", id, parentID)
			}
		}

		nid := s.CreateNode(name, k, parentID)
		if k == graph.KindFile {
			if uint64(size) > s.Headroom() {
				return nil, errors.Wrapf(ErrCorruptExport, "file sizes overflow at node %d", id)
			}
			s.AddSize(nid, uint64(size))
		} else {
			dirs = append(dirs, storedDir{id: nid, size: uint64(size)})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate rows")
	}
	if s.Len() == 0 {
		return nil, errors.Wrap(ErrCorruptExport, "no nodes")
	}

	for _, d := range dirs {
		if got := s.Size(d.id); got != d.size {
			return nil, errors.Wrapf(ErrCorruptExport, "directory %s stored with size %d, files sum to %d",
				s.Path(d.id), d.size, got)
		}
	}
	return s, nil
}
