// Package fs mounts a finished tree through FUSE using cgofuse. Every
// directory of the transcript becomes a read-only directory and every file
// a read-only file of its reported size whose contents read as zero bytes.
package fs

import (
	"sync"
	"time"

	"github.com/winfsp/cgofuse/fuse"

	"github.com/agentic-research/lsgraph/internal/graph"
)

// TreeFS implements the FUSE interface from cgofuse over a graph.Store.
type TreeFS struct {
	fuse.FileSystemBase
	store     *graph.Store
	mountTime fuse.Timespec

	mu      sync.Mutex
	handles map[uint64][]string
	nextFh  uint64
}

// NewTreeFS wraps s. The store must not be mutated afterwards.
func NewTreeFS(s *graph.Store) *TreeFS {
	return &TreeFS{
		store:     s,
		mountTime: fuse.NewTimespec(time.Now()),
		handles:   make(map[uint64][]string),
		nextFh:    1,
	}
}

// Open succeeds for files opened read-only.
func (fs *TreeFS) Open(path string, flags int) (int, uint64) {
	if flags&(fuse.O_WRONLY|fuse.O_RDWR) != 0 {
		return -fuse.EROFS, 0
	}
	id, ok := fs.store.Lookup(path)
	if !ok {
		return -fuse.ENOENT, 0
	}
	if fs.store.Kind(id) == graph.KindDirectory {
		return -fuse.EISDIR, 0
	}
	return 0, 0
}

// Getattr (Stat)
func (fs *TreeFS) Getattr(path string, stat *fuse.Stat_t, fh uint64) int {
	id, ok := fs.store.Lookup(path)
	if !ok {
		return -fuse.ENOENT
	}

	stat.Atim = fs.mountTime
	stat.Mtim = fs.mountTime
	stat.Ctim = fs.mountTime
	stat.Birthtim = fs.mountTime

	if fs.store.Kind(id) == graph.KindDirectory {
		stat.Mode = fuse.S_IFDIR | 0o555
		stat.Nlink = 2
		return 0
	}
	stat.Mode = fuse.S_IFREG | 0o444
	stat.Nlink = 1
	stat.Size = int64(fs.store.Size(id))
	return 0
}

// Opendir snapshots the entry list so that paged Readdir calls agree.
func (fs *TreeFS) Opendir(path string) (int, uint64) {
	entries, errc := fs.entries(path)
	if errc != 0 {
		return errc, ^uint64(0)
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()
	fh := fs.nextFh
	fs.nextFh++
	fs.handles[fh] = entries
	return 0, fh
}

// Readdir (List directory). Offsets are entry indices plus one, so a
// non-zero ofst resumes after the last entry the kernel accepted.
func (fs *TreeFS) Readdir(path string, fill func(name string, stat *fuse.Stat_t, ofst int64) bool, ofst int64, fh uint64) int {
	fs.mu.Lock()
	entries, ok := fs.handles[fh]
	fs.mu.Unlock()
	if !ok {
		var errc int
		if entries, errc = fs.entries(path); errc != 0 {
			return errc
		}
	}

	for i := ofst; i < int64(len(entries)); i++ {
		if !fill(entries[i], nil, i+1) {
			break
		}
	}
	return 0
}

func (fs *TreeFS) Releasedir(path string, fh uint64) int {
	fs.mu.Lock()
	delete(fs.handles, fh)
	fs.mu.Unlock()
	return 0
}

// Read (Cat file). Contents are zero bytes up to the reported size.
func (fs *TreeFS) Read(path string, buff []byte, ofst int64, fh uint64) int {
	id, ok := fs.store.Lookup(path)
	if !ok {
		return -fuse.ENOENT
	}
	if fs.store.Kind(id) == graph.KindDirectory {
		return -fuse.EISDIR
	}

	size := int64(fs.store.Size(id))
	if ofst < 0 || ofst >= size {
		return 0
	}
	n := int64(len(buff))
	if n > size-ofst {
		n = size - ofst
	}
	clear(buff[:n])
	return int(n)
}

// entries lists a directory as ".", ".." and its children's escaped names.
// When siblings share a name it appears once.
func (fs *TreeFS) entries(path string) ([]string, int) {
	id, ok := fs.store.Lookup(path)
	if !ok {
		return nil, -fuse.ENOENT
	}
	if fs.store.Kind(id) != graph.KindDirectory {
		return nil, -fuse.ENOTDIR
	}

	children := fs.store.Children(id)
	entries := make([]string, 0, len(children)+2)
	entries = append(entries, ".", "..")
	seen := make(map[string]bool, len(children))
	for _, child := range children {
		name := graph.EscapeName(fs.store.Name(child))
		if seen[name] {
			continue
		}
		seen[name] = true
		entries = append(entries, name)
	}
	return entries, 0
}
