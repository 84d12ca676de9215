// Package nfsmount serves a finished tree over NFSv3. It adapts
// graph.Store to billy.Filesystem for use with willscott/go-nfs.
package nfsmount

import (
	"os"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"
	billy "github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/helper/chroot"

	"github.com/agentic-research/lsgraph/internal/graph"
)

// TreeJSONName is the virtual file at the root holding the whole tree as JSON.
const TreeJSONName = "_tree.json"

var (
	errReadOnly = errors.New("read-only filesystem")
	errIsDir    = errors.New("is a directory")
	errNotDir   = errors.New("not a directory")
)

// TreeFS adapts a finished graph.Store to billy.Filesystem. Files have
// their reported sizes and read as zero bytes. When siblings share a name
// only the most recently created one is visible.
type TreeFS struct {
	store     *graph.Store
	treeJSON  []byte
	mountTime time.Time
}

// NewTreeFS creates a read-only billy.Filesystem over s. The store must not
// be mutated afterwards.
func NewTreeFS(s *graph.Store) *TreeFS {
	return &TreeFS{
		store:     s,
		treeJSON:  append([]byte(s.JSON()), '\n'),
		mountTime: time.Now(),
	}
}

// --- billy.Basic ---

func (fs *TreeFS) Create(filename string) (billy.File, error) {
	return nil, errReadOnly
}

func (fs *TreeFS) Open(filename string) (billy.File, error) {
	return fs.OpenFile(filename, os.O_RDONLY, 0)
}

func (fs *TreeFS) OpenFile(filename string, flag int, perm os.FileMode) (billy.File, error) {
	filename = cleanPath(filename)

	if flag&(os.O_WRONLY|os.O_RDWR|os.O_CREATE|os.O_TRUNC|os.O_APPEND) != 0 {
		return nil, errReadOnly
	}

	if filename == "/"+TreeJSONName {
		return &bytesFile{name: TreeJSONName, data: fs.treeJSON}, nil
	}

	id, ok := fs.store.Lookup(filename)
	if !ok {
		return nil, &os.PathError{Op: "open", Path: filename, Err: os.ErrNotExist}
	}
	if fs.store.Kind(id) == graph.KindDirectory {
		return nil, &os.PathError{Op: "open", Path: filename, Err: errIsDir}
	}
	return &sizedFile{name: filename, size: int64(fs.store.Size(id))}, nil
}

func (fs *TreeFS) Stat(filename string) (os.FileInfo, error) {
	return fs.Lstat(filename)
}

func (fs *TreeFS) Rename(oldpath, newpath string) error { return errReadOnly }
func (fs *TreeFS) Remove(filename string) error         { return errReadOnly }

func (fs *TreeFS) Join(elem ...string) string {
	return filepath.Join(elem...)
}

// --- billy.TempFile ---

func (fs *TreeFS) TempFile(dir, prefix string) (billy.File, error) {
	return nil, billy.ErrNotSupported
}

// --- billy.Dir ---

func (fs *TreeFS) ReadDir(path string) ([]os.FileInfo, error) {
	path = cleanPath(path)

	id, ok := fs.store.Lookup(path)
	if !ok {
		return nil, &os.PathError{Op: "readdir", Path: path, Err: os.ErrNotExist}
	}
	if fs.store.Kind(id) != graph.KindDirectory {
		return nil, &os.PathError{Op: "readdir", Path: path, Err: errNotDir}
	}

	children := fs.store.Children(id)
	infos := make([]os.FileInfo, 0, len(children)+1)
	seen := make(map[string]int, len(children))

	if id == fs.store.Root() {
		infos = append(infos, fs.treeJSONInfo())
		seen[TreeJSONName] = 0
	}

	for _, child := range children {
		name := graph.EscapeName(fs.store.Name(child))
		info := fs.nodeInfo(child)
		if i, dup := seen[name]; dup {
			// Later siblings shadow earlier ones, matching Lookup.
			if name != TreeJSONName || id != fs.store.Root() {
				infos[i] = info
			}
			continue
		}
		seen[name] = len(infos)
		infos = append(infos, info)
	}
	return infos, nil
}

func (fs *TreeFS) MkdirAll(filename string, perm os.FileMode) error {
	return errReadOnly
}

// --- billy.Symlink ---

func (fs *TreeFS) Lstat(filename string) (os.FileInfo, error) {
	filename = cleanPath(filename)

	if filename == "/" {
		return &staticFileInfo{
			name:    "/",
			size:    int64(fs.store.Size(fs.store.Root())),
			mode:    os.ModeDir | 0o555,
			modTime: fs.mountTime,
		}, nil
	}
	if filename == "/"+TreeJSONName {
		return fs.treeJSONInfo(), nil
	}

	id, ok := fs.store.Lookup(filename)
	if !ok {
		return nil, &os.PathError{Op: "lstat", Path: filename, Err: os.ErrNotExist}
	}
	return fs.nodeInfo(id), nil
}

func (fs *TreeFS) Symlink(target, link string) error {
	return billy.ErrNotSupported
}

func (fs *TreeFS) Readlink(link string) (string, error) {
	return "", billy.ErrNotSupported
}

// --- billy.Chroot ---

func (fs *TreeFS) Chroot(path string) (billy.Filesystem, error) {
	return chroot.New(fs, path), nil
}

func (fs *TreeFS) Root() string {
	return "/"
}

// --- billy.Capable ---

func (fs *TreeFS) Capabilities() billy.Capability {
	return billy.ReadCapability | billy.SeekCapability
}

// --- internals ---

func (fs *TreeFS) treeJSONInfo() os.FileInfo {
	return &staticFileInfo{
		name:    TreeJSONName,
		size:    int64(len(fs.treeJSON)),
		mode:    0o444,
		modTime: fs.mountTime,
	}
}

func (fs *TreeFS) nodeInfo(id graph.NodeID) os.FileInfo {
	mode := os.FileMode(0o444)
	if fs.store.Kind(id) == graph.KindDirectory {
		mode = os.ModeDir | 0o555
	}
	return &staticFileInfo{
		name:    graph.EscapeName(fs.store.Name(id)),
		size:    int64(fs.store.Size(id)),
		mode:    mode,
		modTime: fs.mountTime,
	}
}

// cleanPath normalizes a billy path to a clean absolute path.
func cleanPath(path string) string {
	path = filepath.Clean("/" + path)
	if path == "." {
		return "/"
	}
	return path
}

// staticFileInfo implements os.FileInfo with static values.
type staticFileInfo struct {
	name    string
	size    int64
	mode    os.FileMode
	modTime time.Time
}

func (fi *staticFileInfo) Name() string       { return fi.name }
func (fi *staticFileInfo) Size() int64        { return fi.size }
func (fi *staticFileInfo) Mode() os.FileMode  { return fi.mode }
func (fi *staticFileInfo) ModTime() time.Time { return fi.modTime }
func (fi *staticFileInfo) IsDir() bool        { return fi.mode.IsDir() }
func (fi *staticFileInfo) Sys() interface{}   { return nil }

var (
	_ billy.Filesystem = (*TreeFS)(nil)
	_ billy.Capable    = (*TreeFS)(nil)
	_ billy.File       = (*sizedFile)(nil)
	_ billy.File       = (*bytesFile)(nil)
)
