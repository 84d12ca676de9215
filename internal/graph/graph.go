package graph

import (
	"fmt"
	"math"
	"math/bits"
	"net/url"
	"slices"
	"strings"

	"github.com/RoaringBitmap/roaring"
	"github.com/cockroachdb/errors"
)

// MaxSize is the largest size a node may reach. Sizes are exported as
// signed 64-bit integers.
const MaxSize = math.MaxInt64

// NodeID addresses a node in a Store. IDs are dense, start at 0 for the
// root and never change once assigned.
type NodeID uint32

// NoNode is the parent of the root.
const NoNode = ^NodeID(0)

// Kind declares whether a node is a directory or a file.
type Kind uint8

const (
	KindDirectory Kind = iota
	KindFile
)

func (k Kind) String() string {
	switch k {
	case KindDirectory:
		return "dir"
	case KindFile:
		return "file"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Node is the universal primitive.
// For a file, Size is the reported size. For a directory it is the sum of
// every file below it, maintained by AddSize as files are recorded.
type Node struct {
	Name     string
	Kind     Kind
	Size     uint64
	Parent   NodeID   // NoNode for the root
	Children []NodeID // listing order
}

// Store is an append-only arena of nodes. Relationships are NodeIDs into
// the arena; nodes are never moved or freed.
//
// A Store is not safe for concurrent mutation. Once the builder hands it
// out it is treated as immutable and may be read from any goroutine.
type Store struct {
	nodes []Node

	// Directory IDs, so aggregate scans skip files.
	dirs *roaring.Bitmap
}

func NewStore() *Store {
	return &Store{dirs: roaring.New()}
}

// CreateNode appends a node and links it under parent.
// The first node must be a directory with parent NoNode; every later node
// must name an existing directory as its parent.
func (s *Store) CreateNode(name string, kind Kind, parent NodeID) NodeID {
	id := NodeID(len(s.nodes))
	if id == NoNode {
		panic(errors.AssertionFailedf("node arena full"))
	}
	if len(s.nodes) == 0 {
		if parent != NoNode || kind != KindDirectory {
			panic(errors.AssertionFailedf("first node must be a parentless directory, got %s with parent %d", kind, parent))
		}
	} else {
		if parent == NoNode {
			panic(errors.AssertionFailedf("store already has a root; %q needs a parent", name))
		}
		p := s.node(parent)
		if p.Kind != KindDirectory {
			panic(errors.AssertionFailedf("parent %d of %q is a %s", parent, name, p.Kind))
		}
		p.Children = append(p.Children, id)
	}

	s.nodes = append(s.nodes, Node{
		Name:   name,
		Kind:   kind,
		Parent: parent,
	})
	if kind == KindDirectory {
		s.dirs.Add(uint32(id))
	}
	return id
}

// AddSize adds delta to id and to every ancestor of id up to the root.
// Callers must ensure the root stays within MaxSize; see Headroom.
func (s *Store) AddSize(id NodeID, delta uint64) {
	s.check(id)
	if root := s.nodes[0].Size; delta > MaxSize || root+delta > MaxSize {
		panic(errors.AssertionFailedf("adding %d to root size %d exceeds %d", delta, root, uint64(MaxSize)))
	}
	for cur := id; cur != NoNode; cur = s.nodes[cur].Parent {
		sum, carry := bits.Add64(s.nodes[cur].Size, delta, 0)
		if carry != 0 {
			panic(errors.AssertionFailedf("size of node %d overflows", cur))
		}
		s.nodes[cur].Size = sum
	}
}

// Headroom returns how many bytes can still be added anywhere in the tree.
// Every directory size is bounded by the root's.
func (s *Store) Headroom() uint64 {
	if len(s.nodes) == 0 {
		return MaxSize
	}
	return MaxSize - s.nodes[0].Size
}

// Root returns the first node created.
func (s *Store) Root() NodeID {
	if len(s.nodes) == 0 {
		panic(errors.AssertionFailedf("empty store has no root"))
	}
	return 0
}

// Len returns the number of nodes.
func (s *Store) Len() int { return len(s.nodes) }

// NumDirectories returns how many nodes are directories.
func (s *Store) NumDirectories() int { return int(s.dirs.GetCardinality()) }

func (s *Store) Name(id NodeID) string { return s.node(id).Name }
func (s *Store) Kind(id NodeID) Kind   { return s.node(id).Kind }
func (s *Store) Size(id NodeID) uint64 { return s.node(id).Size }

// Parent returns the parent of id, or false for the root.
func (s *Store) Parent(id NodeID) (NodeID, bool) {
	p := s.node(id).Parent
	return p, p != NoNode
}

// Children returns a copy of id's children in listing order.
func (s *Store) Children(id NodeID) []NodeID {
	return slices.Clone(s.node(id).Children)
}

// Node returns a copy of the node record.
func (s *Store) Node(id NodeID) Node {
	n := *s.node(id)
	n.Children = slices.Clone(n.Children)
	return n
}

// Path returns the slash-separated path of id. The root is "/". Each
// segment is escaped with EscapeName, so Lookup(Path(id)) == id whenever id
// is the last sibling with its name.
func (s *Store) Path(id NodeID) string {
	s.check(id)
	var parts []string
	for cur := id; s.nodes[cur].Parent != NoNode; cur = s.nodes[cur].Parent {
		parts = append(parts, EscapeName(s.nodes[cur].Name))
	}
	slices.Reverse(parts)
	return "/" + strings.Join(parts, "/")
}

// Lookup resolves a path produced by Path. Empty and "." segments are
// skipped; ".." never matches. When several siblings share a name the most
// recently created one wins.
func (s *Store) Lookup(path string) (NodeID, bool) {
	if len(s.nodes) == 0 {
		return NoNode, false
	}
	cur := s.Root()
	for _, part := range strings.Split(path, "/") {
		switch part {
		case "", ".":
			continue
		case "..":
			return NoNode, false
		}
		name, err := url.PathUnescape(part)
		if err != nil {
			return NoNode, false
		}
		next, ok := s.ChildByName(cur, name)
		if !ok {
			return NoNode, false
		}
		cur = next
	}
	return cur, true
}

var nameEscaper = strings.NewReplacer("%", "%25", "/", "%2F")

// EscapeName makes a node name usable as a single path segment. "%" and "/"
// are percent-encoded, as are the dots of "." and "..". Any other name is
// returned unchanged.
func EscapeName(name string) string {
	switch name {
	case ".":
		return "%2E"
	case "..":
		return "%2E%2E"
	}
	return nameEscaper.Replace(name)
}

// ChildByName returns the last child of dir called name.
func (s *Store) ChildByName(dir NodeID, name string) (NodeID, bool) {
	children := s.node(dir).Children
	for i := len(children) - 1; i >= 0; i-- {
		if s.nodes[children[i]].Name == name {
			return children[i], true
		}
	}
	return NoNode, false
}

func (s *Store) node(id NodeID) *Node {
	s.check(id)
	return &s.nodes[id]
}

func (s *Store) check(id NodeID) {
	if uint64(id) >= uint64(len(s.nodes)) {
		panic(errors.AssertionFailedf("node %d not in store of %d nodes", id, len(s.nodes)))
	}
}
