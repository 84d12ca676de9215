package graph

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/cockroachdb/errors"
)

// ErrInconsistent is returned by Verify when the arena breaks a tree invariant.
var ErrInconsistent = errors.New("inconsistent tree")

// Verify recomputes every directory size from the files below it and checks
// the parent/child links. Parents always precede their children in the
// arena, so one reverse pass is enough.
func (s *Store) Verify() error {
	if len(s.nodes) == 0 {
		return errors.Wrap(ErrInconsistent, "empty store")
	}
	sums := make([]uint64, len(s.nodes))
	for i := len(s.nodes) - 1; i >= 0; i-- {
		id := NodeID(i)
		n := &s.nodes[i]

		switch {
		case i == 0 && n.Parent != NoNode:
			return errors.Wrapf(ErrInconsistent, "root has parent %d", n.Parent)
		case i > 0 && (n.Parent == NoNode || n.Parent >= id):
			return errors.Wrapf(ErrInconsistent, "node %d (%s) has parent %d", id, n.Name, n.Parent)
		}

		for _, c := range n.Children {
			if uint64(c) >= uint64(len(s.nodes)) || s.nodes[c].Parent != id {
				return errors.Wrapf(ErrInconsistent, "node %d lists child %d that does not point back", id, c)
			}
		}

		own := n.Size
		if n.Kind == KindDirectory {
			if n.Size != sums[i] {
				return errors.Wrapf(ErrInconsistent, "directory %s has size %d, files below sum to %d",
					s.Path(id), n.Size, sums[i])
			}
		} else if len(n.Children) > 0 {
			return errors.Wrapf(ErrInconsistent, "file %s has children", s.Path(id))
		}
		if n.Parent != NoNode {
			sums[n.Parent] += own
		}
	}
	return nil
}

// Dump writes the tree in listing order, one node per line, indented two
// spaces per level:
//
//	// s.Dump(os.Stdout)
//	- / (dir, size=48381165)
//	  - a (dir, size=94853)
//	    - f (file, size=29116)
func (s *Store) Dump(w io.Writer) error {
	if len(s.nodes) == 0 {
		return nil
	}
	bw := bufio.NewWriter(w)

	type frame struct {
		id    NodeID
		depth int
	}
	stack := []frame{{id: s.Root()}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		n := &s.nodes[f.id]
		fmt.Fprintf(bw, "%s- %s (%s, size=%d)\n", strings.Repeat("  ", f.depth), n.Name, n.Kind, n.Size)
		for i := len(n.Children) - 1; i >= 0; i-- {
			stack = append(stack, frame{id: n.Children[i], depth: f.depth + 1})
		}
	}
	return bw.Flush()
}
