package graph

import (
	"github.com/cockroachdb/errors"
	"github.com/ohler55/ojg"
	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"
)

// Document returns the subtree rooted at id as generic JSON data:
//
//	{"name": "a", "kind": "dir", "size": 94853, "path": "/a", "children": [...]}
//
// Files carry no "children" key.
func (s *Store) Document(id NodeID) map[string]any {
	s.check(id)
	// Children have larger IDs than their parent, so building back to
	// front means every child document exists before its parent's.
	docs := make([]map[string]any, len(s.nodes))
	for i := len(s.nodes) - 1; i >= int(id); i-- {
		n := &s.nodes[i]
		doc := map[string]any{
			"name": n.Name,
			"kind": n.Kind.String(),
			"size": int64(n.Size),
			"path": s.Path(NodeID(i)),
		}
		if n.Kind == KindDirectory {
			children := make([]any, 0, len(n.Children))
			for _, c := range n.Children {
				children = append(children, docs[c])
			}
			doc["children"] = children
		}
		docs[i] = doc
	}
	return docs[id]
}

// JSON renders the whole tree as indented JSON with sorted keys.
func (s *Store) JSON() string {
	return oj.JSON(s.Document(s.Root()), &ojg.Options{Indent: 2, Sort: true})
}

// Select evaluates a JSONPath expression against the tree document, e.g.
//
//	$..[?(@.kind == 'dir' && @.size <= 100000)].path
func (s *Store) Select(expr string) ([]any, error) {
	x, err := jp.ParseString(expr)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid jsonpath %q", expr)
	}
	return x.Get(s.Document(s.Root())), nil
}
