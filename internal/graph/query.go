package graph

// Aggregate queries over a finished store. Directory sizes are already
// rolled up, so each query is a single pass over the directory index.

// SumSmallDirectories returns the total size of all directories whose
// size is at most limit. Nested directories are counted independently.
func (s *Store) SumSmallDirectories(limit uint64) uint64 {
	var total uint64
	s.eachDirectory(func(id NodeID) {
		if size := s.nodes[id].Size; size <= limit {
			total += size
		}
	})
	return total
}

// SmallestDirectoryAtLeast returns the smallest directory size that is
// at least floor, or false if no directory qualifies.
func (s *Store) SmallestDirectoryAtLeast(floor uint64) (uint64, bool) {
	id, ok := s.SmallestDirectoryNodeAtLeast(floor)
	if !ok {
		return 0, false
	}
	return s.nodes[id].Size, true
}

// SmallestDirectoryNodeAtLeast is SmallestDirectoryAtLeast returning the
// directory itself. Ties go to the earliest created directory.
func (s *Store) SmallestDirectoryNodeAtLeast(floor uint64) (NodeID, bool) {
	best := NoNode
	s.eachDirectory(func(id NodeID) {
		size := s.nodes[id].Size
		if size < floor {
			return
		}
		if best == NoNode || size < s.nodes[best].Size {
			best = id
		}
	})
	return best, best != NoNode
}

// Directories returns the directories accepted by keep, in creation order.
// A nil keep selects every directory.
func (s *Store) Directories(keep func(n Node) bool) []NodeID {
	var out []NodeID
	s.eachDirectory(func(id NodeID) {
		if keep == nil || keep(s.nodes[id]) {
			out = append(out, id)
		}
	})
	return out
}

func (s *Store) eachDirectory(fn func(NodeID)) {
	it := s.dirs.Iterator()
	for it.HasNext() {
		fn(NodeID(it.Next()))
	}
}
