// Package report computes the disk-cleanup answers for a finished tree.
package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/agentic-research/lsgraph/api"
	"github.com/agentic-research/lsgraph/internal/graph"
	"github.com/cockroachdb/errors"
	"github.com/olekukonko/tablewriter"
)

// ErrNoEligibleDirectory is returned when no directory is large enough to
// free the required space on its own.
var ErrNoEligibleDirectory = errors.New("no directory is large enough")

// Report holds both answers along with the inputs they were derived from.
type Report struct {
	RootSize      uint64
	SmallDirCap   uint64
	SmallDirTotal uint64
	// Unused is capacity minus root size. Negative when the transcript
	// describes more data than the disk holds.
	Unused        int64
	Floor         uint64
	Candidate     uint64
	CandidatePath string
}

// FreeSpaceFloor is the minimum size a deleted directory must have so that
// the disk ends up with p.RequiredFree bytes available. It is zero when
// enough space is already free.
func FreeSpaceFloor(rootSize uint64, p api.Policy) uint64 {
	var unused uint64
	if p.DiskCapacity > rootSize {
		unused = p.DiskCapacity - rootSize
	}
	if unused >= p.RequiredFree {
		return 0
	}
	return p.RequiredFree - unused
}

// Compute evaluates p against s.
func Compute(s *graph.Store, p api.Policy) (Report, error) {
	root := s.Root()
	r := Report{
		RootSize:      s.Size(root),
		SmallDirCap:   p.SmallDirCap,
		SmallDirTotal: s.SumSmallDirectories(p.SmallDirCap),
		Unused:        int64(p.DiskCapacity) - int64(s.Size(root)),
	}
	r.Floor = FreeSpaceFloor(r.RootSize, p)

	id, ok := s.SmallestDirectoryNodeAtLeast(r.Floor)
	if !ok {
		return r, errors.Wrapf(ErrNoEligibleDirectory, "need at least %d bytes, root holds %d", r.Floor, r.RootSize)
	}
	r.Candidate = s.Size(id)
	r.CandidatePath = s.Path(id)
	return r, nil
}

// Render writes r as a two-column table.
func (r Report) Render(w io.Writer) {
	tbl := tablewriter.NewWriter(w)
	tbl.SetHeader([]string{"Metric", "Value"})
	tbl.Append([]string{"root size", u(r.RootSize)})
	tbl.Append([]string{fmt.Sprintf("dirs <= %d", r.SmallDirCap), u(r.SmallDirTotal)})
	tbl.Append([]string{"unused", strconv.FormatInt(r.Unused, 10)})
	tbl.Append([]string{"need to free", u(r.Floor)})
	tbl.Append([]string{"delete", fmt.Sprintf("%s (%d)", r.CandidatePath, r.Candidate)})
	tbl.Render()
}

// RenderDirectories writes a path/size table for ids.
func RenderDirectories(w io.Writer, s *graph.Store, ids []graph.NodeID) {
	tbl := tablewriter.NewWriter(w)
	tbl.SetHeader([]string{"Path", "Size"})
	for _, id := range ids {
		tbl.Append([]string{s.Path(id), u(s.Size(id))})
	}
	tbl.Render()
}

func u(v uint64) string { return strconv.FormatUint(v, 10) }
