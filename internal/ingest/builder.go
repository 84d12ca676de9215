package ingest

import (
	"io"

	"github.com/agentic-research/lsgraph/internal/graph"
	"github.com/agentic-research/lsgraph/internal/transcript"
	"github.com/cockroachdb/errors"
)

// ErrMalformedTranscript is returned when the event sequence cannot describe
// a tree: it does not open with `$ cd /`, or lists entries before that.
var ErrMalformedTranscript = errors.New("malformed transcript")

// Options tunes how navigation events map onto nodes.
type Options struct {
	// ReuseListedDirs makes `$ cd name` enter the most recently listed
	// directory of that name under the current directory instead of
	// creating a fresh node. Off by default: every cd into a child creates
	// a new directory, so `dir a` followed by `$ cd a` leaves two siblings
	// named a (the listed one stays empty).
	ReuseListedDirs bool
}

// Stats counts what a builder did.
type Stats struct {
	Events       int
	Directories  int
	Files        int
	ShadowedDirs int // cd into a name already listed as a sibling directory
}

type builderState uint8

const (
	awaitingRoot builderState = iota
	building
	finished
)

// Builder drives a graph.Store from transcript events. It owns the current
// directory and the navigation stack; both are discarded by Finish.
type Builder struct {
	opts    Options
	store   *graph.Store
	state   builderState
	current graph.NodeID
	stack   []graph.NodeID
	stats   Stats
}

func NewBuilder(opts Options) *Builder {
	return &Builder{
		opts:    opts,
		store:   graph.NewStore(),
		current: graph.NoNode,
	}
}

// Apply consumes one event.
func (b *Builder) Apply(ev transcript.Event) error {
	switch b.state {
	case finished:
		return errors.AssertionFailedf("event %q applied after Finish", ev.String())
	case awaitingRoot:
		if ev.Kind != transcript.EventNavigate || ev.Target != transcript.RootTarget {
			return errors.Wrapf(ErrMalformedTranscript, "first event %q is not %q", ev.String(), "$ cd /")
		}
		b.current = b.store.CreateNode(transcript.RootTarget, graph.KindDirectory, graph.NoNode)
		b.state = building
		b.stats.Events++
		b.stats.Directories++
		return nil
	}

	b.stats.Events++
	switch ev.Kind {
	case transcript.EventNavigate:
		b.navigate(ev.Target)
	case transcript.EventList:
		// Entries that follow belong to current; nothing to record.
	case transcript.EventDir:
		b.store.CreateNode(ev.Name, graph.KindDirectory, b.current)
		b.stats.Directories++
	case transcript.EventFile:
		if ev.Size > b.store.Headroom() {
			return errors.Wrapf(ErrMalformedTranscript, "file %q of size %d overflows total size %d",
				ev.Name, ev.Size, b.store.Size(b.store.Root()))
		}
		id := b.store.CreateNode(ev.Name, graph.KindFile, b.current)
		b.store.AddSize(id, ev.Size)
		b.stats.Files++
	default:
		return errors.AssertionFailedf("unknown event kind %s", ev.Kind)
	}
	return nil
}

func (b *Builder) navigate(target string) {
	switch target {
	case transcript.ParentTarget:
		// The root has nowhere to go up to; stay there.
		if n := len(b.stack); n > 0 {
			b.current = b.stack[n-1]
			b.stack = b.stack[:n-1]
		} else {
			b.current = b.store.Root()
		}
	case transcript.RootTarget:
		b.current = b.store.Root()
		b.stack = b.stack[:0]
	default:
		if listed, ok := b.store.ChildByName(b.current, target); ok && b.store.Kind(listed) == graph.KindDirectory {
			if b.opts.ReuseListedDirs {
				b.stack = append(b.stack, b.current)
				b.current = listed
				return
			}
			b.stats.ShadowedDirs++
		}
		b.stack = append(b.stack, b.current)
		b.current = b.store.CreateNode(target, graph.KindDirectory, b.current)
		b.stats.Directories++
	}
}

// Finish ends construction and hands over the finished store. The builder
// cannot be used afterwards.
func (b *Builder) Finish() (*graph.Store, error) {
	switch b.state {
	case awaitingRoot:
		return nil, errors.Wrap(ErrMalformedTranscript, "no root navigation")
	case finished:
		return nil, errors.AssertionFailedf("Finish called twice")
	}
	b.state = finished
	s := b.store
	b.store, b.stack = nil, nil
	b.current = graph.NoNode
	return s, nil
}

// Stats returns the counters accumulated so far.
func (b *Builder) Stats() Stats { return b.stats }

// Build runs a fresh builder over events. No store is returned on error.
func Build(events []transcript.Event, opts Options) (*graph.Store, error) {
	b := NewBuilder(opts)
	for i, ev := range events {
		if err := b.Apply(ev); err != nil {
			return nil, errors.Wrapf(err, "event %d", i+1)
		}
	}
	return b.Finish()
}

// BuildFrom parses and builds in one streaming pass over r.
func BuildFrom(r io.Reader, opts Options) (*graph.Store, Stats, error) {
	b := NewBuilder(opts)
	sc := transcript.NewScanner(r)
	for sc.Scan() {
		if err := b.Apply(sc.Event()); err != nil {
			return nil, Stats{}, errors.Wrapf(err, "line %d", sc.Line())
		}
	}
	if err := sc.Err(); err != nil {
		return nil, Stats{}, err
	}
	s, err := b.Finish()
	if err != nil {
		return nil, Stats{}, err
	}
	return s, b.Stats(), nil
}
