package ingest

import (
	"strings"
	"testing"

	"github.com/agentic-research/lsgraph/internal/graph"
	"github.com/agentic-research/lsgraph/internal/transcript"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleTranscript = `$ cd /
$ ls
dir a
14848514 b.txt
8504156 c.dat
dir d
$ cd a
$ ls
dir e
29116 f
2557 g
62596 h.lst
$ cd e
$ ls
584 i
$ cd ..
$ cd ..
$ cd d
$ ls
4060174 j
8033020 d.log
5626152 d.ext
7214296 k`

func buildSample(t *testing.T, opts Options) *graph.Store {
	t.Helper()
	s, _, err := BuildFrom(strings.NewReader(sampleTranscript), opts)
	require.NoError(t, err)
	return s
}

func TestBuild_Sample(t *testing.T) {
	events, err := transcript.ParseString(sampleTranscript)
	require.NoError(t, err)

	s, err := Build(events, Options{})
	require.NoError(t, err)
	require.NoError(t, s.Verify())

	assert.Equal(t, uint64(48381165), s.Size(s.Root()))
	assert.Equal(t, uint64(95437), s.SumSmallDirectories(100000))

	size, ok := s.SmallestDirectoryAtLeast(8381165)
	require.True(t, ok)
	assert.Equal(t, uint64(24933642), size)
}

func TestBuildFrom_Stats(t *testing.T) {
	_, stats, err := BuildFrom(strings.NewReader(sampleTranscript), Options{})
	require.NoError(t, err)
	assert.Equal(t, Stats{Events: 23, Directories: 7, Files: 10, ShadowedDirs: 3}, stats)

	_, stats, err = BuildFrom(strings.NewReader(sampleTranscript), Options{ReuseListedDirs: true})
	require.NoError(t, err)
	assert.Equal(t, Stats{Events: 23, Directories: 4, Files: 10}, stats)
}

func TestBuild_DirectorySizesMatchFiles(t *testing.T) {
	for _, opts := range []Options{{}, {ReuseListedDirs: true}} {
		s := buildSample(t, opts)
		for _, dir := range s.Directories(nil) {
			var want uint64
			stack := s.Children(dir)
			for len(stack) > 0 {
				id := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				if s.Kind(id) == graph.KindFile {
					want += s.Size(id)
				} else {
					stack = append(stack, s.Children(id)...)
				}
			}
			assert.Equal(t, want, s.Size(dir), "size of %s", s.Path(dir))
		}
	}
}

func TestBuild_AlwaysCreatesOnNavigate(t *testing.T) {
	s := buildSample(t, Options{})
	var names []string
	for _, c := range s.Children(s.Root()) {
		names = append(names, s.Name(c))
	}
	assert.Equal(t, []string{"a", "b.txt", "c.dat", "d", "a", "d"}, names)

	reuse := buildSample(t, Options{ReuseListedDirs: true})
	names = names[:0]
	for _, c := range reuse.Children(reuse.Root()) {
		names = append(names, reuse.Name(c))
	}
	assert.Equal(t, []string{"a", "b.txt", "c.dat", "d"}, names)
	assert.Equal(t, s.SumSmallDirectories(100000), reuse.SumSmallDirectories(100000))
}

func TestBuild_ReuseIgnoresSameNamedFile(t *testing.T) {
	s, err := Build([]transcript.Event{
		transcript.Navigate("/"),
		transcript.File(3, "x"),
		transcript.Navigate("x"),
		transcript.File(4, "y"),
	}, Options{ReuseListedDirs: true})
	require.NoError(t, err)

	x, ok := s.Lookup("/x")
	require.True(t, ok)
	assert.Equal(t, graph.KindDirectory, s.Kind(x))
	assert.Equal(t, uint64(4), s.Size(x))
	assert.Equal(t, uint64(7), s.Size(s.Root()))
}

func TestBuild_Errors(t *testing.T) {
	tests := []struct {
		name   string
		events []transcript.Event
	}{
		{"empty", nil},
		{"entry first", []transcript.Event{transcript.Dir("a")}},
		{"list first", []transcript.Event{transcript.List()}},
		{"cd into child first", []transcript.Event{transcript.Navigate("a")}},
		{"cd up first", []transcript.Event{transcript.Navigate("..")}},
		{"total size overflows", []transcript.Event{
			transcript.Navigate("/"), transcript.List(),
			transcript.File(graph.MaxSize, "a"), transcript.File(1, "b"),
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Build(tt.events, Options{})
			require.Error(t, err)
			assert.Nil(t, s)
			assert.True(t, errors.Is(err, ErrMalformedTranscript), "err = %v", err)
		})
	}
}

func TestBuildFrom_MalformedLineExposesNoTree(t *testing.T) {
	s, stats, err := BuildFrom(strings.NewReader("$ cd /\n$ ls\nfoo bar baz\n"), Options{})
	require.Error(t, err)
	assert.Nil(t, s)
	assert.Equal(t, Stats{}, stats)
	assert.True(t, errors.Is(err, transcript.ErrMalformedLine))
}

func TestBuildFrom_OversizedFile(t *testing.T) {
	// Two files of 2^63 would wrap the root size to 0.
	in := "$ cd /\n$ ls\n9223372036854775808 a\n9223372036854775808 b\n"
	s, _, err := BuildFrom(strings.NewReader(in), Options{})
	require.Error(t, err)
	assert.Nil(t, s)
	assert.True(t, errors.Is(err, transcript.ErrMalformedLine), "err = %v", err)
	assert.Contains(t, err.Error(), "line 3")

	// Two files that each fit but together exceed the limit.
	in = "$ cd /\n$ ls\n9223372036854775807 a\n1 b\n"
	s, _, err = BuildFrom(strings.NewReader(in), Options{})
	require.Error(t, err)
	assert.Nil(t, s)
	assert.True(t, errors.Is(err, ErrMalformedTranscript), "err = %v", err)
	assert.Contains(t, err.Error(), "line 4")
}

func TestBuilder_FinishIsTerminal(t *testing.T) {
	b := NewBuilder(Options{})
	require.NoError(t, b.Apply(transcript.Navigate("/")))
	require.NoError(t, b.Apply(transcript.List()))

	s, err := b.Finish()
	require.NoError(t, err)
	assert.Equal(t, 1, s.Len())
	assert.Equal(t, uint64(0), s.Size(s.Root()))

	assert.Error(t, b.Apply(transcript.List()))
	_, err = b.Finish()
	assert.Error(t, err)
}
