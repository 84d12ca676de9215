package transcript

import (
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLine(t *testing.T) {
	tests := []struct {
		line string
		want Event
	}{
		{"$ cd /", Navigate(RootTarget)},
		{"$ cd ..", Navigate(ParentTarget)},
		{"$ cd a", Navigate("a")},
		{"$ ls", List()},
		{"dir e", Dir("e")},
		{"dir my docs", Dir("my docs")},
		{"14848514 b.txt", File(14848514, "b.txt")},
		{"0 empty", File(0, "empty")},
		{"584 i\r", File(584, "i")},
		{"9223372036854775807 max", File(1<<63-1, "max")},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, err := ParseLine(tt.line)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseLine_Malformed(t *testing.T) {
	for _, line := range []string{
		"",
		"foo bar baz",
		"$ rm -rf /",
		"$ cd",
		"$ ls -la",
		"dir ",
		"-5 negative",
		"12ab name",
		"1234",
		"9223372036854775808 too-big",
		"18446744073709551616 wraps",
	} {
		t.Run(line, func(t *testing.T) {
			_, err := ParseLine(line)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformedLine), "err = %v", err)
		})
	}
}

func TestEventStringRoundTrip(t *testing.T) {
	for _, line := range []string{"$ cd /", "$ ls", "dir a", "62596 h.lst"} {
		ev, err := ParseLine(line)
		require.NoError(t, err)
		assert.Equal(t, line, ev.String())
	}
}

func TestParse(t *testing.T) {
	input := "$ cd /\n$ ls\n\ndir a\n14848514 b.txt\n"
	events, err := ParseString(input)
	require.NoError(t, err)
	assert.Equal(t, []Event{
		Navigate("/"),
		List(),
		Dir("a"),
		File(14848514, "b.txt"),
	}, events)
}

func TestParse_ReportsLineNumber(t *testing.T) {
	input := "$ cd /\n$ ls\nfoo bar baz\n"
	events, err := ParseString(input)
	require.Error(t, err)
	assert.Nil(t, events)
	assert.True(t, errors.Is(err, ErrMalformedLine))
	assert.Contains(t, err.Error(), "line 3")
	assert.Contains(t, err.Error(), `"foo bar baz"`)
}

func TestScanner_StopsAtFirstError(t *testing.T) {
	sc := NewScanner(strings.NewReader("$ cd /\nbogus\n$ ls\n"))

	require.True(t, sc.Scan())
	assert.Equal(t, Navigate("/"), sc.Event())
	assert.Equal(t, 1, sc.Line())

	assert.False(t, sc.Scan())
	assert.False(t, sc.Scan(), "scanner must stay stopped after an error")
	require.Error(t, sc.Err())
}

func TestIsEntry(t *testing.T) {
	assert.True(t, Dir("a").IsEntry())
	assert.True(t, File(1, "f").IsEntry())
	assert.False(t, List().IsEntry())
	assert.False(t, Navigate("a").IsEntry())
}
