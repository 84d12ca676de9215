package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

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
7214296 k
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// run executes the CLI with args and returns stdout and stderr.
func run(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	policyPath, reuseListedDirs = "", false
	reportDirs, reportTree, reportPlain = false, false, false

	var stdout, stderr bytes.Buffer
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestReportPlain(t *testing.T) {
	input := writeFile(t, "input.txt", sampleTranscript)

	out, _, err := run(t, "", "report", "--plain", input)
	require.NoError(t, err)
	assert.Equal(t, "95437\n24933642\n", out)
}

func TestReportStdin(t *testing.T) {
	out, stderr, err := run(t, sampleTranscript, "report", "--plain", "-")
	require.NoError(t, err)
	assert.Equal(t, "95437\n24933642\n", out)
	assert.Empty(t, stderr)
}

func TestReportTable(t *testing.T) {
	input := writeFile(t, "input.txt", sampleTranscript)

	out, stderr, err := run(t, "", "report", "--dirs", "--tree", input)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "- / (dir, size=48381165)\n"), out)
	assert.Contains(t, out, "/d (24933642)")
	assert.Contains(t, out, "/a/e")
	assert.Contains(t, stderr, "3 directories")
}

func TestReportReuseListedDirs(t *testing.T) {
	input := writeFile(t, "input.txt", sampleTranscript)

	out, stderr, err := run(t, "", "report", "--reuse-listed-dirs", "--plain", input)
	require.NoError(t, err)
	assert.Equal(t, "95437\n24933642\n", out)
	assert.Empty(t, stderr)
}

func TestReportPolicy(t *testing.T) {
	input := writeFile(t, "input.txt", sampleTranscript)
	policy := writeFile(t, "policy.hcl", "small_dir_cap = 1000\n")

	out, _, err := run(t, "", "report", "--plain", "--policy", policy, input)
	require.NoError(t, err)
	assert.Equal(t, "584\n24933642\n", out)
}

func TestReportMalformed(t *testing.T) {
	input := writeFile(t, "bad.txt", "$ cd /\n$ ls\nfoo bar baz\n")

	_, _, err := run(t, "", "report", input)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 3")
	assert.Contains(t, err.Error(), "malformed transcript line")
}

func TestReportMissingRoot(t *testing.T) {
	_, _, err := run(t, "$ ls\n", "report", "-")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed transcript")
}

func TestExportThenReload(t *testing.T) {
	input := writeFile(t, "input.txt", sampleTranscript)
	db := filepath.Join(t.TempDir(), "tree.db")

	out, _, err := run(t, "", "export", input, db)
	require.NoError(t, err)
	assert.Contains(t, out, "Writing 17 nodes")

	out, _, err = run(t, "", "report", "--plain", db)
	require.NoError(t, err)
	assert.Equal(t, "95437\n24933642\n", out)

	out, _, err = run(t, "", "check", db)
	require.NoError(t, err)
	assert.Equal(t, "ok: 17 nodes (7 dirs, 10 files), 48381165 bytes\n", out)

	_, _, err = run(t, "", "export", db, filepath.Join(t.TempDir(), "again.db"))
	assert.Error(t, err)
}

func TestCheck(t *testing.T) {
	input := writeFile(t, "input.txt", sampleTranscript)

	out, _, err := run(t, "", "check", input)
	require.NoError(t, err)
	assert.Equal(t, "ok: 17 nodes (7 dirs, 10 files), 48381165 bytes, 3 shadowed dirs\n", out)
}

func TestSelect(t *testing.T) {
	input := writeFile(t, "input.txt", sampleTranscript)

	out, _, err := run(t, "", "select", input, "$.children[?(@.size > 20000000)].path")
	require.NoError(t, err)
	assert.Equal(t, "\"/d\"\n", out)

	_, _, err = run(t, "", "select", input, "$[?(")
	assert.Error(t, err)
}

func TestMCPRejectsStdin(t *testing.T) {
	_, _, err := run(t, sampleTranscript, "mcp", "-")
	assert.Error(t, err)
}

func TestMountRejectsBadInput(t *testing.T) {
	_, _, err := run(t, "", "mount", writeFile(t, "input.txt", sampleTranscript))
	assert.Error(t, err)

	bad := writeFile(t, "bad.txt", "$ cd /\n$ ls\nfoo bar baz\n")
	_, _, err = run(t, "", "mount", bad, t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 3")
}
