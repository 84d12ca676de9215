package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/agentic-research/lsgraph/api"
	"github.com/agentic-research/lsgraph/internal/graph"
	"github.com/agentic-research/lsgraph/internal/ingest"
)

// Version is reported by the MCP server and --version.
var Version = "dev"

var (
	policyPath      string
	reuseListedDirs bool
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&policyPath, "policy", "p", "", "Path to policy file (.hcl or .json)")
	rootCmd.PersistentFlags().BoolVar(&reuseListedDirs, "reuse-listed-dirs", false,
		"Descend into an already listed directory instead of creating a new one")
}

var rootCmd = &cobra.Command{
	Use:   "lsgraph",
	Short: "Rebuild a directory tree from a shell session transcript",
	Long: `lsgraph replays a transcript of "$ cd" and "$ ls" commands, rebuilds the
directory tree it describes, and answers size queries about it.

Inputs ending in .db are trees previously written by "lsgraph export".
An input of "-" reads the transcript from stdin.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadedTree is a finished store plus what is known about how it was built.
type loadedTree struct {
	store  *graph.Store
	stats  ingest.Stats
	policy api.Policy
}

// loadTree resolves the policy and builds or reloads the tree named by input.
func loadTree(cmd *cobra.Command, input string) (*loadedTree, error) {
	p, err := api.LoadPolicy(policyPath)
	if err != nil {
		return nil, err
	}

	if strings.HasSuffix(input, ".db") {
		s, err := ingest.LoadSQLite(input)
		if err != nil {
			return nil, err
		}
		dirs := s.NumDirectories()
		return &loadedTree{
			store:  s,
			stats:  ingest.Stats{Directories: dirs, Files: s.Len() - dirs},
			policy: p,
		}, nil
	}

	var r io.Reader
	if input == "-" {
		r = cmd.InOrStdin()
	} else {
		f, err := os.Open(input)
		if err != nil {
			return nil, errors.Wrap(err, "open transcript")
		}
		defer func() { _ = f.Close() }()
		r = f
	}

	s, stats, err := ingest.BuildFrom(r, ingest.Options{ReuseListedDirs: reuseListedDirs})
	if err != nil {
		return nil, errors.Wrapf(err, "%s", input)
	}
	return &loadedTree{store: s, stats: stats, policy: p}, nil
}
