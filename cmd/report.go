package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentic-research/lsgraph/internal/graph"
	"github.com/agentic-research/lsgraph/internal/report"
)

var (
	reportDirs  bool
	reportTree  bool
	reportPlain bool
)

func init() {
	reportCmd.Flags().BoolVar(&reportDirs, "dirs", false, "List the directories counted by the small-directory sum")
	reportCmd.Flags().BoolVar(&reportTree, "tree", false, "Dump the whole tree before the report")
	reportCmd.Flags().BoolVar(&reportPlain, "plain", false, "Print only the two answers, one per line")
	rootCmd.AddCommand(reportCmd)
}

var reportCmd = &cobra.Command{
	Use:   "report [transcript|tree.db]",
	Short: "Print the small-directory total and the directory to delete",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := loadTree(cmd, args[0])
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()

		if reportTree {
			if err := t.store.Dump(out); err != nil {
				return err
			}
		}

		r, err := report.Compute(t.store, t.policy)
		if err != nil {
			return err
		}

		if reportPlain {
			fmt.Fprintf(out, "%d\n%d\n", r.SmallDirTotal, r.Candidate)
			return nil
		}
		r.Render(out)

		if reportDirs {
			ids := t.store.Directories(func(n graph.Node) bool { return n.Size <= t.policy.SmallDirCap })
			report.RenderDirectories(out, t.store, ids)
		}
		if t.stats.ShadowedDirs > 0 {
			fmt.Fprintf(cmd.ErrOrStderr(),
				"note: %d directories were entered without reusing their listed node (see --reuse-listed-dirs)\n",
				t.stats.ShadowedDirs)
		}
		return nil
	},
}
