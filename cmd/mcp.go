package cmd

import (
	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/agentic-research/lsgraph/internal/mcpserve"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp [transcript|tree.db]",
	Short: "Expose tree queries as MCP tools over stdio",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if args[0] == "-" {
			return errors.New("mcp speaks over stdin; pass the transcript as a file")
		}
		t, err := loadTree(cmd, args[0])
		if err != nil {
			return err
		}
		return mcpserve.New(t.store, t.policy, Version).ServeStdio()
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
