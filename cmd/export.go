package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/agentic-research/lsgraph/internal/ingest"
)

var exportCmd = &cobra.Command{
	Use:   "export [transcript] [output.db]",
	Short: "Build the tree from a transcript and write it to a SQLite database",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		source, output := args[0], args[1]
		if strings.HasSuffix(source, ".db") {
			return errors.Newf("export reads a transcript, got database %s", source)
		}

		start := time.Now()
		t, err := loadTree(cmd, source)
		if err != nil {
			return err
		}

		_ = os.Remove(output) // Overwrite
		fmt.Fprintf(cmd.OutOrStdout(), "Writing %d nodes to %s...\n", t.store.Len(), output)
		if err := ingest.ExportSQLite(t.store, output); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Done in %v.\n", time.Since(start))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
}
