package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check [transcript|tree.db]",
	Short: "Verify that every directory size equals the sum of its files",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := loadTree(cmd, args[0])
		if err != nil {
			return err
		}
		if err := t.store.Verify(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "ok: %d nodes (%d dirs, %d files), %d bytes",
			t.store.Len(), t.stats.Directories, t.stats.Files, t.store.Size(t.store.Root()))
		if t.stats.ShadowedDirs > 0 {
			fmt.Fprintf(cmd.OutOrStdout(), ", %d shadowed dirs", t.stats.ShadowedDirs)
		}
		fmt.Fprintln(cmd.OutOrStdout())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
