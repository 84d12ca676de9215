package cmd

import (
	"fmt"

	"github.com/ohler55/ojg"
	"github.com/ohler55/ojg/oj"
	"github.com/spf13/cobra"
)

var selectCmd = &cobra.Command{
	Use:   "select [transcript|tree.db] [jsonpath]",
	Short: "Evaluate a JSONPath expression against the tree",
	Long: `Evaluate a JSONPath expression against the tree document. Every node
has name, kind ("dir" or "file"), size and path; directories also have
children. One result is printed per line.

Example:
  lsgraph select input.txt '$..[?(@.kind == "dir" && @.size <= 100000)].path'`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := loadTree(cmd, args[0])
		if err != nil {
			return err
		}
		results, err := t.store.Select(args[1])
		if err != nil {
			return err
		}
		for _, v := range results {
			fmt.Fprintln(cmd.OutOrStdout(), oj.JSON(v, &ojg.Options{Sort: true}))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(selectCmd)
}
