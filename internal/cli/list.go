package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List every reference currently in the store",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	eng, err := openEngine()
	if err != nil {
		return err
	}

	it, err := eng.List()
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	for it.Next() {
		fmt.Fprintln(w, it.Reference().String())
	}

	return nil
}
