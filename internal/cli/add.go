package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var addCmd = &cobra.Command{
	Use:   "add <file>...",
	Short: "Store one or more files and print their references",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAdd,
}

func init() {
	rootCmd.AddCommand(addCmd)
}

func runAdd(cmd *cobra.Command, args []string) error {
	eng, err := openEngine()
	if err != nil {
		return err
	}

	for _, path := range args {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("opening %s: %w", path, err)
		}

		ref, err := eng.Add(f, filepath.Base(path))
		f.Close()
		if err != nil {
			return fmt.Errorf("storing %s: %w", path, err)
		}

		fmt.Fprintln(cmd.OutOrStdout(), ref.String())
	}

	return nil
}
