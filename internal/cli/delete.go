package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blobd/blobd/apierror"
	"github.com/blobd/blobd/reference"
)

var deleteCmd = &cobra.Command{
	Use:   "delete <reference>",
	Short: "Remove a stored blob",
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}

func runDelete(cmd *cobra.Command, args []string) error {
	ref, err := reference.FromHex(args[0])
	if err != nil {
		return err
	}

	eng, err := openEngine()
	if err != nil {
		return err
	}

	if err := eng.Delete(ref); err != nil {
		if err == apierror.ErrNotFound {
			return fmt.Errorf("no blob stored for %s", ref)
		}
		return err
	}

	return nil
}
