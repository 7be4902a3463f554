package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/blobd/blobd/apierror"
	"github.com/blobd/blobd/reference"
)

var getVerify bool

var getCmd = &cobra.Command{
	Use:   "get <reference>",
	Short: "Write a stored blob's content to stdout",
	Args:  cobra.ExactArgs(1),
	RunE:  runGet,
}

func init() {
	getCmd.Flags().BoolVar(&getVerify, "verify", false, "re-hash the content while reading and fail if it no longer matches its reference")
	rootCmd.AddCommand(getCmd)
}

func runGet(cmd *cobra.Command, args []string) error {
	ref, err := reference.FromHex(args[0])
	if err != nil {
		return err
	}

	eng, err := openEngine()
	if err != nil {
		return err
	}

	blob, err := eng.Get(ref, getVerify)
	if err != nil {
		if err == apierror.ErrNotFound {
			return fmt.Errorf("no blob stored for %s", ref)
		}
		return err
	}
	defer blob.Close()

	if _, err := io.Copy(cmd.OutOrStdout(), blob); err != nil {
		if err == apierror.ErrCorrupted {
			return fmt.Errorf("%s: stored content does not match its reference", ref)
		}
		return err
	}

	return nil
}

var headCmd = &cobra.Command{
	Use:   "head <reference>",
	Short: "Print a stored blob's metadata without its content",
	Args:  cobra.ExactArgs(1),
	RunE:  runHead,
}

func init() {
	rootCmd.AddCommand(headCmd)
}

func runHead(cmd *cobra.Command, args []string) error {
	ref, err := reference.FromHex(args[0])
	if err != nil {
		return err
	}

	eng, err := openEngine()
	if err != nil {
		return err
	}

	meta, err := eng.Head(ref)
	if err != nil {
		if err == apierror.ErrNotFound {
			return fmt.Errorf("no blob stored for %s", ref)
		}
		return err
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "filename: %s\n", meta.Filename)
	fmt.Fprintf(w, "content-type: %s\n", meta.MIMEType)
	fmt.Fprintf(w, "size: %d\n", meta.Size)
	fmt.Fprintf(w, "created: %s\n", meta.Created.Format(time.RFC3339Nano))
	return nil
}
