package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/blobd/blobd/httpapi"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the blobd HTTP server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	eng, err := openEngine()
	if err != nil {
		return err
	}

	server := httpapi.New(eng, cfg.AuthToken, log, httpapi.WithAccessLog(os.Stderr))

	addr := fmt.Sprintf("%s:%d", cfg.BindHost, cfg.BindPort)
	log.WithField("addr", addr).Info("starting blobd")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return httpapi.ListenAndServe(ctx, addr, server)
}
