// Package cli implements blobd's command-line interface: a long-running
// server command plus a small set of administrative client commands that
// talk to the store directly (not over HTTP), grounded on mfinelli-modctl's
// cmd/root.go viper/cobra wiring and meigma-blobber's cmd/blobber/cli
// command-tree shape.
package cli

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/blobd/blobd/config"
	"github.com/blobd/blobd/engine"
	"github.com/blobd/blobd/storage"
)

var (
	cfgFile string
	cfg     *config.Config
	log     = logrus.StandardLogger()
)

var rootCmd = &cobra.Command{
	Use:           "blobd",
	Short:         "Content-addressable blob store",
	Long:          "blobd stores and serves content-addressable blobs over HTTP, keyed by their SHA-256 digest.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadConfig(cmd)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path (default is the XDG config location)")
	config.BindFlags(rootCmd.PersistentFlags())
}

// Execute runs the root command. Called once by cmd/blobd/main.go.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

func loadConfig(cmd *cobra.Command) error {
	v := viper.New()
	if err := config.BindToViper(v, cmd.Flags()); err != nil {
		return err
	}

	file := cfgFile
	if file == "" {
		var err error
		file, err = config.FilePath()
		if err != nil {
			return fmt.Errorf("resolving config file path: %w", err)
		}
	}

	resolved, err := config.Load(v, file, log)
	if err != nil {
		return err
	}
	cfg = resolved

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}
	log.SetLevel(level)

	return nil
}

// openEngine wires an Engine rooted at the resolved store, for the
// administrative commands that operate on the store directly rather than
// through the HTTP API.
func openEngine() (*engine.Engine, error) {
	layout, err := storage.New(cfg.StoreRoot)
	if err != nil {
		return nil, fmt.Errorf("opening store at %s: %w", cfg.StoreRoot, err)
	}
	return engine.New(layout, log), nil
}
