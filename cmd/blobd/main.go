// Command blobd runs the content-addressable blob store server and its
// administrative CLI.
package main

import (
	"os"

	"github.com/blobd/blobd/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
