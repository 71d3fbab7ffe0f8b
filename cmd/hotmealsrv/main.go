// Command hotmealsrv is the hot-reload dev server: it watches an HTML
// source tree, diffs each changed file against what it last pushed, and
// broadcasts the resulting patches to every connected browser.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configPath string

func main() {
	root := &cobra.Command{
		Use:   "hotmealsrv",
		Short: "Serve HTML with live diff/patch hot-reload",
		RunE:  runServe,
	}
	root.Flags().StringVar(&configPath, "config", "hotmeal.yaml", "path to config file")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
