package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "image-proxy",
		Short: "On-the-fly image transformation proxy",
		Long: `image-proxy fetches a source image, applies an encoded list of
transform steps and returns the result.

Requests look like:
  GET /image/<token>/<percent-encoded source url>

Use "image-proxy token" to build a token from readable steps.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().String("config", "", "path to a TOML config file (default ./image-proxy.toml if present)")

	root.AddCommand(
		newServeCmd(),
		newTokenCmd(),
		newInspectCmd(),
		newRenderCmd(),
		newVersionCmd(),
	)
	return root
}
