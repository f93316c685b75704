package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ironsheep/image-proxy/internal/spec"
)

func newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <token>",
		Short: "Decode a spec token and list its steps",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := spec.Decode(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(s) == 0 {
				fmt.Fprintln(out, "(no steps)")
				return nil
			}
			for i, st := range s {
				fmt.Fprintf(out, "%2d. %s\n", i+1, st)
			}
			return nil
		},
	}
}
