package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ironsheep/image-proxy/internal/imaging"
	"github.com/ironsheep/image-proxy/internal/spec"
)

func newRenderCmd() *cobra.Command {
	var (
		steps   string
		token   string
		in      string
		out     string
		format  string
		quality int
	)

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Apply steps to a local image file",
		Long: `Apply steps to a local file with the same engine the proxy uses.
Useful for previewing a token without running the server.

Examples:
  image-proxy render --in cat.png --out cat.jpg --steps resize:200x200,filter:oceanic
  image-proxy render --in cat.png --out cat.png --token "$(image-proxy token --steps fliph)"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := resolveSteps(steps, token)
			if err != nil {
				return err
			}

			if format == "" {
				format = strings.TrimPrefix(filepath.Ext(out), ".")
			}
			f := imaging.JPEG
			if format != "" {
				if f, err = imaging.ParseFormat(format); err != nil {
					return err
				}
			}

			data, err := os.ReadFile(in)
			if err != nil {
				return fmt.Errorf("failed to read input: %w", err)
			}
			img, err := imaging.NewNativeEngine().Load(data)
			if err != nil {
				return fmt.Errorf("failed to load %s: %w", in, err)
			}
			if err := img.Apply(s...); err != nil {
				return err
			}
			w, h := img.Size()
			encoded, err := img.Encode(f, imaging.EncodeOptions{Quality: quality})
			if err != nil {
				return err
			}
			if err := os.WriteFile(out, encoded, 0o644); err != nil {
				return fmt.Errorf("failed to write output: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s: %dx%d %s, %d bytes\n", out, w, h, f, len(encoded))
			return nil
		},
	}

	cmd.Flags().StringVar(&steps, "steps", "", "readable steps")
	cmd.Flags().StringVar(&token, "token", "", "encoded spec token")
	cmd.Flags().StringVar(&in, "in", "", "input image file")
	cmd.Flags().StringVar(&out, "out", "", "output image file")
	cmd.Flags().StringVar(&format, "format", "", "output format (default from --out extension, else jpeg)")
	cmd.Flags().IntVar(&quality, "quality", imaging.DefaultQuality, "JPEG quality 1-100")
	_ = cmd.MarkFlagRequired("in")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}

func resolveSteps(steps, token string) (spec.Spec, error) {
	switch {
	case steps != "" && token != "":
		return nil, errors.New("use either --steps or --token, not both")
	case token != "":
		return spec.Decode(token)
	default:
		return spec.ParseSteps(steps)
	}
}
