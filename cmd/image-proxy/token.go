package main

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ironsheep/image-proxy/internal/spec"
)

func newTokenCmd() *cobra.Command {
	var (
		steps  string
		source string
		base   string
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Encode readable steps into a spec token",
		Long: `Encode a comma separated list of steps into the token used in
request paths. With --url, a complete request URL is printed as well.

Steps:
  resize:WxH[:nearest|triangle|catmullrom|gaussian|lanczos3]
  crop:x1:y1:x2:y2
  fliph
  flipv
  contrast:amount      (-1 to 1)
  filter:oceanic|islands|marine
  watermark:x:y

Examples:
  image-proxy token --steps resize:500x800:catmullrom,watermark:20:20,filter:marine
  image-proxy token --steps fliph --url https://example.com/cat.png`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := spec.ParseSteps(steps)
			if err != nil {
				return err
			}
			token, err := spec.Encode(s)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, token)
			if source != "" {
				fmt.Fprintln(out, requestURL(base, token, source))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&steps, "steps", "", "steps, e.g. resize:500x800:catmullrom,filter:marine")
	cmd.Flags().StringVar(&source, "url", "", "source image URL to build a request URL for")
	cmd.Flags().StringVar(&base, "base", "http://127.0.0.1:3000", "proxy base URL")
	return cmd
}

// requestURL builds the proxy URL serving source transformed by token.
func requestURL(base, token, source string) string {
	return strings.TrimRight(base, "/") + "/image/" + token + "/" + url.PathEscape(source)
}
