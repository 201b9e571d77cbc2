package main

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/vango-dev/wayfinder/internal/errors"
	"github.com/vango-dev/wayfinder/pkg/routepath"
	"github.com/vango-dev/wayfinder/pkg/router"
)

func matchCmd(opts *rootOptions) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "match <pathname>",
		Short: "Show which route a pathname matches",
		Long: `Match a pathname against the route table and print the winning
pattern, its params and the matched URI.

Examples:
  wayfinder match /users/42
  wayfinder match --json /files/a/b.txt`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig(cmd.Context())
			if err != nil {
				return err
			}
			r, err := router.New(cfg.RouteTable(nil))
			if err != nil {
				return errors.New(errors.CodeInvalidPattern).Wrap(err)
			}

			pathname := args[0]
			if _, err := routepath.Canonicalize(pathname); err != nil {
				return errors.Newf(errors.CategoryRouting, "invalid pathname %q", pathname).Wrap(err)
			}

			m, ok := r.Match(cmd.Context(), pathname)
			if !ok {
				return errors.Newf(errors.CategoryRouting, "no route matches %s", pathname).
					WithSuggestion(fmt.Sprintf("Unmatched paths are reported as %q", cfg.NotFound))
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(map[string]any{
					"pattern": m.Route.Path,
					"name":    m.Route.Name,
					"params":  m.Params,
					"uri":     m.URI,
				})
			}

			fmt.Fprintf(out, "pattern  %s\n", m.Route.Path)
			if m.Route.Name != "" {
				fmt.Fprintf(out, "name     %s\n", m.Route.Name)
			}
			fmt.Fprintf(out, "uri      %s\n", m.URI)
			if len(m.Params) > 0 {
				fmt.Fprintf(out, "params   %s\n", formatParams(m.Params))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the match as JSON")
	return cmd
}

func formatParams(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + params[k]
	}
	return strings.Join(parts, " ")
}
