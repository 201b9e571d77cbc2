package main

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/vango-dev/wayfinder/internal/errors"
	"github.com/vango-dev/wayfinder/pkg/routepath"
	"github.com/vango-dev/wayfinder/pkg/router"
)

func routesCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "routes",
		Short: "List routes in match priority order",
		Long: `List the route table ordered the way matching prefers it: highest
rank first, then more segments, then registration order. RANK is the
positional score in octal, one digit per segment (5 static, 4 dynamic,
3 root, 2 absent, 1 splat).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig(cmd.Context())
			if err != nil {
				return err
			}

			table := cfg.RouteTable(nil)
			redirects := make(map[string]string)
			for i, rc := range cfg.Routes {
				if rc.Redirect != "" {
					redirects[table[i].Path] = rc.Redirect
				}
			}

			routes, err := router.ValidateAndSort(table)
			if err != nil {
				return errors.New(errors.CodeConfigInvalid).Wrap(err)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "RANK\tPATTERN\tNAME\tREDIRECT")
			for _, route := range routes {
				rank := strconv.FormatInt(routepath.RankPattern(route.Path), 8)
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", rank, route.Path, route.Name, redirects[route.Path])
			}
			return w.Flush()
		},
	}
}
