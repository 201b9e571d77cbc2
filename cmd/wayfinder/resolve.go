package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/vango-dev/wayfinder/pkg/routepath"
)

func resolveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <to> <base>",
		Short: "Resolve a link target against a base URI",
		Long: `Resolve a relative or absolute link target against a base URI the
way links and redirects do.

Examples:
  wayfinder resolve ../settings /users/7/edit   # /users/7/settings
  wayfinder resolve /about /anything            # /about`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), routepath.Resolve(args[0], args[1]))
			return nil
		},
	}
}
