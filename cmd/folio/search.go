package main

import (
	"strings"

	"github.com/spf13/cobra"
)

func newSearchCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search wiki pages and blog posts by meaning",
		Long:  "Requires search.enabled in the config. Hits carry the revision they were indexed from.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHandlerDeps(cmd, func(d *Deps) (any, error) {
				n := limit
				if !cmd.Flags().Changed("limit") && d.Config.Search.Limit > 0 {
					n = d.Config.Search.Limit
				}
				return d.Search.Handle(cmd.Context(), strings.Join(args, " "), n)
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", DefaultSearchLimit, "Maximum number of hits")

	return cmd
}
