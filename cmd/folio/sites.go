package main

import (
	"github.com/spf13/cobra"

	"github.com/ersonp/folio/internal/application/handlers"
	"github.com/ersonp/folio/internal/domain/entities"
)

// withSiteHandler runs fn against the site handler of the workspace and
// prints its result.
func withSiteHandler(cmd *cobra.Command, fn func(*handlers.SiteHandler) (any, error)) error {
	var data any
	err := withWorkspace(func(ws *workspace) error {
		h, err := newSiteHandler(ws)
		if err != nil {
			return err
		}
		data, err = fn(h)
		return err
	})
	return respond(cmd, data, err)
}

func newSitesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sites",
		Short: "Manage sites",
		RunE:  runSitesList,
	}

	cmd.AddCommand(
		newSitesListCmd(),
		newSitesCreateCmd(),
		newSitesDeleteCmd(),
	)

	return cmd
}

func newSitesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all sites",
		Args:  cobra.NoArgs,
		RunE:  runSitesList,
	}
}

func runSitesList(cmd *cobra.Command, args []string) error {
	return withSiteHandler(cmd, func(h *handlers.SiteHandler) (any, error) {
		return h.List()
	})
}

func newSitesCreateCmd() *cobra.Command {
	var description string

	cmd := &cobra.Command{
		Use:   "create NAME",
		Short: "Create a new site",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSiteHandler(cmd, func(h *handlers.SiteHandler) (any, error) {
				return h.Create(cmd.Context(), args[0], description)
			})
		},
	}

	cmd.Flags().StringVarP(&description, "description", "d", "", "Site description")

	return cmd
}

func newSitesDeleteCmd() *cobra.Command {
	var (
		actor string
		admin bool
	)

	cmd := &cobra.Command{
		Use:   "delete NAME",
		Short: "Delete a site with all its content (requires --admin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSiteHandler(cmd, func(h *handlers.SiteHandler) (any, error) {
				return h.Delete(cmd.Context(), args[0], entities.Actor{ID: actor, Admin: admin})
			})
		},
	}

	cmd.Flags().StringVar(&actor, "actor", "", "User deleting the site")
	cmd.Flags().BoolVar(&admin, "admin", false, "Act with admin rights")

	return cmd
}
