package main

import (
	"github.com/spf13/cobra"

	"github.com/ersonp/folio/internal/domain/entities"
)

func newKindsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "kinds",
		Short: "List the content kinds and their aliases",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return respond(cmd, entities.Kinds, nil)
		},
	}
}
