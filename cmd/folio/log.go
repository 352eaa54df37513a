package main

import (
	"github.com/spf13/cobra"

	"github.com/ersonp/folio/internal/domain/entities"
	"github.com/ersonp/folio/internal/domain/errs"
)

func newLogCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "log <action>",
		Short: "Show recent audit entries of one action across every kind",
		Long:  "Actions are revision.create, revision.update and revision.delete.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var entries []entities.AuditEntry
			err := withInternalDeps(cmd.Context(), func(d *internalDeps) error {
				switch args[0] {
				case entities.ActionCreate, entities.ActionUpdate, entities.ActionDelete:
				default:
					return errs.NewInvalidRequest("unknown action %q", args[0]).
						With("supported", []string{entities.ActionCreate, entities.ActionUpdate, entities.ActionDelete})
				}
				var err error
				entries, err = d.relationalDB.FindAuditLogByAction(cmd.Context(), args[0], limit)
				return err
			})
			return respond(cmd, entries, err)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", DefaultAuditLimit, "Maximum number of entries")

	return cmd
}
