package main

import (
	"github.com/spf13/cobra"

	"github.com/ersonp/folio/internal/application/handlers"
	"github.com/ersonp/folio/internal/domain/errs"
	"github.com/ersonp/folio/internal/domain/services"
)

type importFlags struct {
	format     string
	dryRun     bool
	onConflict string
	commit     commitFlags
}

func newImportCmd() *cobra.Command {
	var flags importFlags

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import citations from CSL-JSON, JSON or CSV",
		Long:  "Imports citations keyed by their citation key. Every record is validated before anything is written.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHandlerDeps(cmd, func(d *Deps) (any, error) {
				return runImport(cmd, d.Imports, args[0], flags)
			})
		},
	}

	cmd.Flags().StringVar(&flags.format, "format", "auto", "File format (json, csl, csv, auto)")
	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "Validate without saving")
	cmd.Flags().StringVar(&flags.onConflict, "on-conflict", string(services.ConflictSkip), "Existing keys (skip, update)")
	flags.commit.register(cmd)

	return cmd
}

func runImport(cmd *cobra.Command, handler *handlers.ImportHandler, filePath string, flags importFlags) (*services.ImportResult, error) {
	strategy := services.ConflictStrategy(flags.onConflict)
	if strategy != services.ConflictSkip && strategy != services.ConflictUpdate {
		return nil, errs.NewInvalidRequest("invalid --on-conflict value %q (valid: skip, update)", flags.onConflict)
	}

	meta, err := flags.commit.meta()
	if err != nil {
		return nil, err
	}

	opts := handlers.ImportOptions{
		Format:     flags.format,
		DryRun:     flags.dryRun,
		OnConflict: strategy,
		Commit:     meta,
	}
	if filePath == "-" {
		if flags.format == "" || flags.format == "auto" {
			return nil, errs.NewInvalidRequest("--format is required when reading stdin")
		}
		return handler.HandleReader(cmd.Context(), cmd.InOrStdin(), opts)
	}
	return handler.Handle(cmd.Context(), filePath, opts)
}
