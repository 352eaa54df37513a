package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ersonp/folio/internal/domain/errs"
)

type exportFlags struct {
	format string
	output string
}

func newExportCmd() *cobra.Command {
	var flags exportFlags

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export current citations to CSL-JSON or CSV",
		Long:  "Writes every current citation in a format 'citation import' reads back. Without --output the export goes to stdout.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, flags)
		},
	}

	cmd.Flags().StringVar(&flags.format, "format", "json", "Output format (json, csl, csv)")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "Output file (default: stdout)")

	return cmd
}

func runExport(cmd *cobra.Command, flags exportFlags) error {
	if flags.output == "" {
		err := withDeps(cmd.Context(), func(d *Deps) error {
			_, err := d.Exports.Handle(cmd.Context(), cmd.OutOrStdout(), flags.format)
			return err
		})
		if err != nil {
			return respond(cmd, nil, err)
		}
		return nil
	}

	return withHandlerDeps(cmd, func(d *Deps) (result any, err error) {
		f, err := os.OpenFile(flags.output, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
		if err != nil {
			return nil, errs.NewInvalidRequest("creating %s: %v", flags.output, err)
		}
		defer func() {
			if cerr := f.Close(); cerr != nil && err == nil {
				err = fmt.Errorf("closing file: %w", cerr)
			}
		}()

		res, err := d.Exports.Handle(cmd.Context(), f, flags.format)
		if err != nil {
			return nil, err
		}
		res.Path = flags.output
		return res, nil
	})
}
