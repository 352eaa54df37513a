package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ersonp/folio/internal/application/handlers"
)

// errReported marks a failure whose envelope was already printed.
var errReported = errors.New("reported")

// respond prints the JSON envelope of a command result. A failed command
// returns errReported so the process exits non-zero without printing twice.
func respond(cmd *cobra.Command, data any, err error) error {
	resp := handlers.Respond(data, err)
	if werr := writeResponse(cmd.OutOrStdout(), resp); werr != nil {
		return fmt.Errorf("writing response: %w", werr)
	}
	if resp.Status == handlers.StatusError {
		return errReported
	}
	return nil
}

func writeResponse(w io.Writer, resp handlers.Response) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(resp)
}
