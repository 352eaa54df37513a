package main

import (
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ersonp/folio/internal/application/handlers"
	"github.com/ersonp/folio/internal/domain/entities"
	"github.com/ersonp/folio/internal/domain/errs"
)

// kindCommand names the command group of one content kind.
type kindCommand struct {
	name    string
	kind    entities.Kind
	aliases []string
	short   string
}

var kindCommands = []kindCommand{
	{name: "page", kind: entities.KindWikiPage, aliases: []string{"wiki_page"}, short: "Manage wiki pages"},
	{name: "citation", kind: entities.KindCitation, aliases: []string{"cite"}, short: "Manage citations"},
	{name: "claim", kind: entities.KindCitationClaim, aliases: []string{"citation_claim"}, short: "Manage citation claims"},
	{name: "post", kind: entities.KindBlogPost, aliases: []string{"blog_post"}, short: "Manage blog posts"},
	{name: "check", kind: entities.KindPageCheck, aliases: []string{"page_check"}, short: "Manage page checks"},
}

// withHandlerDeps runs fn against the site dependencies and prints its result.
func withHandlerDeps(cmd *cobra.Command, fn func(*Deps) (any, error)) error {
	var data any
	err := withDeps(cmd.Context(), func(d *Deps) error {
		var err error
		data, err = fn(d)
		return err
	})
	return respond(cmd, data, err)
}

// withKind runs fn against the handler of kind.
func withKind(cmd *cobra.Command, kind entities.Kind, fn func(handlers.ContentHandler) (any, error)) error {
	return withHandlerDeps(cmd, func(d *Deps) (any, error) {
		h, err := d.Registry.Handler(string(kind))
		if err != nil {
			return nil, err
		}
		return fn(h)
	})
}

func newKindCmd(kc kindCommand) *cobra.Command {
	cmd := &cobra.Command{
		Use:     kc.name,
		Aliases: kc.aliases,
		Short:   kc.short,
	}

	cmd.AddCommand(
		newCreateCmd(kc),
		newShowCmd(kc),
		newUpdateCmd(kc),
		newDeleteCmd(kc),
		newListCmd(kc),
		newHistoryCmd(kc),
		newDiffCmd(kc),
		newAuditCmd(kc),
	)

	switch kc.kind {
	case entities.KindWikiPage:
		cmd.AddCommand(newRewriteSectionCmd(), newReplaceCmd(), newPatchCmd())
	case entities.KindCitation:
		cmd.AddCommand(newImportCmd(), newExportCmd())
	}

	return cmd
}

// inputFlags read a JSON input record inline or from a file.
type inputFlags struct {
	inline string
	file   string
}

func (f *inputFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.inline, "input", "i", "", "Input record as JSON")
	cmd.Flags().StringVarP(&f.file, "file", "f", "", "Read the input record from a file (- for stdin)")
}

func (f *inputFlags) read(stdin io.Reader) (json.RawMessage, error) {
	switch {
	case f.inline != "" && f.file != "":
		return nil, errs.NewInvalidRequest("use either --input or --file, not both")
	case f.file == "-":
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, errs.NewInvalidRequest("reading stdin: %v", err)
		}
		return data, nil
	case f.file != "":
		data, err := os.ReadFile(f.file)
		if err != nil {
			return nil, errs.NewInvalidRequest("reading %s: %v", f.file, err)
		}
		return data, nil
	case strings.TrimSpace(f.inline) == "":
		return nil, errs.NewInvalidRequest("an input record is required (use --input or --file)")
	default:
		return json.RawMessage(f.inline), nil
	}
}

func newCreateCmd(kc kindCommand) *cobra.Command {
	var (
		input  inputFlags
		commit commitFlags
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create the first revision of a " + kc.name,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withKind(cmd, kc.kind, func(h handlers.ContentHandler) (any, error) {
				raw, err := input.read(cmd.InOrStdin())
				if err != nil {
					return nil, err
				}
				meta, err := commit.meta()
				if err != nil {
					return nil, err
				}
				return h.Create(cmd.Context(), handlers.CreateCommand{Input: raw, Commit: meta})
			})
		},
	}

	input.register(cmd)
	commit.register(cmd)
	return cmd
}

func newShowCmd(kc kindCommand) *cobra.Command {
	var revID string

	cmd := &cobra.Command{
		Use:   "show <ref>",
		Short: "Show the current or a past revision of a " + kc.name,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withKind(cmd, kc.kind, func(h handlers.ContentHandler) (any, error) {
				return h.Show(cmd.Context(), args[0], revID)
			})
		},
	}

	cmd.Flags().StringVar(&revID, "rev", "", "Revision id")
	return cmd
}

func newUpdateCmd(kc kindCommand) *cobra.Command {
	var (
		input  inputFlags
		commit commitFlags
	)

	cmd := &cobra.Command{
		Use:   "update <ref>",
		Short: "Merge a partial record into the current revision of a " + kc.name,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withKind(cmd, kc.kind, func(h handlers.ContentHandler) (any, error) {
				raw, err := input.read(cmd.InOrStdin())
				if err != nil {
					return nil, err
				}
				meta, err := commit.meta()
				if err != nil {
					return nil, err
				}
				return h.Update(cmd.Context(), handlers.UpdateCommand{
					Ref:           args[0],
					ExpectedRevID: commit.expectedRev,
					Input:         raw,
					Commit:        meta,
				})
			})
		},
	}

	input.register(cmd)
	commit.register(cmd)
	return cmd
}

func newDeleteCmd(kc kindCommand) *cobra.Command {
	var commit commitFlags

	cmd := &cobra.Command{
		Use:   "delete <ref>",
		Short: "Delete a " + kc.name + " (requires --admin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withKind(cmd, kc.kind, func(h handlers.ContentHandler) (any, error) {
				meta, err := commit.meta()
				if err != nil {
					return nil, err
				}
				return h.Delete(cmd.Context(), handlers.DeleteCommand{
					Ref:           args[0],
					ExpectedRevID: commit.expectedRev,
					Commit:        meta,
				})
			})
		},
	}

	commit.register(cmd)
	return cmd
}

func newListCmd(kc kindCommand) *cobra.Command {
	var limit, offset int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List current " + kc.name + " revisions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withKind(cmd, kc.kind, func(h handlers.ContentHandler) (any, error) {
				return h.List(cmd.Context(), limit, offset)
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", DefaultListLimit, "Maximum number of results")
	cmd.Flags().IntVar(&offset, "offset", 0, "Number of results to skip")
	return cmd
}

func newHistoryCmd(kc kindCommand) *cobra.Command {
	return &cobra.Command{
		Use:   "history <ref>",
		Short: "List the revisions of a " + kc.name + ", newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withKind(cmd, kc.kind, func(h handlers.ContentHandler) (any, error) {
				return h.History(cmd.Context(), args[0])
			})
		},
	}
}

func newDiffCmd(kc kindCommand) *cobra.Command {
	return &cobra.Command{
		Use:   "diff <ref> <from-rev> <to-rev>",
		Short: "Show the field changes between two revisions of a " + kc.name,
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withKind(cmd, kc.kind, func(h handlers.ContentHandler) (any, error) {
				return h.Diff(cmd.Context(), args[0], args[1], args[2])
			})
		},
	}
}

func newAuditCmd(kc kindCommand) *cobra.Command {
	return &cobra.Command{
		Use:   "audit <ref>",
		Short: "Show the audit log of a " + kc.name,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withKind(cmd, kc.kind, func(h handlers.ContentHandler) (any, error) {
				return h.Audit(cmd.Context(), args[0])
			})
		},
	}
}
