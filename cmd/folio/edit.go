package main

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ersonp/folio/internal/application/handlers"
	"github.com/ersonp/folio/internal/domain/edit"
	"github.com/ersonp/folio/internal/domain/entities"
	"github.com/ersonp/folio/internal/domain/errs"
)

func newRewriteSectionCmd() *cobra.Command {
	var (
		language   string
		heading    string
		lead       bool
		level      int
		occurrence int
		mode       string
		content    string
		file       string
		commit     commitFlags
	)

	cmd := &cobra.Command{
		Use:   "rewrite-section <ref>",
		Short: "Replace, prepend to or append to one heading section of a page body",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHandlerDeps(cmd, func(d *Deps) (any, error) {
				text, err := readText(content, file, cmd.InOrStdin(), cmd.Flags().Changed("content"))
				if err != nil {
					return nil, err
				}
				meta, err := commit.meta()
				if err != nil {
					return nil, err
				}
				return d.Edits.RewriteSection(cmd.Context(), handlers.RewriteSectionCommand{
					Ref:      args[0],
					Language: entities.LanguageCode(language),
					Target: edit.Target{
						Lead:       lead,
						Heading:    heading,
						Level:      level,
						Occurrence: occurrence,
					},
					Mode:          edit.Mode(mode),
					Content:       text,
					ExpectedRevID: commit.expectedRev,
				}, meta)
			})
		},
	}

	cmd.Flags().StringVarP(&language, "lang", "l", "", "Body language (required)")
	cmd.Flags().StringVar(&heading, "heading", "", "Heading text of the section")
	cmd.Flags().BoolVar(&lead, "lead", false, "Target the text before the first heading")
	cmd.Flags().IntVar(&level, "level", 0, "Only match headings of this depth")
	cmd.Flags().IntVar(&occurrence, "occurrence", 0, "Pick the nth matching heading")
	cmd.Flags().StringVar(&mode, "mode", string(edit.ModeReplace), "replace, prepend or append")
	cmd.Flags().StringVar(&content, "content", "", "Section text")
	cmd.Flags().StringVarP(&file, "file", "f", "", "Read the section text from a file (- for stdin)")
	commit.register(cmd)
	return cmd
}

func newReplaceCmd() *cobra.Command {
	var (
		language string
		from     []string
		to       []string
		commit   commitFlags
	)

	cmd := &cobra.Command{
		Use:   "replace <ref>",
		Short: "Replace exact text spans of a page body, all or nothing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHandlerDeps(cmd, func(d *Deps) (any, error) {
				replacements, err := pairReplacements(from, to)
				if err != nil {
					return nil, err
				}
				meta, err := commit.meta()
				if err != nil {
					return nil, err
				}
				return d.Edits.ReplaceExact(cmd.Context(), handlers.ReplaceExactCommand{
					Ref:           args[0],
					Language:      entities.LanguageCode(language),
					Replacements:  replacements,
					ExpectedRevID: commit.expectedRev,
				}, meta)
			})
		},
	}

	cmd.Flags().StringVarP(&language, "lang", "l", "", "Body language (required)")
	cmd.Flags().StringArrayVar(&from, "from", nil, "Text to replace (repeatable, paired with --to)")
	cmd.Flags().StringArrayVar(&to, "to", nil, "Replacement text (repeatable, paired with --from)")
	commit.register(cmd)
	return cmd
}

func newPatchCmd() *cobra.Command {
	var (
		language string
		format   string
		label    string
		file     string
		commit   commitFlags
	)

	cmd := &cobra.Command{
		Use:   "patch <ref>",
		Short: "Apply a unified or codex patch to a page body",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHandlerDeps(cmd, func(d *Deps) (any, error) {
				if file == "" {
					return nil, errs.NewInvalidRequest("a patch file is required (use --file, - for stdin)")
				}
				text, err := readText("", file, cmd.InOrStdin(), false)
				if err != nil {
					return nil, err
				}
				meta, err := commit.meta()
				if err != nil {
					return nil, err
				}
				return d.Edits.ApplyPatch(cmd.Context(), handlers.ApplyPatchCommand{
					Ref:               args[0],
					Language:          entities.LanguageCode(language),
					Patch:             text,
					Format:            entities.PatchFormat(format),
					ExpectedFileLabel: label,
					ExpectedRevID:     commit.expectedRev,
				}, meta)
			})
		},
	}

	cmd.Flags().StringVarP(&language, "lang", "l", "", "Body language (required)")
	cmd.Flags().StringVar(&format, "format", string(entities.PatchUnified), "Patch format (unified, codex)")
	cmd.Flags().StringVar(&label, "expected-file", "", "Reject patches naming another file")
	cmd.Flags().StringVarP(&file, "file", "f", "", "Patch file (- for stdin)")
	commit.register(cmd)
	return cmd
}

// readText returns inline text or the contents of file. inlineSet allows an
// explicitly empty inline value.
func readText(inline, file string, stdin io.Reader, inlineSet bool) (string, error) {
	switch {
	case file != "" && inlineSet:
		return "", errs.NewInvalidRequest("use either inline text or --file, not both")
	case file == "-":
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", errs.NewInvalidRequest("reading stdin: %v", err)
		}
		return string(data), nil
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return "", errs.NewInvalidRequest("reading %s: %v", file, err)
		}
		return string(data), nil
	default:
		return inline, nil
	}
}

func pairReplacements(from, to []string) ([]edit.Replacement, error) {
	if len(from) != len(to) {
		return nil, errs.NewInvalidRequest("--from and --to must be given the same number of times").
			With("from", len(from)).
			With("to", len(to))
	}
	out := make([]edit.Replacement, len(from))
	for i := range from {
		out[i] = edit.Replacement{From: from[i], To: to[i]}
	}
	return out, nil
}
