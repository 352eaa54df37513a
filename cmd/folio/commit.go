package main

import (
	"regexp"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ersonp/folio/internal/domain/entities"
	"github.com/ersonp/folio/internal/domain/errs"
)

// defaultSummaryLanguage applies to summaries given without a language prefix.
const defaultSummaryLanguage = "en"

var reSummaryLanguage = regexp.MustCompile(`^[a-z]{2,3}(-[A-Za-z0-9]{2,8})*$`)

// commitFlags are the revision metadata flags of every mutating command.
type commitFlags struct {
	summaries   []string
	tags        []string
	actor       string
	admin       bool
	expectedRev string
}

func (f *commitFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringArrayVarP(&f.summaries, "summary", "m", nil, "Edit summary as lang=text (repeatable; plain text is en)")
	cmd.Flags().StringArrayVar(&f.tags, "tag", nil, "Revision tag (repeatable)")
	cmd.Flags().StringVar(&f.actor, "actor", "", "User making the change; empty for the system")
	cmd.Flags().BoolVar(&f.admin, "admin", false, "Act with admin rights")
	cmd.Flags().StringVar(&f.expectedRev, "expected-rev", "", "Fail unless this is the current revision")
}

// meta builds the commit metadata from the flags.
func (f *commitFlags) meta() (entities.CommitMeta, error) {
	summary, err := parseSummaries(f.summaries)
	if err != nil {
		return entities.CommitMeta{}, err
	}
	return entities.CommitMeta{
		Actor:   entities.Actor{ID: strings.TrimSpace(f.actor), Admin: f.admin},
		Tags:    f.tags,
		Summary: summary,
	}, nil
}

// parseSummaries turns lang=text pairs into a localized summary. A value
// without a language prefix is taken as English.
func parseSummaries(values []string) (entities.LocalizedText, error) {
	if len(values) == 0 {
		return nil, nil
	}
	out := make(entities.LocalizedText, len(values))
	for _, v := range values {
		lang, text := defaultSummaryLanguage, v
		if prefix, rest, ok := strings.Cut(v, "="); ok && reSummaryLanguage.MatchString(prefix) {
			lang, text = prefix, rest
		}
		code := entities.LanguageCode(lang)
		if _, dup := out[code]; dup {
			return nil, errs.NewInvalidRequest("summary for %s given twice", lang).With("language", lang)
		}
		out[code] = text
	}
	return out, nil
}
