package entities

import "github.com/ersonp/folio/internal/domain/errs"

// Kind identifies one of the versioned content types.
type Kind string

const (
	KindWikiPage      Kind = "wiki_page"
	KindCitation      Kind = "citation"
	KindCitationClaim Kind = "citation_claim"
	KindBlogPost      Kind = "blog_post"
	KindPageCheck     Kind = "page_check"
)

// KindInfo describes a content kind for listings and help text.
type KindInfo struct {
	Kind        Kind     `json:"kind"`
	Aliases     []string `json:"aliases,omitempty"`
	Description string   `json:"description"`
}

// Kinds is the fixed set of content kinds.
var Kinds = []KindInfo{
	{
		Kind:        KindWikiPage,
		Aliases:     []string{"page"},
		Description: "Wiki pages with a localized title and markdown body",
	},
	{
		Kind:        KindCitation,
		Aliases:     []string{"cite"},
		Description: "Bibliographic citations stored as CSL-JSON",
	},
	{
		Kind:        KindCitationClaim,
		Aliases:     []string{"claim"},
		Description: "Claims supported by a quoted passage of a citation",
	},
	{
		Kind:        KindBlogPost,
		Aliases:     []string{"post"},
		Description: "Blog posts with a localized title and body",
	},
	{
		Kind:        KindPageCheck,
		Aliases:     []string{"check"},
		Description: "Quality checks recorded against a wiki page",
	},
}

// ParseKind resolves a kind name or alias.
func ParseKind(name string) (Kind, error) {
	normalized := NormalizeKey(name)
	for _, info := range Kinds {
		if string(info.Kind) == normalized {
			return info.Kind, nil
		}
		for _, alias := range info.Aliases {
			if alias == normalized {
				return info.Kind, nil
			}
		}
	}
	return "", errs.NewInvalidRequest("unknown kind %q", name).With("kind", name)
}
