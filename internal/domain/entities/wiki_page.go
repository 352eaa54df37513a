package entities

// WikiPage is a wiki article with a localized title and markdown body.
type WikiPage struct {
	Revision
	Slug             string        `json:"slug" validate:"required,slug,max=200"`
	Title            LocalizedText `json:"title" validate:"required,min=1,dive,keys,langcode,endkeys,nocontrol,singleline,max=300"`
	Body             LocalizedText `json:"body,omitempty" validate:"omitempty,dive,keys,langcode,endkeys,nocontrol,max=200000"`
	OriginalLanguage LanguageCode  `json:"original_language" validate:"required,langcode"`
}

// NewWikiPage returns an empty page ready to be filled for a first revision.
func NewWikiPage() *WikiPage {
	return &WikiPage{}
}

func (p *WikiPage) Kind() Kind { return KindWikiPage }

func (p *WikiPage) Key() string { return p.Slug }

func (p *WikiPage) Fields() []Field {
	return []Field{
		ScalarField("slug", p.Slug),
		LocalizedField("title", p.Title),
		LocalizedField("body", p.Body),
		ScalarField("original_language", string(p.OriginalLanguage)),
	}
}

func (p *WikiPage) Clone() *WikiPage {
	c := *p
	c.Revision = p.Revision.CloneRevision()
	c.Title = p.Title.Clone()
	c.Body = p.Body.Clone()
	return &c
}

// SearchTexts returns one indexable text per body language.
func (p *WikiPage) SearchTexts() []SearchText {
	return localizedSearchTexts(p.Title, p.Body)
}

// WikiPageInput is a partial update. Unset fields are left alone and
// localized maps merge by language.
type WikiPageInput struct {
	Slug             *string       `json:"slug,omitempty"`
	Title            LocalizedText `json:"title,omitempty"`
	Body             LocalizedText `json:"body,omitempty"`
	OriginalLanguage *LanguageCode `json:"original_language,omitempty"`
}

// ApplyTo merges the input into p.
func (in WikiPageInput) ApplyTo(p *WikiPage) {
	if in.Slug != nil {
		p.Slug = *in.Slug
	}
	p.Title = p.Title.Merge(in.Title)
	p.Body = p.Body.Merge(in.Body)
	if in.OriginalLanguage != nil {
		p.OriginalLanguage = *in.OriginalLanguage
	}
}
