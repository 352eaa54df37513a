package entities

// SearchText is one language's indexable text of an entity.
type SearchText struct {
	Language LanguageCode
	Title    string
	Text     string
}

// Searchable is implemented by kinds whose current revision is indexed for search.
type Searchable interface {
	Kind() Kind
	Meta() *Revision
	SearchTexts() []SearchText
}

// SearchDocument is an embedded search point for one (entity, language) pair.
type SearchDocument struct {
	PointID  string
	EntityID string
	Kind     Kind
	RevID    string
	Language LanguageCode
	Title    string
	Text     string
	Vector   []float32
}

// SearchHit is a ranked search result.
type SearchHit struct {
	EntityID string       `json:"entity_id"`
	Kind     Kind         `json:"kind"`
	RevID    string       `json:"rev_id"`
	Language LanguageCode `json:"language"`
	Title    string       `json:"title"`
	Snippet  string       `json:"snippet"`
	Score    float32      `json:"score"`
}

func localizedSearchTexts(title, body LocalizedText) []SearchText {
	langs := UnionLanguages(title, body)
	texts := make([]SearchText, 0, len(langs))
	for _, lang := range langs {
		texts = append(texts, SearchText{
			Language: lang,
			Title:    title[lang],
			Text:     body[lang],
		})
	}
	return texts
}
