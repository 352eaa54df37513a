package entities

import "sort"

// LanguageCode is a BCP 47 language tag from the configured closed set.
type LanguageCode string

// LocalizedText maps language codes to text in that language.
type LocalizedText map[LanguageCode]string

// Clone returns a copy of t. A nil map stays nil.
func (t LocalizedText) Clone() LocalizedText {
	if t == nil {
		return nil
	}
	c := make(LocalizedText, len(t))
	for lang, text := range t {
		c[lang] = text
	}
	return c
}

// Merge returns the union of t and update, with update winning per language.
// Languages absent from update are kept unchanged.
func (t LocalizedText) Merge(update LocalizedText) LocalizedText {
	if len(update) == 0 {
		return t.Clone()
	}
	merged := make(LocalizedText, len(t)+len(update))
	for lang, text := range t {
		merged[lang] = text
	}
	for lang, text := range update {
		merged[lang] = text
	}
	return merged
}

// With returns a copy of t with lang set to text.
func (t LocalizedText) With(lang LanguageCode, text string) LocalizedText {
	return t.Merge(LocalizedText{lang: text})
}

// Get returns the text for lang and whether it is present.
func (t LocalizedText) Get(lang LanguageCode) (string, bool) {
	text, ok := t[lang]
	return text, ok
}

// Languages returns the language codes present in t, sorted.
func (t LocalizedText) Languages() []LanguageCode {
	langs := make([]LanguageCode, 0, len(t))
	for lang := range t {
		langs = append(langs, lang)
	}
	sort.Slice(langs, func(i, j int) bool { return langs[i] < langs[j] })
	return langs
}

// Equal reports whether t and other hold the same languages with the same text.
func (t LocalizedText) Equal(other LocalizedText) bool {
	if len(t) != len(other) {
		return false
	}
	for lang, text := range t {
		o, ok := other[lang]
		if !ok || o != text {
			return false
		}
	}
	return true
}

// UnionLanguages returns the sorted union of language codes in a and b.
func UnionLanguages(a, b LocalizedText) []LanguageCode {
	seen := make(map[LanguageCode]struct{}, len(a)+len(b))
	for lang := range a {
		seen[lang] = struct{}{}
	}
	for lang := range b {
		seen[lang] = struct{}{}
	}
	langs := make([]LanguageCode, 0, len(seen))
	for lang := range seen {
		langs = append(langs, lang)
	}
	sort.Slice(langs, func(i, j int) bool { return langs[i] < langs[j] })
	return langs
}
