package entities

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLocalizedText_Merge(t *testing.T) {
	tests := []struct {
		name     string
		base     LocalizedText
		update   LocalizedText
		expected LocalizedText
	}{
		{
			name:     "adds new language",
			base:     LocalizedText{"en": "Alpha"},
			update:   LocalizedText{"de": "Alpha (de)"},
			expected: LocalizedText{"en": "Alpha", "de": "Alpha (de)"},
		},
		{
			name:     "overrides existing language only",
			base:     LocalizedText{"en": "Alpha", "de": "Alpha (de)"},
			update:   LocalizedText{"en": "Beta"},
			expected: LocalizedText{"en": "Beta", "de": "Alpha (de)"},
		},
		{
			name:     "empty update keeps base",
			base:     LocalizedText{"en": "Alpha"},
			update:   nil,
			expected: LocalizedText{"en": "Alpha"},
		},
		{
			name:     "nil base",
			base:     nil,
			update:   LocalizedText{"fr": "Bonjour"},
			expected: LocalizedText{"fr": "Bonjour"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.base.Merge(tt.update))
		})
	}
}

func TestLocalizedText_MergeDoesNotMutate(t *testing.T) {
	base := LocalizedText{"en": "Alpha"}
	_ = base.With("en", "Beta")

	assert.Equal(t, "Alpha", base["en"])
}

func TestLocalizedText_Equal(t *testing.T) {
	assert.True(t, LocalizedText{"en": "a"}.Equal(LocalizedText{"en": "a"}))
	assert.True(t, LocalizedText(nil).Equal(LocalizedText{}))
	assert.False(t, LocalizedText{"en": "a"}.Equal(LocalizedText{"en": "b"}))
	assert.False(t, LocalizedText{"en": ""}.Equal(LocalizedText{}))
}

func TestUnionLanguages(t *testing.T) {
	langs := UnionLanguages(LocalizedText{"en": "x", "fr": "y"}, LocalizedText{"de": "z", "en": "w"})

	assert.Equal(t, []LanguageCode{"de", "en", "fr"}, langs)
}
