package services

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/marginalia/internal/core/domain"
	"github.com/custodia-labs/marginalia/internal/core/geometry"
)

// span is a run reduced to what the tests compare.
type span struct {
	Start, End int
	Text       string
	ID         string
}

func spans(runs []domain.Run) []span {
	out := make([]span, len(runs))
	for i, r := range runs {
		out[i] = span{Start: r.Start, End: r.End, Text: r.Text}
		if r.Annotation != nil {
			out[i].ID = r.Annotation.ID
		}
	}
	return out
}

func TestRenderText(t *testing.T) {
	tests := []struct {
		name        string
		text        string
		annotations []domain.Annotation
		expected    []span
	}{
		{
			name:     "no annotations",
			text:     "hola",
			expected: []span{{0, 4, "hola", ""}},
		},
		{
			name:        "single annotation in the middle",
			text:        "Yo tiene un gato",
			annotations: []domain.Annotation{{ID: "a", Start: 3, End: 8}},
			expected:    []span{{0, 3, "Yo ", ""}, {3, 8, "tiene", "a"}, {8, 16, " un gato", ""}},
		},
		{
			name: "later overlapping range wins",
			text: "0123456789abcdefghij",
			annotations: []domain.Annotation{
				{ID: "A", Start: 0, End: 10},
				{ID: "B", Start: 5, End: 15},
			},
			expected: []span{{0, 5, "01234", "A"}, {5, 15, "56789abcde", "B"}, {15, 20, "fghij", ""}},
		},
		{
			name: "sorted by start before painting",
			text: "0123456789",
			annotations: []domain.Annotation{
				{ID: "late", Start: 6, End: 9},
				{ID: "early", Start: 1, End: 3},
			},
			expected: []span{{0, 1, "0", ""}, {1, 3, "12", "early"}, {3, 6, "345", ""}, {6, 9, "678", "late"}, {9, 10, "9", ""}},
		},
		{
			name: "equal starts keep list order",
			text: "abcdef",
			annotations: []domain.Annotation{
				{ID: "first", Start: 0, End: 4},
				{ID: "second", Start: 0, End: 2},
			},
			expected: []span{{0, 2, "ab", "second"}, {2, 4, "cd", "first"}, {4, 6, "ef", ""}},
		},
		{
			name: "adjacent ranges stay separate",
			text: "abcdef",
			annotations: []domain.Annotation{
				{ID: "x", Start: 0, End: 3},
				{ID: "y", Start: 3, End: 6},
			},
			expected: []span{{0, 3, "abc", "x"}, {3, 6, "def", "y"}},
		},
		{
			name: "out of bounds offsets are clamped",
			text: "abcdef",
			annotations: []domain.Annotation{
				{ID: "neg", Start: -5, End: 2},
				{ID: "big", Start: 4, End: 99},
				{ID: "gone", Start: 50, End: 60},
			},
			expected: []span{{0, 2, "ab", "neg"}, {2, 4, "cd", ""}, {4, 6, "ef", "big"}},
		},
		{
			name:        "multibyte text",
			text:        "él está",
			annotations: []domain.Annotation{{ID: "e", Start: 3, End: 7}},
			expected:    []span{{0, 3, "él ", ""}, {3, 7, "está", "e"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := spans(RenderText(tt.text, tt.annotations))
			if diff := cmp.Diff(tt.expected, got); diff != "" {
				t.Errorf("runs mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRenderText_Empty(t *testing.T) {
	assert.Nil(t, RenderText("", []domain.Annotation{{ID: "a", Start: 0, End: 3}}))
}

func TestRenderText_RoundTrip(t *testing.T) {
	text := "The cat sat on the mat and looked at the hat."
	annotations := []domain.Annotation{
		{ID: "1", Start: 4, End: 7},
		{ID: "2", Start: 19, End: 22},
		{ID: "3", Start: 41, End: 44},
	}
	for i := range annotations {
		annotations[i].OriginalText = geometry.Substring(text, annotations[i].Start, annotations[i].End)
	}

	runs := RenderText(text, annotations)

	var rebuilt string
	for _, r := range runs {
		rebuilt += r.Text
		if r.Annotation != nil {
			require.True(t, r.WholeAnnotation())
			assert.Equal(t, r.Annotation.OriginalText, r.Text)
		}
	}
	assert.Equal(t, text, rebuilt)
}

func TestPlainMarkup(t *testing.T) {
	text := "Yo tiene un gato"
	annotations := []domain.Annotation{
		{ID: "a", Start: 3, End: 8, Replacement: "tengo"},
		{ID: "b", Start: 12, End: 16},
	}

	assert.Equal(t, "Yo [tiene → tengo] un [gato]", PlainMarkup(RenderText(text, annotations)))
}

func TestPlainMarkup_SplitAnnotationShowsReplacementOnce(t *testing.T) {
	text := "abcdefgh"
	annotations := []domain.Annotation{
		{ID: "outer", Start: 0, End: 8, Replacement: "X"},
		{ID: "inner", Start: 2, End: 4},
	}

	assert.Equal(t, "[ab][cd][efgh → X]", PlainMarkup(RenderText(text, annotations)))
}

func TestPlainMarkup_KindTags(t *testing.T) {
	text := "Yo tiene un gato"
	annotations := []domain.Annotation{
		{ID: "a", Start: 3, End: 8, Kind: domain.KindGrammar, Replacement: "tengo"},
		{ID: "b", Start: 12, End: 16, Kind: domain.KindVocabulary},
	}
	assert.Equal(t, "Yo [tiene → tengo|grammar] un [gato|vocabulary]", PlainMarkup(RenderText(text, annotations)))

	// the tag of a split annotation follows its last fragment only
	split := []domain.Annotation{
		{ID: "outer", Start: 0, End: 8, Kind: domain.KindSpelling, Replacement: "tengo"},
		{ID: "inner", Start: 2, End: 4, Kind: domain.KindStyle},
	}
	assert.Equal(t, "[Yo][ t|style][iene → tengo|spelling] un gato", PlainMarkup(RenderText(text, split)))
}
