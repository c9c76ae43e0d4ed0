package domain

import "time"

// Kind classifies a text annotation.
// The taxonomy is closed; new kinds are added here and nowhere else.
type Kind string

// Available annotation kinds.
const (
	KindGrammar    Kind = "grammar"
	KindVocabulary Kind = "vocabulary"
	KindSpelling   Kind = "spelling"
	KindStyle      Kind = "style"
	KindCoherence  Kind = "coherence"
	KindSuggestion Kind = "suggestion"
	KindComment    Kind = "comment"
)

// Kinds lists every annotation kind in display order.
func Kinds() []Kind {
	return []Kind{
		KindGrammar,
		KindVocabulary,
		KindSpelling,
		KindStyle,
		KindCoherence,
		KindSuggestion,
		KindComment,
	}
}

// IsValid returns true if the kind is part of the taxonomy.
func (k Kind) IsValid() bool {
	for _, known := range Kinds() {
		if k == known {
			return true
		}
	}
	return false
}

// String returns the string representation.
func (k Kind) String() string {
	return string(k)
}

// Label returns a short human-readable label for the kind.
func (k Kind) Label() string {
	switch k {
	case KindGrammar:
		return "Grammar"
	case KindVocabulary:
		return "Vocabulary"
	case KindSpelling:
		return "Spelling"
	case KindStyle:
		return "Style"
	case KindCoherence:
		return "Coherence"
	case KindSuggestion:
		return "Suggestion"
	case KindComment:
		return "Comment"
	default:
		return unknownDescription
	}
}

// Style selects how strictly an annotator treats replacements.
type Style string

// Available annotator styles.
const (
	// StyleCorrection requires every annotation to carry a replacement.
	StyleCorrection Style = "correction"

	// StyleComment allows annotations without a replacement.
	StyleComment Style = "comment"
)

// IsValid returns true if the style is recognised.
func (s Style) IsValid() bool {
	return s == StyleCorrection || s == StyleComment
}

// String returns the string representation.
func (s Style) String() string {
	return string(s)
}

// Annotation is a typed mark-up of a [Start,End) rune range in a logical buffer.
// Offsets count characters (runes), not bytes.
type Annotation struct {
	// ID is the unique identifier, generated at creation time.
	ID string `json:"id"`

	// Start is the first annotated character offset.
	Start int `json:"start"`

	// End is one past the last annotated character offset.
	End int `json:"end"`

	// Kind classifies the annotation.
	Kind Kind `json:"kind"`

	// OriginalText is text[Start:End] at creation time.
	// It is kept for display even if the buffer is replaced later.
	OriginalText string `json:"originalText"`

	// Replacement is the corrected form.
	Replacement string `json:"replacement,omitempty"`

	// Note is an optional free-form explanation.
	Note string `json:"note,omitempty"`

	// CreatedAt is when the annotation was created.
	CreatedAt time.Time `json:"createdAt,omitzero"`
}

// Range is an absolute, normalised [Start,End) range with its text snapshot.
type Range struct {
	Start int
	End   int
	Text  string
}

// Len returns the number of characters in the range.
func (r Range) Len() int {
	return r.End - r.Start
}
