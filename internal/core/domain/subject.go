package domain

import "time"

// SubjectKind identifies what kind of work is being reviewed.
type SubjectKind string

// Available subject kinds.
const (
	// SubjectText is running text annotated by character ranges.
	SubjectText SubjectKind = "text"

	// SubjectDocument is a paginated document annotated spatially.
	SubjectDocument SubjectKind = "document"
)

// IsValid returns true if the subject kind is recognised.
func (k SubjectKind) IsValid() bool {
	return k == SubjectText || k == SubjectDocument
}

// Subject is a piece of student work under review, e.g. a submission.
type Subject struct {
	// ID is the unique identifier.
	ID string `json:"id"`

	// Title is the human-readable title.
	Title string `json:"title"`

	// Kind selects text or document annotation.
	Kind SubjectKind `json:"kind"`

	// Text is the logical buffer for text subjects.
	Text string `json:"text,omitempty"`

	// DocumentPath locates the document for document subjects.
	DocumentPath string `json:"documentPath,omitempty"`

	// PageCount is the number of pages of a document subject.
	PageCount int `json:"pageCount,omitempty"`

	// Digest is the hex blake3 digest of Text when it was stored.
	Digest string `json:"digest,omitempty"`

	// CreatedAt is when the subject was first stored.
	CreatedAt time.Time `json:"createdAt,omitzero"`

	// UpdatedAt is when the subject was last stored.
	UpdatedAt time.Time `json:"updatedAt,omitzero"`
}
