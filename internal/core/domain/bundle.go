package domain

// BundleVersion is the current bundle format version.
const BundleVersion = 1

// Bundle is the portable form of one reviewed subject.
type Bundle struct {
	// Version is the format version, see BundleVersion.
	Version int `json:"version"`

	// Subject is the reviewed work, including its digest.
	Subject Subject `json:"subject"`

	// Annotations are the text annotations in list order.
	Annotations []Annotation `json:"annotations"`

	// Marks are the spatial marks in list order.
	Marks []Mark `json:"marks"`
}
