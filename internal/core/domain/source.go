package domain

// SourceText is reviewable plain text extracted from a source file.
type SourceText struct {
	// Title is taken from the document itself or derived from the file name.
	Title string `json:"title"`

	// Text is the plain text that annotations will address.
	Text string `json:"text"`

	// Format names the normaliser that produced the text ("markdown").
	Format string `json:"format"`
}
