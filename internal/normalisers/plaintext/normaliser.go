package plaintext

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/marginalia/internal/core/domain"
	"github.com/custodia-labs/marginalia/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles plain text files. It is also the fallback for
// extensions no other normaliser claims.
type Normaliser struct{}

// New creates a new plain text normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// Format returns the format name.
func (n *Normaliser) Format() string {
	return "plaintext"
}

// Extensions returns the file extensions this normaliser handles.
func (n *Normaliser) Extensions() []string {
	return []string{".txt", ".text"}
}

// Normalise returns the content as text. A byte order mark is dropped and
// CRLF line endings become LF so offsets match what a reader sees.
func (n *Normaliser) Normalise(path string, content []byte) (*domain.SourceText, error) {
	if !utf8.Valid(content) {
		return nil, fmt.Errorf("%s is not UTF-8 text: %w", path, domain.ErrInvalidInput)
	}

	text := strings.TrimPrefix(string(content), "\uFEFF")
	text = strings.ReplaceAll(text, "\r\n", "\n")

	return &domain.SourceText{
		Title:  TitleFromPath(path),
		Text:   text,
		Format: n.Format(),
	}, nil
}

// TitleFromPath derives a human-readable title from a file name:
// "essay_3-draft.md" becomes "essay 3 draft".
func TitleFromPath(path string) string {
	if path == "" || path == "-" {
		return ""
	}
	filename := filepath.Base(path)
	filename = strings.TrimSuffix(filename, filepath.Ext(filename))
	filename = strings.ReplaceAll(filename, "_", " ")
	filename = strings.ReplaceAll(filename, "-", " ")
	return strings.TrimSpace(filename)
}
