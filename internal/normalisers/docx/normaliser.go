// Package docx extracts reviewable text from Word documents.
package docx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/custodia-labs/marginalia/internal/core/domain"
	"github.com/custodia-labs/marginalia/internal/core/ports/driven"
	"github.com/custodia-labs/marginalia/internal/normalisers/plaintext"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles DOCX documents.
type Normaliser struct{}

// New creates a new DOCX normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// Format returns the format name.
func (n *Normaliser) Format() string {
	return "docx"
}

// Extensions returns the file extensions this normaliser handles.
func (n *Normaliser) Extensions() []string {
	return []string{".docx"}
}

// Normalise extracts one line per paragraph from word/document.xml.
func (n *Normaliser) Normalise(path string, content []byte) (*domain.SourceText, error) {
	reader, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("%s is not a DOCX archive: %w", path, domain.ErrInvalidInput)
	}

	body, err := readPart(reader, "word/document.xml")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	text, err := parseDocumentXML(body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	title := plaintext.TitleFromPath(path)
	if core, err := readPart(reader, "docProps/core.xml"); err == nil {
		if t := parseCoreTitle(core); t != "" {
			title = t
		}
	}

	return &domain.SourceText{
		Title:  title,
		Text:   text,
		Format: n.Format(),
	}, nil
}

// readPart returns the bytes of one archive member.
func readPart(reader *zip.Reader, name string) ([]byte, error) {
	for _, file := range reader.File {
		if file.Name != name {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return nil, fmt.Errorf("opening %s: %w", name, domain.ErrInvalidInput)
		}
		defer rc.Close()

		data, err := io.ReadAll(rc)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", name, domain.ErrInvalidInput)
		}
		return data, nil
	}
	return nil, fmt.Errorf("missing %s: %w", name, domain.ErrInvalidInput)
}

// documentXML represents the structure of word/document.xml.
type documentXML struct {
	Body struct {
		Paragraphs []paragraph `xml:"p"`
	} `xml:"body"`
}

type paragraph struct {
	Runs []run `xml:"r"`
}

type run struct {
	Text []textElement `xml:"t"`
	Tabs []struct{}    `xml:"tab"`
}

type textElement struct {
	Content string `xml:",chardata"`
}

// parseDocumentXML joins the runs of each paragraph.
func parseDocumentXML(content []byte) (string, error) {
	var doc documentXML
	if err := xml.Unmarshal(content, &doc); err != nil {
		return "", fmt.Errorf("parsing document: %w", domain.ErrInvalidInput)
	}

	lines := make([]string, 0, len(doc.Body.Paragraphs))
	for _, para := range doc.Body.Paragraphs {
		var sb strings.Builder
		for _, r := range para.Runs {
			if len(r.Tabs) > 0 {
				sb.WriteString("\t")
			}
			for _, t := range r.Text {
				sb.WriteString(t.Content)
			}
		}
		lines = append(lines, sb.String())
	}
	return strings.TrimSpace(strings.Join(lines, "\n")), nil
}

// coreXML represents the structure of docProps/core.xml.
type coreXML struct {
	Title string `xml:"title"`
}

func parseCoreTitle(content []byte) string {
	var core coreXML
	if err := xml.Unmarshal(content, &core); err != nil {
		return ""
	}
	return strings.TrimSpace(core.Title)
}
