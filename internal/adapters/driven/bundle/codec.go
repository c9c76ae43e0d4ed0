package bundle

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/ulikunitz/xz"

	"github.com/custodia-labs/marginalia/internal/core/domain"
	"github.com/custodia-labs/marginalia/internal/core/ports/driven"
)

// Ensure Codec implements the interface.
var _ driven.BundleCodec = (*Codec)(nil)

// xzMagic is the xz stream header magic (fd 37 7a 58 5a 00).
var xzMagic = []byte{0xfd, '7', 'z', 'X', 'Z', 0x00}

// Codec encodes bundles as indented JSON, optionally xz compressed.
type Codec struct{}

// NewCodec creates a bundle codec.
func NewCodec() *Codec {
	return &Codec{}
}

// Encode writes b to w.
func (c *Codec) Encode(w io.Writer, b *domain.Bundle, compress bool) error {
	if b.Annotations == nil {
		b.Annotations = []domain.Annotation{}
	}
	if b.Marks == nil {
		b.Marks = []domain.Mark{}
	}

	if !compress {
		return writeJSON(w, b)
	}

	zw, err := xz.NewWriter(w)
	if err != nil {
		return fmt.Errorf("create xz writer: %w", err)
	}
	if err := writeJSON(zw, b); err != nil {
		_ = zw.Close()
		return err
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("close xz writer: %w", err)
	}
	return nil
}

// Decode reads a plain or xz compressed bundle.
func (c *Codec) Decode(r io.Reader) (*domain.Bundle, error) {
	br := bufio.NewReader(r)
	magic, _ := br.Peek(len(xzMagic))

	var src io.Reader = br
	if IsCompressed(magic) {
		zr, err := xz.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("create xz reader: %w", err)
		}
		src = zr
	}

	var b domain.Bundle
	if err := json.NewDecoder(src).Decode(&b); err != nil {
		return nil, fmt.Errorf("parse bundle: %w", err)
	}
	return &b, nil
}

// IsCompressed reports whether data starts with the xz magic bytes.
func IsCompressed(data []byte) bool {
	return bytes.HasPrefix(data, xzMagic)
}

func writeJSON(w io.Writer, b *domain.Bundle) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(b); err != nil {
		return fmt.Errorf("write bundle: %w", err)
	}
	return nil
}
