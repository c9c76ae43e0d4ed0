package bundle

import (
	"encoding/hex"

	"github.com/zeebo/blake3"

	"github.com/custodia-labs/marginalia/internal/core/ports/driven"
)

// Ensure Digester implements the interface.
var _ driven.Digester = Digester{}

// Digester computes blake3-256 digests.
type Digester struct{}

// NewDigester creates a blake3 digester.
func NewDigester() Digester {
	return Digester{}
}

// Digest returns the hex blake3-256 digest of text.
func (Digester) Digest(text string) string {
	sum := blake3.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
