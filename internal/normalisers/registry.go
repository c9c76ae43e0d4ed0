package normalisers

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/custodia-labs/marginalia/internal/core/domain"
	"github.com/custodia-labs/marginalia/internal/core/ports/driven"
	"github.com/custodia-labs/marginalia/internal/logger"
	"github.com/custodia-labs/marginalia/internal/normalisers/docx"
	"github.com/custodia-labs/marginalia/internal/normalisers/html"
	"github.com/custodia-labs/marginalia/internal/normalisers/markdown"
	"github.com/custodia-labs/marginalia/internal/normalisers/plaintext"
)

// Registry selects a normaliser by file extension.
type Registry struct {
	byExt    map[string]driven.Normaliser
	fallback driven.Normaliser
}

// NewRegistry creates a registry. Later normalisers win an extension
// claimed twice. fallback handles every other extension.
func NewRegistry(fallback driven.Normaliser, normalisers ...driven.Normaliser) *Registry {
	r := &Registry{
		byExt:    make(map[string]driven.Normaliser),
		fallback: fallback,
	}
	for _, n := range append([]driven.Normaliser{fallback}, normalisers...) {
		for _, ext := range n.Extensions() {
			r.byExt[strings.ToLower(ext)] = n
		}
	}
	return r
}

// Default returns a registry with every built-in normaliser.
func Default() *Registry {
	return NewRegistry(plaintext.New(), markdown.New(), html.New(), docx.New())
}

// For returns the normaliser for path.
func (r *Registry) For(path string) driven.Normaliser {
	if n, ok := r.byExt[strings.ToLower(filepath.Ext(path))]; ok {
		return n
	}
	return r.fallback
}

// Normalise converts content read from path with the matching normaliser.
func (r *Registry) Normalise(path string, content []byte) (*domain.SourceText, error) {
	n := r.For(path)
	logger.Debug("normalising %s as %s", path, n.Format())
	return n.Normalise(path, content)
}

// Extensions lists every extension with a dedicated normaliser, sorted.
func (r *Registry) Extensions() []string {
	exts := make([]string, 0, len(r.byExt))
	for ext := range r.byExt {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}
