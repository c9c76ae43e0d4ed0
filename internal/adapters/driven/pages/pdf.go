package pages

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/custodia-labs/marginalia/internal/core/domain"
	"github.com/custodia-labs/marginalia/internal/core/ports/driven"
	"github.com/custodia-labs/marginalia/internal/logger"
)

// Ensure PDFSource implements the interface.
var _ driven.PageSource = (*PDFSource)(nil)

// PDFSource opens PDF files and reads their page sizes with pdfcpu.
type PDFSource struct{}

// NewPDFSource creates a PDF page source.
func NewPDFSource() *PDFSource {
	return &PDFSource{}
}

// Open measures every page of the PDF at path.
func (s *PDFSource) Open(path string) (driven.PageGeometry, error) {
	if !strings.EqualFold(filepath.Ext(path), ".pdf") {
		return nil, fmt.Errorf("%s: %w", path, domain.ErrUnsupportedType)
	}

	count, err := api.PageCountFile(path)
	if err != nil {
		return nil, fmt.Errorf("count pages: %w", err)
	}

	dims, err := api.PageDimsFile(path)
	if err != nil {
		return nil, fmt.Errorf("read page dimensions: %w", err)
	}

	// pages pdfcpu could not measure stay zero, i.e. not ready
	sizes := make([]domain.PageSize, count)
	for i := 0; i < count && i < len(dims); i++ {
		sizes[i] = domain.PageSize{Width: dims[i].Width, Height: dims[i].Height}
	}
	logger.Debug("opened %s: %d pages", path, count)
	return NewStatic(sizes...), nil
}
