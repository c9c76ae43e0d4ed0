package pages

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/marginalia/internal/core/domain"
)

// writeTestPDF writes a minimal PDF whose pages have the given media boxes.
func writeTestPDF(t *testing.T, sizes ...domain.PageSize) string {
	t.Helper()

	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
	}
	kids := ""
	for i := range sizes {
		kids += fmt.Sprintf("%d 0 R ", i+3)
	}
	objects = append(objects, fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", kids, len(sizes)))
	for _, s := range sizes {
		objects = append(objects, fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 %g %g] /Resources << >> >>", s.Width, s.Height))
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)

	path := filepath.Join(t.TempDir(), "essay.pdf")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))
	return path
}

func TestPDFSource_Open(t *testing.T) {
	a4 := domain.PageSize{Width: 595, Height: 842}
	path := writeTestPDF(t, Letter, a4)

	g, err := NewPDFSource().Open(path)
	require.NoError(t, err)
	assert.Equal(t, 2, g.PageCount())

	size, ok := g.NativeSize(1)
	require.True(t, ok)
	assert.InDelta(t, 612.0, size.Width, 0.01)
	assert.InDelta(t, 792.0, size.Height, 0.01)

	size, ok = g.NativeSize(2)
	require.True(t, ok)
	assert.InDelta(t, 595.0, size.Width, 0.01)
}

func TestPDFSource_Open_Errors(t *testing.T) {
	_, err := NewPDFSource().Open("/work/notes.txt")
	assert.ErrorIs(t, err, domain.ErrUnsupportedType)

	_, err = NewPDFSource().Open(filepath.Join(t.TempDir(), "missing.pdf"))
	assert.Error(t, err)
}
