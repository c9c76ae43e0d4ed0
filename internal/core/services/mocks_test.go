package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/custodia-labs/marginalia/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/marginalia/internal/core/domain"
	"github.com/custodia-labs/marginalia/internal/core/ports/driven"
)

// recordingListener captures every text notification.
type recordingListener struct {
	added   []domain.Annotation
	updated []domain.Annotation
	removed []string
	lists   [][]domain.Annotation
}

func (r *recordingListener) OnAdd(a domain.Annotation, all []domain.Annotation) {
	r.added = append(r.added, a)
	r.lists = append(r.lists, all)
}

func (r *recordingListener) OnUpdate(a domain.Annotation, all []domain.Annotation) {
	r.updated = append(r.updated, a)
	r.lists = append(r.lists, all)
}

func (r *recordingListener) OnRemove(id string, all []domain.Annotation) {
	r.removed = append(r.removed, id)
	r.lists = append(r.lists, all)
}

// mockPages is a fixed PageGeometry. A zero size means still loading.
type mockPages struct {
	sizes []domain.PageSize
}

func letterPages(n int) *mockPages {
	sizes := make([]domain.PageSize, n)
	for i := range sizes {
		sizes[i] = domain.PageSize{Width: 612, Height: 792}
	}
	return &mockPages{sizes: sizes}
}

func (m *mockPages) PageCount() int {
	return len(m.sizes)
}

func (m *mockPages) NativeSize(page int) (domain.PageSize, bool) {
	if page < 1 || page > len(m.sizes) || m.sizes[page-1].IsZero() {
		return domain.PageSize{}, false
	}
	return m.sizes[page-1], true
}

// mockPageSource opens every path as the same geometry.
type mockPageSource struct {
	pages *mockPages
	err   error
}

func (m *mockPageSource) Open(_ string) (driven.PageGeometry, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.pages, nil
}

// mockDigester prefixes the text length, which is enough to detect edits.
type mockDigester struct{}

func (mockDigester) Digest(text string) string {
	return fmt.Sprintf("len-%d", len(text))
}

// jsonCodec is a plain JSON BundleCodec; compression is ignored.
type jsonCodec struct{}

func (jsonCodec) Encode(w io.Writer, b *domain.Bundle, _ bool) error {
	return json.NewEncoder(w).Encode(b)
}

func (jsonCodec) Decode(r io.Reader) (*domain.Bundle, error) {
	var b domain.Bundle
	if err := json.NewDecoder(r).Decode(&b); err != nil {
		return nil, err
	}
	return &b, nil
}

var errDiskFull = errors.New("disk full")

// failingStore wraps a memory store and fails list saves. With marksOnly
// set, annotation saves go through.
type failingStore struct {
	*memory.AnnotationStore
	marksOnly bool
}

func (f *failingStore) SaveAnnotations(ctx context.Context, subjectID string, annotations []domain.Annotation) error {
	if f.marksOnly {
		return f.AnnotationStore.SaveAnnotations(ctx, subjectID, annotations)
	}
	return errDiskFull
}

func (f *failingStore) SaveMarks(_ context.Context, _ string, _ []domain.Mark) error {
	return errDiskFull
}

// sequentialIDs returns id-1, id-2, ...
func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}
