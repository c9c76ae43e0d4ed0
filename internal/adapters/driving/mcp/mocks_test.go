package mcp

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/marginalia/internal/adapters/driven/bundle"
	"github.com/custodia-labs/marginalia/internal/adapters/driven/pages"
	"github.com/custodia-labs/marginalia/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/marginalia/internal/core/domain"
	"github.com/custodia-labs/marginalia/internal/core/ports/driving"
	"github.com/custodia-labs/marginalia/internal/core/services"
)

// newTestServer wires a server over an in-memory store in comment style, so
// annotations may omit the replacement.
func newTestServer(t *testing.T) (*Server, driving.ReviewService) {
	t.Helper()

	store := memory.NewAnnotationStore()
	config := memory.NewConfigStore()
	require.NoError(t, config.Set("text.style", "comment"))
	require.NoError(t, config.Set("text.default_kind", "vocabulary"))
	settings := services.NewSettingsService(config)

	review := services.NewReviewService(
		store,
		bundle.NewDigester(),
		pages.FixedSource{Pages: pages.Uniform(3, pages.Letter)},
		settings,
		bundle.NewCodec(),
		store,
	)

	server, err := NewServer(&Ports{Review: review, Settings: settings})
	require.NoError(t, err)
	return server, review
}

func addText(t *testing.T, review driving.ReviewService, text string) string {
	t.Helper()
	subject, err := review.AddText(context.Background(), "Essay", text)
	require.NoError(t, err)
	return subject.ID
}

func intPtr(v int) *int {
	return &v
}

func strPtr(v string) *string {
	return &v
}

// mockReviewService fails every call it overrides.
type mockReviewService struct {
	driving.ReviewService
	subjects []domain.Subject
	err      error
}

func (m *mockReviewService) List(_ context.Context) ([]domain.Subject, error) {
	return m.subjects, m.err
}

func (m *mockReviewService) Get(_ context.Context, _ string) (*domain.Subject, error) {
	return nil, m.err
}

func (m *mockReviewService) OpenText(_ context.Context, _ string, _ driving.SessionOptions) (driving.TextSession, error) {
	return nil, m.err
}

func (m *mockReviewService) OpenDocument(_ context.Context, _ string, _ driving.SessionOptions) (driving.DocumentSession, error) {
	return nil, m.err
}
