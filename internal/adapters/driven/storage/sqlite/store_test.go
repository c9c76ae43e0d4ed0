package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/marginalia/internal/core/domain"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func testSubject(id string, created time.Time) *domain.Subject {
	return &domain.Subject{
		ID:        id,
		Title:     "Essay " + id,
		Kind:      domain.SubjectText,
		Text:      "Mi familia\nYo tiene un gato",
		Digest:    "abc123",
		CreatedAt: created,
		UpdatedAt: created,
	}
}

// ==================== Store Tests ====================

func TestNewStore(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	require.NoError(t, err)
	defer store.Close()

	assert.Equal(t, filepath.Join(dir, "annotations.db"), store.Path())
	_, err = os.Stat(store.Path())
	assert.NoError(t, err)

	version, err := store.SchemaVersion()
	require.NoError(t, err)
	assert.Equal(t, 2, version)
}

func TestNewStore_ReopenKeepsData(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	first, err := NewStore(dir)
	require.NoError(t, err)
	require.NoError(t, first.SaveSubject(ctx, testSubject("s-1", time.Now())))
	require.NoError(t, first.Close())

	second, err := NewStore(dir)
	require.NoError(t, err)
	defer second.Close()

	got, err := second.GetSubject(ctx, "s-1")
	require.NoError(t, err)
	assert.Equal(t, "Essay s-1", got.Title)
}

// ==================== Subject Tests ====================

func TestStore_SaveAndGetSubject(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	created := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)

	require.NoError(t, store.SaveSubject(ctx, testSubject("s-1", created)))

	got, err := store.GetSubject(ctx, "s-1")
	require.NoError(t, err)
	assert.Equal(t, domain.SubjectText, got.Kind)
	assert.Equal(t, "Mi familia\nYo tiene un gato", got.Text)
	assert.Equal(t, "abc123", got.Digest)
	assert.True(t, created.Equal(got.CreatedAt))
}

func TestStore_SaveSubject_Upsert(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	subject := testSubject("s-1", time.Now())
	require.NoError(t, store.SaveSubject(ctx, subject))

	subject.Title = "Renamed"
	require.NoError(t, store.SaveSubject(ctx, subject))

	got, err := store.GetSubject(ctx, "s-1")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Title)

	subjects, err := store.ListSubjects(ctx)
	require.NoError(t, err)
	assert.Len(t, subjects, 1)
}

func TestStore_GetSubject_NotFound(t *testing.T) {
	store := setupTestStore(t)
	_, err := store.GetSubject(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_ListSubjects_Ordered(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	require.NoError(t, store.SaveSubject(ctx, testSubject("late", base.Add(time.Hour))))
	require.NoError(t, store.SaveSubject(ctx, testSubject("early", base)))

	subjects, err := store.ListSubjects(ctx)
	require.NoError(t, err)
	require.Len(t, subjects, 2)
	assert.Equal(t, "early", subjects[0].ID)
	assert.Equal(t, "late", subjects[1].ID)
}

func TestStore_DeleteSubject_Cascades(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.SaveSubject(ctx, testSubject("s-1", time.Now())))
	require.NoError(t, store.SaveAnnotations(ctx, "s-1", []domain.Annotation{{ID: "a-1", Start: 14, End: 19, Kind: domain.KindGrammar}}))
	require.NoError(t, store.SaveMarks(ctx, "s-1", []domain.Mark{{ID: "m-1", Page: 1, Kind: domain.MarkStamp}}))

	require.NoError(t, store.DeleteSubject(ctx, "s-1"))

	annotations, err := store.GetAnnotations(ctx, "s-1")
	require.NoError(t, err)
	assert.Empty(t, annotations)
	marks, err := store.GetMarks(ctx, "s-1")
	require.NoError(t, err)
	assert.Empty(t, marks)

	// Deleting again is not an error
	assert.NoError(t, store.DeleteSubject(ctx, "s-1"))
}

// ==================== Annotation Tests ====================

func TestStore_SaveAnnotations_ReplacesInOrder(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.SaveSubject(ctx, testSubject("s-1", time.Now())))

	initial := []domain.Annotation{
		{ID: "a-1", Start: 14, End: 19, Kind: domain.KindGrammar, OriginalText: "tiene", Replacement: "tengo", Note: "first person"},
		{ID: "a-2", Start: 0, End: 2, Kind: domain.KindSpelling, OriginalText: "Mi"},
	}
	require.NoError(t, store.SaveAnnotations(ctx, "s-1", initial))

	got, err := store.GetAnnotations(ctx, "s-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a-1", got[0].ID)
	assert.Equal(t, "tengo", got[0].Replacement)
	assert.Equal(t, "first person", got[0].Note)
	assert.Equal(t, "a-2", got[1].ID)

	require.NoError(t, store.SaveAnnotations(ctx, "s-1", initial[1:]))
	got, err = store.GetAnnotations(ctx, "s-1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "a-2", got[0].ID)
}

func TestStore_SaveAnnotations_UnknownSubject(t *testing.T) {
	store := setupTestStore(t)
	err := store.SaveAnnotations(context.Background(), "missing", []domain.Annotation{{ID: "a-1"}})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ==================== Mark Tests ====================

func TestStore_SaveMarks_RoundTripPoints(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.SaveSubject(ctx, testSubject("s-1", time.Now())))

	marks := []domain.Mark{
		{ID: "m-1", Page: 2, Kind: domain.MarkPath, Color: "#d62828",
			Points: []domain.Point{{X: 10.5, Y: 20.25}, {X: 30, Y: 40.125}}},
		{ID: "m-2", Page: 1, Kind: domain.MarkStamp, X: 100, Y: 50, Content: "¿por qué?", Color: "#1d3557"},
	}
	require.NoError(t, store.SaveMarks(ctx, "s-1", marks))

	got, err := store.GetMarks(ctx, "s-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, marks[0].Points, got[0].Points)
	assert.Equal(t, 2, got[0].Page)
	assert.Equal(t, domain.MarkStamp, got[1].Kind)
	assert.Equal(t, "¿por qué?", got[1].Content)
	assert.InDelta(t, 100.0, got[1].X, 1e-9)
	assert.Nil(t, got[1].Points)
}

func TestStore_SaveMarks_UnknownSubject(t *testing.T) {
	store := setupTestStore(t)
	err := store.SaveMarks(context.Background(), "missing", nil)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ==================== Helper Tests ====================

func TestPointsBytesRoundTrip(t *testing.T) {
	points := []domain.Point{{X: -1.5, Y: 2}, {X: 1e6, Y: 0.001}}
	assert.Equal(t, points, bytesToPoints(pointsToBytes(points)))
	assert.Nil(t, pointsToBytes(nil))
	assert.Nil(t, bytesToPoints([]byte{1, 2, 3}))
}
