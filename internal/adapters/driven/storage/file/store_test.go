package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/marginalia/internal/adapters/driven/bundle"
	"github.com/custodia-labs/marginalia/internal/core/domain"
)

func setupTestStore(t *testing.T, compress bool) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir(), compress)
	require.NoError(t, err)
	return store
}

func seedSubject(t *testing.T, store *Store, id string, created time.Time) {
	t.Helper()
	require.NoError(t, store.SaveSubject(context.Background(), &domain.Subject{
		ID:        id,
		Title:     "Essay " + id,
		Kind:      domain.SubjectText,
		Text:      "Yo tiene un gato",
		CreatedAt: created,
	}))
}

func TestStore_SubjectLifecycle(t *testing.T) {
	store := setupTestStore(t, false)
	ctx := context.Background()
	seedSubject(t, store, "s-1", time.Now())

	got, err := store.GetSubject(ctx, "s-1")
	require.NoError(t, err)
	assert.Equal(t, "Essay s-1", got.Title)
	assert.False(t, got.UpdatedAt.IsZero())

	_, err = os.Stat(filepath.Join(store.Dir(), "s-1.bundle"))
	require.NoError(t, err)

	require.NoError(t, store.DeleteSubject(ctx, "s-1"))
	_, err = store.GetSubject(ctx, "s-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// Deleting again is not an error
	assert.NoError(t, store.DeleteSubject(ctx, "s-1"))
}

func TestStore_SaveSubject_KeepsLists(t *testing.T) {
	store := setupTestStore(t, false)
	ctx := context.Background()
	seedSubject(t, store, "s-1", time.Now())
	require.NoError(t, store.SaveAnnotations(ctx, "s-1", []domain.Annotation{{ID: "a-1", Start: 3, End: 8}}))

	seedSubject(t, store, "s-1", time.Now())

	annotations, err := store.GetAnnotations(ctx, "s-1")
	require.NoError(t, err)
	require.Len(t, annotations, 1)
	assert.Equal(t, "a-1", annotations[0].ID)
}

func TestStore_ListsRoundTrip(t *testing.T) {
	for _, compress := range []bool{false, true} {
		t.Run(map[bool]string{false: "plain", true: "xz"}[compress], func(t *testing.T) {
			store := setupTestStore(t, compress)
			ctx := context.Background()
			seedSubject(t, store, "s-1", time.Now())

			require.NoError(t, store.SaveAnnotations(ctx, "s-1", []domain.Annotation{
				{ID: "a-1", Start: 3, End: 8, Kind: domain.KindGrammar, OriginalText: "tiene", Replacement: "tengo"},
			}))
			require.NoError(t, store.SaveMarks(ctx, "s-1", []domain.Mark{
				{ID: "m-1", Page: 2, Kind: domain.MarkPath, Points: []domain.Point{{X: 1, Y: 2}, {X: 3, Y: 4}}},
			}))

			annotations, err := store.GetAnnotations(ctx, "s-1")
			require.NoError(t, err)
			require.Len(t, annotations, 1)
			assert.Equal(t, "tengo", annotations[0].Replacement)

			marks, err := store.GetMarks(ctx, "s-1")
			require.NoError(t, err)
			require.Len(t, marks, 1)
			assert.Equal(t, []domain.Point{{X: 1, Y: 2}, {X: 3, Y: 4}}, marks[0].Points)

			raw, err := os.ReadFile(filepath.Join(store.Dir(), "s-1.bundle"))
			require.NoError(t, err)
			assert.Equal(t, compress, bundle.IsCompressed(raw))
		})
	}
}

func TestStore_SaveLists_UnknownSubject(t *testing.T) {
	store := setupTestStore(t, false)
	ctx := context.Background()

	assert.ErrorIs(t, store.SaveAnnotations(ctx, "missing", nil), domain.ErrNotFound)
	assert.ErrorIs(t, store.SaveMarks(ctx, "missing", nil), domain.ErrNotFound)

	annotations, err := store.GetAnnotations(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, annotations)
}

func TestStore_ListSubjects_OrderedAndSkipsJunk(t *testing.T) {
	store := setupTestStore(t, false)
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	seedSubject(t, store, "late", base.Add(time.Hour))
	seedSubject(t, store, "early", base)

	require.NoError(t, os.WriteFile(filepath.Join(store.Dir(), "broken.bundle"), []byte("{not json"), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(store.Dir(), "notes.txt"), []byte("ignored"), 0600))

	subjects, err := store.ListSubjects(context.Background())
	require.NoError(t, err)
	require.Len(t, subjects, 2)
	assert.Equal(t, "early", subjects[0].ID)
	assert.Equal(t, "late", subjects[1].ID)
}

func TestStore_RejectsEscapingIDs(t *testing.T) {
	store := setupTestStore(t, false)
	err := store.SaveSubject(context.Background(), &domain.Subject{ID: "../evil", Kind: domain.SubjectText})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = store.GetSubject(context.Background(), "../evil")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_Watch(t *testing.T) {
	t.Run("signals on save", func(t *testing.T) {
		store := setupTestStore(t, false)
		seedSubject(t, store, "s-1", time.Now())

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		changes, err := store.Watch(ctx, "s-1")
		require.NoError(t, err)

		go func() {
			time.Sleep(50 * time.Millisecond)
			_ = store.SaveAnnotations(context.Background(), "s-1", []domain.Annotation{{ID: "a-1"}})
		}()

		select {
		case _, ok := <-changes:
			assert.True(t, ok)
		case <-time.After(2 * time.Second):
			t.Fatal("timeout waiting for bundle change")
		}
	})

	t.Run("closes when context is done", func(t *testing.T) {
		store := setupTestStore(t, false)
		ctx, cancel := context.WithCancel(context.Background())

		changes, err := store.Watch(ctx, "s-1")
		require.NoError(t, err)
		cancel()

		select {
		case _, ok := <-changes:
			assert.False(t, ok)
		case <-time.After(2 * time.Second):
			t.Fatal("channel not closed")
		}
	})
}

func TestHandleFsEvent(t *testing.T) {
	tests := []struct {
		name     string
		file     string
		op       fsnotify.Op
		expected bool
	}{
		{name: "create target", file: "s-1.bundle", op: fsnotify.Create, expected: true},
		{name: "write target", file: "s-1.bundle", op: fsnotify.Write, expected: true},
		{name: "remove target", file: "s-1.bundle", op: fsnotify.Remove, expected: true},
		{name: "rename target", file: "s-1.bundle", op: fsnotify.Rename, expected: true},
		{name: "chmod target", file: "s-1.bundle", op: fsnotify.Chmod, expected: false},
		{name: "other subject", file: "s-2.bundle", op: fsnotify.Write, expected: false},
		{name: "temp file", file: ".s-1-123.tmp", op: fsnotify.Create, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event := fsnotify.Event{Name: filepath.Join("/data/bundles", tt.file), Op: tt.op}
			assert.Equal(t, tt.expected, handleFsEvent(event, "s-1.bundle"))
		})
	}
}
