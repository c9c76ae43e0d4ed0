package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigStore_Success(t *testing.T) {
	tmpDir := t.TempDir()

	store, err := NewConfigStore(tmpDir)

	require.NoError(t, err)
	require.NotNil(t, store)
	assert.Equal(t, filepath.Join(tmpDir, "config.toml"), store.Path())
}

func TestConfigStore_TypedGetters(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Set("text.style", "comment"))
	require.NoError(t, store.Set("spatial.stroke_width", 2.5))
	require.NoError(t, store.Set("spatial.default_zoom", 2))
	require.NoError(t, store.Set("storage.compress", true))

	assert.Equal(t, "comment", store.GetString("text.style"))
	assert.InDelta(t, 2.5, store.GetFloat("spatial.stroke_width"), 1e-9)
	assert.InDelta(t, 2.0, store.GetFloat("spatial.default_zoom"), 1e-9)
	assert.True(t, store.GetBool("storage.compress"))

	// Wrong types fall back to zero values
	assert.Equal(t, "", store.GetString("spatial.stroke_width"))
	assert.Zero(t, store.GetFloat("text.style"))
	assert.False(t, store.GetBool("text.style"))
}

func TestConfigStore_SetAll(t *testing.T) {
	tmpDir := t.TempDir()
	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)
	require.NoError(t, store.Set("text.style", "correction"))

	require.NoError(t, store.SetAll(map[string]any{
		"text.style":   "comment",
		"spatial.tool": "stamp",
	}))

	reloaded, err := NewConfigStore(tmpDir)
	require.NoError(t, err)
	assert.Equal(t, "comment", reloaded.GetString("text.style"))
	assert.Equal(t, "stamp", reloaded.GetString("spatial.tool"))

	entries, err := os.ReadDir(tmpDir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files must not be left behind")
}

func TestConfigStore_Get_NotFound(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	val, ok := store.Get("nonexistent")
	assert.False(t, ok)
	assert.Nil(t, val)
}

func TestConfigStore_Persistence_NestedTables(t *testing.T) {
	tmpDir := t.TempDir()

	store1, err := NewConfigStore(tmpDir)
	require.NoError(t, err)
	require.NoError(t, store1.Set("spatial.color", "#1d3557"))
	require.NoError(t, store1.Set("spatial.erase_threshold", 12))
	require.NoError(t, store1.Set("storage.backend", "sqlite"))

	raw, err := os.ReadFile(store1.Path())
	require.NoError(t, err)
	assert.Contains(t, string(raw), "[spatial]")
	assert.Contains(t, string(raw), "[storage]")

	store2, err := NewConfigStore(tmpDir)
	require.NoError(t, err)
	assert.Equal(t, "#1d3557", store2.GetString("spatial.color"))
	assert.InDelta(t, 12.0, store2.GetFloat("spatial.erase_threshold"), 1e-9)
	assert.Equal(t, "sqlite", store2.GetString("storage.backend"))
}

func TestConfigStore_LoadHandWrittenFile(t *testing.T) {
	tmpDir := t.TempDir()
	content := []byte("[text]\nstyle = \"comment\"\n\n[spatial]\nstroke_width = 3\n")
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "config.toml"), content, 0600))

	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)
	assert.Equal(t, "comment", store.GetString("text.style"))
	assert.InDelta(t, 3.0, store.GetFloat("spatial.stroke_width"), 1e-9)
}

func TestConfigStore_EmptyFile(t *testing.T) {
	tmpDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte{}, 0600))

	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	_, ok := store.Get("any_key")
	assert.False(t, ok)
}

func TestConfigStore_FilePermissions(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Set("text.style", "correction"))

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestConfigStore_Concurrency(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	done := make(chan bool)
	for i := 0; i < 10; i++ {
		go func(id int) {
			key := "key" + string(rune('0'+id))
			_ = store.Set(key, id)
			_ = store.GetFloat(key)
			_, _ = store.Get(key)
			done <- true
		}(i)
	}

	for i := 0; i < 10; i++ {
		<-done
	}
}

// TestNewConfigStore_MkdirAllError tests error handling when directory creation fails
func TestNewConfigStore_MkdirAllError(t *testing.T) {
	store, err := NewConfigStore("/dev/null/cannot/create/dirs")

	assert.Error(t, err)
	assert.Nil(t, store)
}

// TestNewConfigStore_LoadCorruptedFile tests error handling when loading corrupted TOML
func TestNewConfigStore_LoadCorruptedFile(t *testing.T) {
	tmpDir := t.TempDir()
	err := os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte("this is not valid TOML {{{[["), 0600)
	require.NoError(t, err)

	store, err := NewConfigStore(tmpDir)

	assert.Error(t, err)
	assert.Nil(t, store)
}

// TestConfigStore_Save_WriteFileError tests error handling when WriteFile fails
func TestConfigStore_Save_WriteFileError(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Set("test", "value"))

	// Replace the file with a directory to cause write error
	require.NoError(t, os.Remove(store.Path()))
	require.NoError(t, os.Mkdir(store.Path(), 0700))

	assert.Error(t, store.Set("another", "value"))
}

func TestFlattenAndNest(t *testing.T) {
	flat := map[string]any{"a.b": 1, "a.c": "x", "d": true}
	nested := nestMap(flat)

	assert.Equal(t, map[string]any{"a": map[string]any{"b": 1, "c": "x"}, "d": true}, nested)
	assert.Equal(t, flat, flattenMap(nested, ""))
}

func TestNestMap_LeafShadowsTable(t *testing.T) {
	nested := nestMap(map[string]any{"a": 1, "a.b": 2})
	assert.Equal(t, 1, nested["a"])
}
