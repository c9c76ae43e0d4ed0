package keymap

import (
	"testing"

	"github.com/charmbracelet/bubbles/key"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultKeyMap_Presses(t *testing.T) {
	km := DefaultKeyMap()

	tests := []struct {
		press   string
		binding key.Binding
		want    bool
	}{
		{"q", km.Quit, true},
		{"ctrl+c", km.Quit, true},
		{"x", km.Quit, false},
		{"?", km.Help, true},
		{"k", km.Up, true},
		{"down", km.Up, false},
		{"h", km.Left, true},
		{"right", km.Right, true},
		{"v", km.Anchor, true},
		{"a", km.Annotate, true},
		{"a", km.Help, false},
		{"e", km.Edit, true},
		{"d", km.Delete, true},
		{"pgdown", km.NextPage, true},
		{"p", km.PrevPage, true},
	}

	for _, tt := range tests {
		t.Run(tt.press, func(t *testing.T) {
			assert.Equal(t, tt.want, Matches(tt.press, tt.binding))
		})
	}
}

// The annotator handles its keys in a single switch, so a key bound to two
// annotator actions would shadow one of them.
func TestDefaultKeyMap_AnnotatorKeysAreDistinct(t *testing.T) {
	km := DefaultKeyMap()
	owner := map[string]string{}

	for name, b := range map[string]key.Binding{
		"up": km.Up, "down": km.Down, "left": km.Left, "right": km.Right,
		"anchor": km.Anchor, "annotate": km.Annotate, "edit": km.Edit,
		"delete": km.Delete, "reload": km.Reload,
		"next": km.NextPage, "prev": km.PrevPage,
	} {
		for _, k := range b.Keys() {
			prev, taken := owner[k]
			assert.False(t, taken, "%q bound to both %s and %s", k, prev, name)
			owner[k] = name
		}
		assert.NotEmpty(t, b.Help().Key, name)
		assert.NotEmpty(t, b.Help().Desc, name)
	}
}

func TestHelpGroups(t *testing.T) {
	km := DefaultKeyMap()

	assert.Equal(t, []key.Binding{km.Quit, km.Help}, km.ShortHelp())
	assert.Equal(t, []key.Binding{km.Annotate, km.Cancel}, km.SelectingHelp())

	annotate := km.AnnotateHelp()
	require.Len(t, annotate, 5)
	assert.Equal(t, km.Anchor, annotate[0])
	assert.Equal(t, km.Back, annotate[4])

	full := km.FullHelp()
	require.Len(t, full, 4)
	assert.Contains(t, full[1], km.Annotate)
	assert.Equal(t, []key.Binding{km.Help, km.Quit}, full[3])
}
