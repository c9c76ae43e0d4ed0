// Package annotate provides the text annotator view for the TUI.
package annotate

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/marginalia/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/marginalia/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/marginalia/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/marginalia/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/marginalia/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/marginalia/internal/core/domain"
	"github.com/custodia-labs/marginalia/internal/core/ports/driving"
)

// mode is the input state of the view.
type mode int

const (
	modeBrowse mode = iota
	modeKind
	modeReplacement
	modeNote
)

// chrome is the number of rows taken by the header, panel and status bar.
const chrome = 8

// View is a terminal surface over a text annotator. It wraps the buffer
// into lines, renders each line as run fragments and reports selections
// through the segment map of the last render.
type View struct {
	styles *styles.Styles
	keymap *keymap.KeyMap
	status *status.Bar

	session     driving.TextSession
	annotator   driving.TextAnnotator
	defaultKind domain.Kind
	runes       []rune
	layout      *layout

	cursor   int
	anchor   int
	anchored bool
	top      int

	mode        mode
	kind        domain.Kind
	editingID   string
	replacement *input.Field
	note        *input.Field

	width  int
	height int
	err    error
}

// NewView creates an empty annotate view.
func NewView(s *styles.Styles) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	km := keymap.DefaultKeyMap()
	return &View{
		styles:      s,
		keymap:      km,
		status:      status.NewBar(s, km),
		defaultKind: domain.KindGrammar,
		replacement: input.NewField(s, "Replacement", "corrected text"),
		note:        input.NewField(s, "Note", "explanation for the writer"),
		width:       80,
		height:      24,
	}
}

// SetSession mounts a text session and resets the cursor.
func (v *View) SetSession(session driving.TextSession, defaultKind domain.Kind) {
	v.session = session
	v.annotator = session.Annotator()
	if defaultKind.IsValid() {
		v.defaultKind = defaultKind
	}
	v.runes = []rune(v.annotator.Text())
	v.cursor, v.top = 0, 0
	v.anchored = false
	v.err = nil
	v.resetDraft()
	v.status.Clear()
	if v.annotator.ReadOnly() {
		v.status.SetState(status.StateReadOnly)
	}
	if session.Stale() {
		v.status.SetMessage("text changed since it was stored; offsets may drift")
	}
	v.relayout()
}

const (
	// textMargin is the horizontal space the view keeps free.
	textMargin = 2

	// minTextWidth is the narrowest wrap width, however small the window.
	minTextWidth = 4
)

// relayout renders the buffer again at the current width.
func (v *View) relayout() {
	if v.annotator == nil {
		return
	}
	v.layout = buildLayout(v.runes, v.annotator.Render(), max(v.width-textMargin, minTextWidth))
	v.status.SetCount(len(v.annotator.Annotations()))
	v.scrollToCursor()
}

func (v *View) scrollToCursor() {
	if v.layout == nil {
		return
	}
	rows := max(v.height-chrome, 1)
	li := v.layout.lineOf(v.cursor)
	if li < v.top {
		v.top = li
	}
	if li >= v.top+rows {
		v.top = li - rows + 1
	}
}

// Init implements the view lifecycle.
func (v *View) Init() tea.Cmd {
	return nil
}

// Update handles messages for the annotate view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil
	case tea.KeyMsg:
		if v.annotator == nil {
			return v, nil
		}
		switch v.mode {
		case modeKind:
			return v.handleKindKey(msg)
		case modeReplacement, modeNote:
			return v.handleFieldKey(msg)
		case modeBrowse:
		}
		return v.handleBrowseKey(msg)
	}
	return v, nil
}

func (v *View) handleBrowseKey(msg tea.KeyMsg) (*View, tea.Cmd) {
	if v.err != nil {
		v.err = nil
		v.restoreState()
	}

	key := msg.String()
	switch {
	case keymap.Matches(key, v.keymap.Left):
		v.moveCursor(v.cursor - 1)
	case keymap.Matches(key, v.keymap.Right):
		v.moveCursor(v.cursor + 1)
	case keymap.Matches(key, v.keymap.Up):
		v.moveLine(-1)
	case keymap.Matches(key, v.keymap.Down):
		v.moveLine(1)
	case keymap.Matches(key, v.keymap.Anchor):
		v.toggleAnchor()
	case keymap.Matches(key, v.keymap.Annotate):
		return v, v.beginCreate()
	case keymap.Matches(key, v.keymap.Edit):
		return v, v.beginEdit()
	case keymap.Matches(key, v.keymap.Delete):
		v.deleteAtCursor()
	case keymap.Matches(key, v.keymap.Back):
		if v.anchored {
			v.anchored = false
			v.restoreState()
			return v, nil
		}
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewSubjects}
		}
	case keymap.Matches(key, v.keymap.Help):
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewHelp}
		}
	case keymap.Matches(key, v.keymap.Quit):
		return v, func() tea.Msg { return messages.Quit{} }
	}
	return v, nil
}

func (v *View) moveCursor(to int) {
	if len(v.runes) == 0 {
		return
	}
	v.cursor = max(0, min(to, len(v.runes)-1))
	v.scrollToCursor()
}

func (v *View) moveLine(delta int) {
	if v.layout == nil || len(v.runes) == 0 {
		return
	}
	li := v.layout.lineOf(v.cursor)
	target := li + delta
	if target < 0 || target >= len(v.layout.lines) {
		return
	}
	col := v.cursor - v.layout.lines[li].start
	ln := v.layout.lines[target]
	v.moveCursor(ln.start + min(col, max(ln.end-ln.start-1, 0)))
}

func (v *View) toggleAnchor() {
	if v.annotator.ReadOnly() {
		v.status.SetMessage("read-only")
		return
	}
	v.anchored = !v.anchored
	v.anchor = v.cursor
	v.restoreState()
}

func (v *View) restoreState() {
	v.status.Clear()
	switch {
	case v.annotator != nil && v.annotator.ReadOnly():
		v.status.SetState(status.StateReadOnly)
	case v.anchored:
		v.status.SetState(status.StateSelecting)
	}
}

// selection returns the anchor and focus of the current selection as
// surface positions. Without an anchor the word under the cursor is used.
func (v *View) selection() (domain.Selection, bool) {
	var anchor, focus int
	switch {
	case v.anchored && v.cursor >= v.anchor:
		anchor, focus = v.anchor, v.cursor+1
	case v.anchored:
		anchor, focus = v.anchor+1, v.cursor
	default:
		anchor, focus = wordAt(v.runes, v.cursor)
	}

	a, ok := v.layout.surface.Position(anchor)
	if !ok {
		return domain.Selection{}, false
	}
	f, ok := v.layout.surface.Position(focus)
	if !ok {
		return domain.Selection{}, false
	}
	return domain.Selection{Anchor: a, Focus: f}, true
}

func (v *View) beginCreate() tea.Cmd {
	if v.annotator.ReadOnly() {
		v.showNoteAtCursor()
		return nil
	}
	sel, ok := v.selection()
	if !ok {
		v.fail(domain.ErrNoSelection)
		return nil
	}
	rng, ok := v.annotator.CaptureSelection(v.layout.surface, sel)
	if !ok {
		v.fail(domain.ErrNoSelection)
		return nil
	}
	if _, armed := v.annotator.Pending(); !armed {
		v.fail(domain.ErrNoSelection)
		return nil
	}

	v.anchored = false
	v.editingID = ""
	v.kind = v.defaultKind
	v.replacement.Reset()
	v.note.Reset()
	v.mode = modeKind
	v.status.SetState(status.StateEditing)
	v.status.SetMessage(fmt.Sprintf("%q", rng.Text))
	return nil
}

func (v *View) beginEdit() tea.Cmd {
	a, ok := v.annotator.At(v.cursor)
	if !ok {
		v.status.SetMessage("no annotation under the cursor")
		return nil
	}
	if v.annotator.ReadOnly() {
		v.showNoteAtCursor()
		return nil
	}
	if err := v.annotator.Open(a.ID); err != nil {
		v.fail(err)
		return nil
	}

	v.anchored = false
	v.editingID = a.ID
	v.kind = a.Kind
	v.replacement.SetValue(a.Replacement)
	v.note.SetValue(a.Note)
	v.mode = modeKind
	v.status.SetState(status.StateEditing)
	v.status.SetMessage(fmt.Sprintf("%q", a.OriginalText))
	return nil
}

func (v *View) deleteAtCursor() {
	a, ok := v.annotator.At(v.cursor)
	if !ok {
		v.status.SetMessage("no annotation under the cursor")
		return
	}
	if err := v.annotator.Delete(a.ID); err != nil {
		v.fail(err)
		return
	}
	if err := v.session.Err(); err != nil {
		v.fail(err)
	}
	v.relayout()
	if v.err == nil {
		v.status.SetMessage(fmt.Sprintf("Deleted %q", a.OriginalText))
	}
}

func (v *View) showNoteAtCursor() {
	a, ok := v.annotator.At(v.cursor)
	if !ok {
		v.status.SetMessage("read-only")
		return
	}
	if a.Note != "" {
		v.status.SetMessage(a.Note)
		return
	}
	v.status.SetMessage(a.Kind.Label())
}

func (v *View) handleKindKey(msg tea.KeyMsg) (*View, tea.Cmd) {
	key := msg.String()
	switch {
	case keymap.Matches(key, v.keymap.Cancel):
		v.cancelDraft()
		return v, nil
	case keymap.Matches(key, v.keymap.Select):
		return v, v.focusField(modeReplacement)
	}
	if len(key) == 1 && key[0] >= '1' && key[0] <= '9' {
		kinds := domain.Kinds()
		if n := int(key[0] - '1'); n < len(kinds) {
			v.kind = kinds[n]
			return v, v.focusField(modeReplacement)
		}
	}
	return v, nil
}

func (v *View) handleFieldKey(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		v.cancelDraft()
		return v, nil
	case tea.KeyEnter:
		if v.mode == modeReplacement {
			return v, v.focusField(modeNote)
		}
		return v, v.commit()
	case tea.KeyShiftTab:
		if v.mode == modeNote {
			return v, v.focusField(modeReplacement)
		}
		return v, nil
	}

	var cmd tea.Cmd
	if v.mode == modeReplacement {
		v.replacement, cmd = v.replacement.Update(msg)
	} else {
		v.note, cmd = v.note.Update(msg)
	}
	return v, cmd
}

func (v *View) focusField(m mode) tea.Cmd {
	v.mode = m
	v.replacement.Blur()
	v.note.Blur()
	if m == modeReplacement {
		return v.replacement.Focus()
	}
	return v.note.Focus()
}

func (v *View) commit() tea.Cmd {
	replacement := strings.TrimSpace(v.replacement.Value())
	note := strings.TrimSpace(v.note.Value())

	var (
		a   *domain.Annotation
		err error
	)
	if v.editingID != "" {
		a, err = v.annotator.Update(v.editingID, v.kind, replacement, note)
	} else {
		a, err = v.annotator.Create(v.kind, replacement, note)
	}
	if errors.Is(err, domain.ErrInvalidInput) {
		// Correction style needs a replacement; let the user type one.
		v.status.SetState(status.StateError)
		v.status.SetMessage("a replacement is required")
		return v.focusField(modeReplacement)
	}
	if err != nil {
		v.cancelDraft()
		v.fail(err)
		return nil
	}

	if v.editingID != "" {
		v.annotator.CloseEditor()
	}
	v.resetDraft()
	v.restoreState()
	if err := v.session.Err(); err != nil {
		v.fail(err)
	} else {
		v.status.SetMessage(fmt.Sprintf("Saved %q as %s", a.OriginalText, a.Kind.Label()))
	}
	v.relayout()
	return nil
}

func (v *View) cancelDraft() {
	if v.editingID != "" {
		v.annotator.CloseEditor()
	} else {
		v.annotator.ClearPending()
	}
	v.resetDraft()
	v.restoreState()
}

func (v *View) resetDraft() {
	v.mode = modeBrowse
	v.editingID = ""
	v.kind = v.defaultKind
	v.replacement.Blur()
	v.note.Blur()
	v.replacement.Reset()
	v.note.Reset()
}

func (v *View) fail(err error) {
	v.err = err
	v.status.SetState(status.StateError)
	v.status.SetMessage(err.Error())
}

// wordAt returns the range of the word under offset, or the single
// character when it is not part of a word.
func wordAt(runes []rune, offset int) (int, int) {
	if offset < 0 || offset >= len(runes) {
		return offset, offset
	}
	if !isWordRune(runes[offset]) {
		return offset, offset + 1
	}
	start, end := offset, offset+1
	for start > 0 && isWordRune(runes[start-1]) {
		start--
	}
	for end < len(runes) && isWordRune(runes[end]) {
		end++
	}
	return start, end
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '\'' || r == '-'
}

// View renders the annotate view.
func (v *View) View() string {
	if v.annotator == nil {
		return v.styles.Muted.Render("No subject open.")
	}

	var b strings.Builder
	b.WriteString(v.styles.Title.Render(v.session.Subject().Title))
	b.WriteString("\n\n")

	rows := max(v.height-chrome, 1)
	end := min(v.top+rows, len(v.layout.lines))
	for i := v.top; i < end; i++ {
		b.WriteString(v.renderLine(i))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(v.renderPanel())
	b.WriteString("\n")
	v.status.SetWidth(v.width)
	v.status.SetPosition(v.cursor, len(v.runes))
	b.WriteString(v.status.View())
	return b.String()
}

// renderLine paints one wrapped line span by span, overlaying the
// selection and the cursor.
func (v *View) renderLine(i int) string {
	var b strings.Builder
	for _, sp := range v.layout.spans[i] {
		base := v.styles.ForAnnotation(sp.annotation)
		var chunk []rune
		var chunkStyle lipgloss.Style
		flush := func() {
			if len(chunk) > 0 {
				b.WriteString(chunkStyle.Render(string(chunk)))
				chunk = chunk[:0]
			}
		}
		for off := sp.start; off < sp.end; off++ {
			r := v.runes[off]
			style := base
			switch {
			case off == v.cursor:
				style = v.styles.Cursor
			case v.inSelection(off):
				style = base.Inherit(v.styles.Selection)
			}
			if r == '\n' {
				if off != v.cursor {
					continue
				}
				r = ' '
			}
			if len(chunk) > 0 && !sameStyle(style, chunkStyle) {
				flush()
			}
			chunkStyle = style
			chunk = append(chunk, r)
		}
		flush()
	}
	return b.String()
}

func sameStyle(a, b lipgloss.Style) bool {
	return a.Render("x") == b.Render("x")
}

func (v *View) inSelection(off int) bool {
	if !v.anchored {
		return false
	}
	lo, hi := min(v.anchor, v.cursor), max(v.anchor, v.cursor)
	return off >= lo && off <= hi
}

// renderPanel shows the draft being edited, or the annotation under the cursor.
func (v *View) renderPanel() string {
	switch v.mode {
	case modeKind:
		return v.renderKindPicker()
	case modeReplacement, modeNote:
		return v.styles.Subtitle.Render(v.kind.Label()) + "\n" +
			v.replacement.View() + "\n" + v.note.View()
	case modeBrowse:
	}

	a, ok := v.annotator.At(v.cursor)
	if !ok {
		return v.styles.Muted.Render(fmt.Sprintf("offset %d of %d", v.cursor, len(v.runes)))
	}
	var b strings.Builder
	b.WriteString(v.styles.Subtitle.Render(a.Kind.Label()))
	b.WriteString(" ")
	b.WriteString(v.styles.ForAnnotation(a).Render(a.OriginalText))
	if a.Replacement != "" {
		b.WriteString(" → ")
		b.WriteString(v.styles.Replacement.Render(a.Replacement))
	}
	if a.Note != "" {
		b.WriteString("\n")
		b.WriteString(v.styles.Note.Render(a.Note))
	}
	return b.String()
}

func (v *View) renderKindPicker() string {
	parts := make([]string, 0, len(domain.Kinds()))
	for i, k := range domain.Kinds() {
		label := fmt.Sprintf("[%d] %s", i+1, k.Label())
		if k == v.kind {
			label = v.styles.Selected.Render(label)
		}
		parts = append(parts, label)
	}
	return v.styles.Subtitle.Render("Kind") + "  " + strings.Join(parts, "  ") + "\n" +
		v.styles.Help.Render("[enter] keep  [esc] cancel")
}

// SetDimensions sets the view dimensions and wraps the text again.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.replacement.SetWidth(width)
	v.note.SetWidth(width)
	v.relayout()
}

// Cursor returns the cursor offset.
func (v *View) Cursor() int {
	return v.cursor
}

// Anchored reports whether a selection is open.
func (v *View) Anchored() bool {
	return v.anchored
}

// Editing reports whether a draft is being filled in.
func (v *View) Editing() bool {
	return v.mode != modeBrowse
}

// Kind returns the kind of the current draft.
func (v *View) Kind() domain.Kind {
	return v.kind
}

// Status returns the status bar.
func (v *View) Status() *status.Bar {
	return v.status
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
