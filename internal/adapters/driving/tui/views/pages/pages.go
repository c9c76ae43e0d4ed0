// Package pages provides the document page view for the TUI.
package pages

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/marginalia/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/marginalia/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/marginalia/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/marginalia/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/marginalia/internal/core/domain"
	"github.com/custodia-labs/marginalia/internal/core/ports/driving"
)

// stampMargin is where new stamps are placed, in document units from the
// page corner. Each stamp on a page moves the next one down by stampStep.
const (
	stampMargin = 36.0
	stampStep   = 18.0
)

// View lists the marks of a document one page at a time. Stamps are
// placed and marks erased through the spatial annotator's pointer flow.
type View struct {
	styles *styles.Styles
	keymap *keymap.KeyMap

	session   driving.DocumentSession
	annotator driving.SpatialAnnotator
	selected  int
	stamp     *domain.StampRequest
	input     *input.Field
	message   string
	err       error

	width  int
	height int
}

// NewView creates an empty pages view.
func NewView(s *styles.Styles) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		styles: s,
		keymap: keymap.DefaultKeyMap(),
		input:  input.NewField(s, "Stamp", "text to place on the page"),
		width:  80,
		height: 24,
	}
}

// SetSession mounts a document session on its first page.
func (v *View) SetSession(session driving.DocumentSession) {
	v.session = session
	v.annotator = session.Annotator()
	v.selected = 0
	v.stamp = nil
	v.message = ""
	v.err = nil
	v.input.Blur()
	v.input.Reset()
}

// Init implements the view lifecycle.
func (v *View) Init() tea.Cmd {
	return nil
}

// Update handles messages for the pages view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil
	case tea.KeyMsg:
		if v.annotator == nil {
			return v, nil
		}
		if v.stamp != nil {
			return v.handleStampKey(msg)
		}
		return v.handleKey(msg)
	}
	return v, nil
}

func (v *View) handleKey(msg tea.KeyMsg) (*View, tea.Cmd) {
	v.message, v.err = "", nil

	key := msg.String()
	switch {
	case keymap.Matches(key, v.keymap.NextPage):
		v.turn(v.annotator.Page() + 1)
	case keymap.Matches(key, v.keymap.PrevPage):
		v.turn(v.annotator.Page() - 1)
	case keymap.Matches(key, v.keymap.Up):
		if v.selected > 0 {
			v.selected--
		}
	case keymap.Matches(key, v.keymap.Down):
		if v.selected < len(v.annotator.MarksOnPage(v.annotator.Page()))-1 {
			v.selected++
		}
	case key == "+":
		v.zoom(2)
	case key == "-":
		v.zoom(0.5)
	case key == "s":
		return v, v.beginStamp()
	case key == "x":
		v.eraseSelected()
	case keymap.Matches(key, v.keymap.Back):
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewSubjects}
		}
	case keymap.Matches(key, v.keymap.Quit):
		return v, func() tea.Msg { return messages.Quit{} }
	}
	return v, nil
}

func (v *View) turn(page int) {
	if err := v.annotator.SetPage(page); err != nil {
		v.err = err
		return
	}
	v.selected = 0
}

func (v *View) zoom(factor float64) {
	vp := v.annotator.Viewport()
	v.annotator.SetViewport(vp.Origin, vp.Zoom*factor)
}

// beginStamp presses the stamp tool at the next free slot of the page.
func (v *View) beginStamp() tea.Cmd {
	if err := v.annotator.SelectTool(domain.ToolStamp); err != nil {
		v.err = err
		return nil
	}
	slot := domain.Point{
		X: stampMargin,
		Y: stampMargin + stampStep*float64(len(v.annotator.MarksOnPage(v.annotator.Page()))),
	}
	at := v.annotator.Viewport().ToViewport(slot)

	outcome := v.annotator.HandlePointer(domain.PointerEvent{Type: domain.PointerDown, At: at})
	if outcome.Ignored || outcome.Stamp == nil {
		_ = v.annotator.SelectTool(domain.ToolMove)
		v.err = fmt.Errorf("page %d: %w", v.annotator.Page(), domain.ErrPageNotReady)
		return nil
	}

	v.stamp = outcome.Stamp
	v.input.Reset()
	return v.input.Focus()
}

func (v *View) handleStampKey(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		v.annotator.CancelStamp()
		_ = v.annotator.SelectTool(domain.ToolMove)
		v.endStamp()
		return v, nil
	case tea.KeyEnter:
		m, ok := v.annotator.CommitStamp(*v.stamp, v.input.Value())
		v.endStamp()
		if !ok {
			v.message = "empty stamp discarded"
			return v, nil
		}
		if err := v.session.Err(); err != nil {
			v.err = err
			return v, nil
		}
		v.message = fmt.Sprintf("Placed %q on page %d", m.Content, m.Page)
		return v, nil
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

func (v *View) endStamp() {
	v.stamp = nil
	v.input.Blur()
	v.input.Reset()
}

// eraseSelected presses the erase tool on the selected mark.
func (v *View) eraseSelected() {
	marks := v.annotator.MarksOnPage(v.annotator.Page())
	if v.selected >= len(marks) {
		return
	}
	target := marks[v.selected]

	if err := v.annotator.SelectTool(domain.ToolErase); err != nil {
		v.err = err
		return
	}
	defer func() { _ = v.annotator.SelectTool(domain.ToolMove) }()

	at := v.annotator.Viewport().ToViewport(anchorOf(target))
	outcome := v.annotator.HandlePointer(domain.PointerEvent{Type: domain.PointerDown, At: at})
	if outcome.Erased == "" {
		v.message = "nothing to erase"
		return
	}
	if err := v.session.Err(); err != nil {
		v.err = err
		return
	}
	v.message = "Erased mark"
	v.selected = max(0, min(v.selected, len(marks)-2))
}

// anchorOf returns a point that hits m.
func anchorOf(m domain.Mark) domain.Point {
	if m.Kind == domain.MarkPath && len(m.Points) > 0 {
		return m.Points[0]
	}
	return domain.Point{X: m.X, Y: m.Y}
}

// View renders the pages view.
func (v *View) View() string {
	if v.annotator == nil {
		return v.styles.Muted.Render("No document open.")
	}

	var b strings.Builder
	b.WriteString(v.styles.Title.Render(v.session.Subject().Title))
	b.WriteString(v.styles.Muted.Render(fmt.Sprintf("  page %d of %d  zoom %.2gx",
		v.annotator.Page(), v.annotator.PageCount(), v.annotator.Viewport().Zoom)))
	b.WriteString("\n\n")

	marks := v.annotator.MarksOnPage(v.annotator.Page())
	if len(marks) == 0 {
		b.WriteString(v.styles.Muted.Render("No marks on this page."))
		b.WriteString("\n")
	}
	for i := range marks {
		b.WriteString(v.renderMark(i, &marks[i]))
		b.WriteString("\n")
	}

	scene := v.annotator.Render()
	b.WriteString("\n")
	b.WriteString(v.styles.Muted.Render(fmt.Sprintf("%d strokes, %d stamps in view",
		len(scene.Strokes), len(scene.Stamps))))
	b.WriteString("\n")

	switch {
	case v.stamp != nil:
		b.WriteString(v.input.View())
	case v.err != nil:
		b.WriteString(v.styles.Error.Render(fmt.Sprintf("Error: %s", v.err.Error())))
	case v.message != "":
		b.WriteString(v.styles.Success.Render(v.message))
	default:
		b.WriteString(v.styles.Help.Render("[n/p] page  [+/-] zoom  [s] stamp  [x] erase  [esc] back  [q] quit"))
	}
	return b.String()
}

func (v *View) renderMark(index int, m *domain.Mark) string {
	indicator := "  "
	if index == v.selected {
		indicator = "> "
	}

	var desc string
	switch m.Kind {
	case domain.MarkStamp:
		desc = fmt.Sprintf("stamp %q at (%.0f, %.0f)", m.Content, m.X, m.Y)
	default:
		desc = fmt.Sprintf("path of %d points from (%.0f, %.0f)", len(m.Points), anchorOf(*m).X, anchorOf(*m).Y)
	}

	if index == v.selected {
		return v.styles.Selected.Render(indicator + desc)
	}
	return v.styles.Normal.Render(indicator+desc) + " " + v.styles.Muted.Render(m.Color)
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.input.SetWidth(width)
}

// Stamping reports whether a stamp prompt is open.
func (v *View) Stamping() bool {
	return v.stamp != nil
}

// Message returns the last status message.
func (v *View) Message() string {
	return v.message
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
