package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/marginalia/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/marginalia/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/marginalia/internal/adapters/driving/tui/views/annotate"
	"github.com/custodia-labs/marginalia/internal/adapters/driving/tui/views/pages"
	"github.com/custodia-labs/marginalia/internal/adapters/driving/tui/views/subjects"
	"github.com/custodia-labs/marginalia/internal/core/domain"
	"github.com/custodia-labs/marginalia/internal/core/ports/driving"
)

// App is the main TUI application following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	// ports provides access to core services via driving ports.
	ports *Ports

	// ctx is the context for cancellation.
	ctx context.Context

	// styles holds the TUI styles.
	styles *styles.Styles

	// subjectsView lists texts and documents.
	subjectsView *subjects.View

	// annotateView is the text annotator surface.
	annotateView *annotate.View

	// pagesView shows document marks page by page.
	pagesView *pages.View

	// currentView tracks which view is active.
	currentView messages.ViewType

	// previousView is restored when help is closed.
	previousView messages.ViewType

	// readOnly opens every session without mutations.
	readOnly bool

	// startSubject is opened directly instead of showing the list.
	startSubject string

	// err holds the last error that occurred.
	err error

	// width and height are terminal dimensions.
	width  int
	height int

	// ready indicates if the app has initialised.
	ready bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a new TUI application with the given ports.
func NewApp(ports *Ports) (*App, error) {
	if ports == nil {
		return nil, ErrInvalidPorts
	}
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	return &App{
		ports:        ports,
		ctx:          context.Background(),
		styles:       s,
		subjectsView: subjects.NewView(s, ports.Review),
		annotateView: annotate.NewView(s),
		pagesView:    pages.NewView(s),
		currentView:  messages.ViewSubjects,
	}, nil
}

// WithContext sets the context for the app.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	a.subjectsView.WithContext(ctx)
	return a
}

// WithReadOnly opens sessions read-only.
func (a *App) WithReadOnly(readOnly bool) *App {
	a.readOnly = readOnly
	return a
}

// WithSubject opens the subject with the given ID on start.
func (a *App) WithSubject(id string) *App {
	a.startSubject = id
	return a
}

// Init implements tea.Model.
// It runs initial commands when the program starts.
func (a *App) Init() tea.Cmd {
	start := a.subjectsView.Init()
	if a.startSubject != "" {
		start = a.openByID(a.startSubject)
	}
	return tea.Batch(
		tea.EnterAltScreen,
		tea.SetWindowTitle("marginalia"),
		start,
	)
}

// openByID returns a command that looks a subject up and opens it.
func (a *App) openByID(id string) tea.Cmd {
	return func() tea.Msg {
		subject, err := a.ports.Review.Get(a.ctx, id)
		if err != nil {
			return messages.ErrorOccurred{Err: err}
		}
		return a.open(*subject)()
	}
}

// open returns a command that mounts the right annotator for subject.
func (a *App) open(subject domain.Subject) tea.Cmd {
	opts := driving.SessionOptions{ReadOnly: a.readOnly}
	return func() tea.Msg {
		if subject.Kind == domain.SubjectDocument {
			session, err := a.ports.Review.OpenDocument(a.ctx, subject.ID, opts)
			return messages.DocumentOpened{Session: session, Err: err}
		}
		session, err := a.ports.Review.OpenText(a.ctx, subject.ID, opts)
		return messages.TextOpened{Session: session, Err: err}
	}
}

// defaultKind returns the configured default annotation kind.
func (a *App) defaultKind() domain.Kind {
	if a.ports.Settings == nil {
		return ""
	}
	settings, err := a.ports.Settings.Get()
	if err != nil {
		return ""
	}
	return settings.Text.DefaultKind
}

// Update implements tea.Model.
// It handles messages and updates the model state.
//
//nolint:gocyclo // central message handler requires complexity
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		// Global quit with ctrl+c
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		a.err = nil

		switch a.currentView {
		case messages.ViewSubjects:
			a.subjectsView, cmd = a.subjectsView.Update(msg)
		case messages.ViewAnnotate:
			a.annotateView, cmd = a.annotateView.Update(msg)
		case messages.ViewPages:
			a.pagesView, cmd = a.pagesView.Update(msg)
		case messages.ViewHelp:
			// Any of esc, q or ? closes help
			switch msg.String() {
			case "esc", "q", "?":
				a.currentView = a.previousView
			}
		}
		return a, cmd

	case messages.ViewChanged:
		switch msg.View {
		case messages.ViewHelp:
			a.previousView = a.currentView
		case messages.ViewSubjects:
			a.currentView = msg.View
			return a, a.subjectsView.Init()
		case messages.ViewAnnotate, messages.ViewPages:
		}
		a.currentView = msg.View
		return a, nil

	case messages.SubjectSelected:
		return a, a.open(msg.Subject)

	case messages.TextOpened:
		if msg.Err != nil {
			a.err = msg.Err
			return a, nil
		}
		a.annotateView.SetSession(msg.Session, a.defaultKind())
		a.currentView = messages.ViewAnnotate
		return a, nil

	case messages.DocumentOpened:
		if msg.Err != nil {
			a.err = msg.Err
			return a, nil
		}
		a.pagesView.SetSession(msg.Session)
		a.currentView = messages.ViewPages
		return a, nil

	case messages.ErrorOccurred:
		a.err = msg.Err
		return a, nil

	case messages.Quit:
		return a, tea.Quit

	case messages.SubjectsLoaded, messages.SubjectRemoved:
		a.subjectsView, cmd = a.subjectsView.Update(msg)
		return a, cmd
	}

	return a, nil
}

// View implements tea.Model.
// It renders the current view as a string.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	var body string
	switch a.currentView {
	case messages.ViewAnnotate:
		body = a.annotateView.View()
	case messages.ViewPages:
		body = a.pagesView.View()
	case messages.ViewHelp:
		body = a.viewHelp()
	default:
		body = a.subjectsView.View()
	}

	if a.err != nil {
		body += "\n" + a.styles.Error.Render(fmt.Sprintf("Error: %s", a.err.Error()))
	}
	return body
}

// viewHelp renders the help view.
func (a *App) viewHelp() string {
	return `Help

Subjects:
  j/k, ↑/↓    Navigate
  enter       Open
  d           Delete
  r           Reload

Text:
  h/j/k/l     Move the cursor
  v           Start or drop a selection
  a           Annotate the selection, or the word under the cursor
  1-7         Pick the kind
  enter       Next field / save
  e           Edit the annotation under the cursor
  d           Delete the annotation under the cursor
  esc         Cancel / back

Document:
  n/p         Next / previous page
  +/-         Zoom
  s           Place a stamp
  j/k, x      Select and erase a mark

  ctrl+c      Quit

[esc] close help`
}

// Run starts the TUI application.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen(), tea.WithContext(a.ctx))
	_, err := p.Run()
	return err
}

// CurrentView returns the current view type.
func (a *App) CurrentView() messages.ViewType {
	return a.currentView
}

// Err returns the last error that occurred.
func (a *App) Err() error {
	return a.err
}

// Ready returns whether the app has been initialised.
func (a *App) Ready() bool {
	return a.ready
}

// SetDimensions sets the terminal dimensions on every view.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true
	a.subjectsView.SetDimensions(width, height)
	a.annotateView.SetDimensions(width, height)
	a.pagesView.SetDimensions(width, height)
}
