// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/custodia-labs/marginalia/internal/core/domain"
	"github.com/custodia-labs/marginalia/internal/core/ports/driving"
)

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewSubjects lists texts and documents.
	ViewSubjects ViewType = iota
	// ViewAnnotate is the text annotator.
	ViewAnnotate
	// ViewPages shows the marks of a document page by page.
	ViewPages
	// ViewHelp is the help/keybindings view.
	ViewHelp
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewSubjects:
		return "subjects"
	case ViewAnnotate:
		return "annotate"
	case ViewPages:
		return "pages"
	case ViewHelp:
		return "help"
	default:
		return "unknown"
	}
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}

// SubjectsLoaded carries the list of subjects from the service.
type SubjectsLoaded struct {
	Subjects []domain.Subject
	Err      error
}

// SubjectRemoved signals a subject was removed.
type SubjectRemoved struct {
	ID  string
	Err error
}

// SubjectSelected signals a subject was chosen for annotation.
type SubjectSelected struct {
	Subject domain.Subject
}

// TextOpened carries a mounted text annotator.
type TextOpened struct {
	Session driving.TextSession
	Err     error
}

// DocumentOpened carries a mounted spatial annotator.
type DocumentOpened struct {
	Session driving.DocumentSession
	Err     error
}
