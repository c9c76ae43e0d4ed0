package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/marginalia/internal/core/domain"
	"github.com/custodia-labs/marginalia/internal/core/geometry"
	"github.com/custodia-labs/marginalia/internal/core/ports/driving"
	"github.com/custodia-labs/marginalia/internal/core/services"
)

// SubjectInput selects a subject.
type SubjectInput struct {
	SubjectID string `json:"subject_id" jsonschema:"the subject ID, see the marginalia://subjects resource"`
}

// AnnotationOutput is one annotation.
type AnnotationOutput struct {
	ID           string `json:"id"`
	Start        int    `json:"start"`
	End          int    `json:"end"`
	Kind         string `json:"kind"`
	OriginalText string `json:"original_text"`
	Replacement  string `json:"replacement,omitempty"`
	Note         string `json:"note,omitempty"`
}

// ListAnnotationsOutput is the output schema for the list_annotations tool.
type ListAnnotationsOutput struct {
	SubjectID   string             `json:"subject_id"`
	Title       string             `json:"title"`
	Stale       bool               `json:"stale"`
	Annotations []AnnotationOutput `json:"annotations"`
	Count       int                `json:"count"`
}

// AddAnnotationInput is the input schema for the add_annotation tool.
type AddAnnotationInput struct {
	SubjectID   string `json:"subject_id" jsonschema:"the subject to annotate"`
	Phrase      string `json:"phrase,omitempty" jsonschema:"annotate an occurrence of this exact phrase"`
	Occurrence  int    `json:"occurrence,omitempty" jsonschema:"which occurrence of phrase, 1-based (default 1)"`
	Start       *int   `json:"start,omitempty" jsonschema:"start character offset, used when phrase is empty"`
	End         *int   `json:"end,omitempty" jsonschema:"end character offset (exclusive), used when phrase is empty"`
	Kind        string `json:"kind,omitempty" jsonschema:"grammar, vocabulary, spelling, style, coherence, suggestion or comment"`
	Replacement string `json:"replacement,omitempty" jsonschema:"the corrected text"`
	Note        string `json:"note,omitempty" jsonschema:"an explanation for the writer"`
}

// UpdateAnnotationInput is the input schema for the update_annotation tool.
type UpdateAnnotationInput struct {
	SubjectID    string  `json:"subject_id"`
	AnnotationID string  `json:"annotation_id"`
	Kind         *string `json:"kind,omitempty" jsonschema:"new kind, unchanged when omitted"`
	Replacement  *string `json:"replacement,omitempty" jsonschema:"new replacement, unchanged when omitted"`
	Note         *string `json:"note,omitempty" jsonschema:"new note, unchanged when omitted"`
}

// AnnotationResult wraps a single annotation.
type AnnotationResult struct {
	Annotation AnnotationOutput `json:"annotation"`
}

// DeleteAnnotationInput is the input schema for the delete_annotation tool.
type DeleteAnnotationInput struct {
	SubjectID    string `json:"subject_id"`
	AnnotationID string `json:"annotation_id"`
}

// DeleteAnnotationOutput reports whether an annotation was removed.
type DeleteAnnotationOutput struct {
	Deleted bool `json:"deleted"`
}

// RenderTextOutput is the output schema for the render_text tool.
type RenderTextOutput struct {
	Text  string   `json:"text"`
	Notes []string `json:"notes,omitempty"`
}

// ListMarksInput is the input schema for the list_marks tool.
type ListMarksInput struct {
	SubjectID string `json:"subject_id"`
	Page      int    `json:"page,omitempty" jsonschema:"only marks of this 1-based page"`
}

// MarkOutput is one mark in document units.
type MarkOutput struct {
	ID      string         `json:"id"`
	Page    int            `json:"page"`
	Kind    string         `json:"kind"`
	Points  []domain.Point `json:"points,omitempty"`
	X       float64        `json:"x,omitempty"`
	Y       float64        `json:"y,omitempty"`
	Content string         `json:"content,omitempty"`
	Color   string         `json:"color"`
}

// ListMarksOutput is the output schema for the list_marks tool.
type ListMarksOutput struct {
	Marks []MarkOutput `json:"marks"`
	Count int          `json:"count"`
}

// AddStampInput is the input schema for the add_stamp tool.
type AddStampInput struct {
	SubjectID string  `json:"subject_id"`
	Page      int     `json:"page" jsonschema:"1-based page number"`
	X         float64 `json:"x" jsonschema:"horizontal position in PDF points from the left edge"`
	Y         float64 `json:"y" jsonschema:"vertical position in PDF points from the top edge"`
	Text      string  `json:"text" jsonschema:"the stamp text"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_annotations",
		Description: "List the annotations of a text subject in insertion order",
	}, s.handleListAnnotations)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "add_annotation",
		Description: "Annotate a range of a text subject, given as a phrase or as character offsets",
	}, s.handleAddAnnotation)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "update_annotation",
		Description: "Change the kind, replacement or note of an annotation; the range never changes",
	}, s.handleUpdateAnnotation)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "delete_annotation",
		Description: "Delete an annotation",
	}, s.handleDeleteAnnotation)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "render_text",
		Description: `Render a text subject with annotations bracketed, e.g. "Yo [tiene → tengo|grammar] un gato"`,
	}, s.handleRenderText)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_marks",
		Description: "List the freehand marks and text stamps of a document subject",
	}, s.handleListMarks)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "add_stamp",
		Description: "Place a text stamp on a page of a document subject",
	}, s.handleAddStamp)
}

func (s *Server) openText(ctx context.Context, id string, readOnly bool) (driving.TextSession, error) {
	session, err := s.ports.Review.OpenText(ctx, id, driving.SessionOptions{ReadOnly: readOnly})
	if err != nil {
		return nil, fmt.Errorf("opening subject %s: %w", id, err)
	}
	return session, nil
}

func (s *Server) handleListAnnotations(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SubjectInput,
) (*mcp.CallToolResult, ListAnnotationsOutput, error) {
	session, err := s.openText(ctx, input.SubjectID, true)
	if err != nil {
		return nil, ListAnnotationsOutput{}, err
	}

	annotations := session.Annotator().Annotations()
	output := ListAnnotationsOutput{
		SubjectID:   input.SubjectID,
		Title:       session.Subject().Title,
		Stale:       session.Stale(),
		Annotations: make([]AnnotationOutput, len(annotations)),
		Count:       len(annotations),
	}
	for i := range annotations {
		output.Annotations[i] = toAnnotationOutput(&annotations[i])
	}
	return nil, output, nil
}

func (s *Server) handleAddAnnotation(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AddAnnotationInput,
) (*mcp.CallToolResult, AnnotationResult, error) {
	session, err := s.openText(ctx, input.SubjectID, false)
	if err != nil {
		return nil, AnnotationResult{}, err
	}
	annotator := session.Annotator()

	start, end, err := resolveRange(annotator.Text(), input)
	if err != nil {
		return nil, AnnotationResult{}, err
	}

	surface := geometry.NewSegmentMap([]domain.Segment{{ID: 0, Text: annotator.Text()}})
	sel := domain.Selection{
		Anchor: domain.SurfacePosition{Segment: 0, Offset: start},
		Focus:  domain.SurfacePosition{Segment: 0, Offset: end},
	}
	if _, ok := annotator.CaptureSelection(surface, sel); !ok {
		return nil, AnnotationResult{}, fmt.Errorf("range [%d, %d) is empty or outside the text: %w",
			start, end, domain.ErrNoSelection)
	}

	kind, err := s.resolveKind(input.Kind)
	if err != nil {
		return nil, AnnotationResult{}, err
	}

	a, err := annotator.Create(kind, input.Replacement, input.Note)
	if err != nil {
		return nil, AnnotationResult{}, err
	}
	if err := session.Err(); err != nil {
		return nil, AnnotationResult{}, fmt.Errorf("saving annotation: %w", err)
	}
	return nil, AnnotationResult{Annotation: toAnnotationOutput(a)}, nil
}

func (s *Server) handleUpdateAnnotation(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input UpdateAnnotationInput,
) (*mcp.CallToolResult, AnnotationResult, error) {
	session, err := s.openText(ctx, input.SubjectID, false)
	if err != nil {
		return nil, AnnotationResult{}, err
	}
	annotator := session.Annotator()

	current, ok := annotator.Get(input.AnnotationID)
	if !ok {
		return nil, AnnotationResult{}, fmt.Errorf("annotation %s: %w", input.AnnotationID, domain.ErrNotFound)
	}

	kind, replacement, note := current.Kind, current.Replacement, current.Note
	if input.Kind != nil {
		kind = domain.Kind(*input.Kind)
	}
	if input.Replacement != nil {
		replacement = *input.Replacement
	}
	if input.Note != nil {
		note = *input.Note
	}

	a, err := annotator.Update(current.ID, kind, replacement, note)
	if err != nil {
		return nil, AnnotationResult{}, err
	}
	if err := session.Err(); err != nil {
		return nil, AnnotationResult{}, fmt.Errorf("saving annotation: %w", err)
	}
	return nil, AnnotationResult{Annotation: toAnnotationOutput(a)}, nil
}

func (s *Server) handleDeleteAnnotation(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input DeleteAnnotationInput,
) (*mcp.CallToolResult, DeleteAnnotationOutput, error) {
	session, err := s.openText(ctx, input.SubjectID, false)
	if err != nil {
		return nil, DeleteAnnotationOutput{}, err
	}
	annotator := session.Annotator()

	if _, ok := annotator.Get(input.AnnotationID); !ok {
		return nil, DeleteAnnotationOutput{Deleted: false}, nil
	}
	if err := annotator.Delete(input.AnnotationID); err != nil {
		return nil, DeleteAnnotationOutput{}, err
	}
	if err := session.Err(); err != nil {
		return nil, DeleteAnnotationOutput{}, fmt.Errorf("saving annotations: %w", err)
	}
	return nil, DeleteAnnotationOutput{Deleted: true}, nil
}

func (s *Server) handleRenderText(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SubjectInput,
) (*mcp.CallToolResult, RenderTextOutput, error) {
	session, err := s.openText(ctx, input.SubjectID, true)
	if err != nil {
		return nil, RenderTextOutput{}, err
	}
	annotator := session.Annotator()

	output := RenderTextOutput{Text: services.PlainMarkup(annotator.Render())}
	for _, a := range annotator.Annotations() {
		if a.Note != "" {
			output.Notes = append(output.Notes, fmt.Sprintf("%s (%s): %s", a.OriginalText, a.Kind, a.Note))
		}
	}
	return nil, output, nil
}

func (s *Server) handleListMarks(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ListMarksInput,
) (*mcp.CallToolResult, ListMarksOutput, error) {
	session, err := s.ports.Review.OpenDocument(ctx, input.SubjectID, driving.SessionOptions{ReadOnly: true})
	if err != nil {
		return nil, ListMarksOutput{}, fmt.Errorf("opening document %s: %w", input.SubjectID, err)
	}
	annotator := session.Annotator()

	marks := annotator.Marks()
	if input.Page > 0 {
		marks = annotator.MarksOnPage(input.Page)
	}

	output := ListMarksOutput{Marks: make([]MarkOutput, len(marks)), Count: len(marks)}
	for i := range marks {
		output.Marks[i] = toMarkOutput(&marks[i])
	}
	return nil, output, nil
}

func (s *Server) handleAddStamp(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AddStampInput,
) (*mcp.CallToolResult, MarkOutput, error) {
	session, err := s.ports.Review.OpenDocument(ctx, input.SubjectID, driving.SessionOptions{})
	if err != nil {
		return nil, MarkOutput{}, fmt.Errorf("opening document %s: %w", input.SubjectID, err)
	}
	annotator := session.Annotator()

	if input.Page < 1 || input.Page > annotator.PageCount() {
		return nil, MarkOutput{}, fmt.Errorf("page %d of %d: %w", input.Page, annotator.PageCount(), domain.ErrInvalidPage)
	}

	if strings.TrimSpace(input.Text) == "" {
		return nil, MarkOutput{}, fmt.Errorf("empty stamp text: %w", domain.ErrInvalidInput)
	}
	if err := annotator.SetPage(input.Page); err != nil {
		return nil, MarkOutput{}, err
	}
	if err := annotator.SelectTool(domain.ToolStamp); err != nil {
		return nil, MarkOutput{}, err
	}

	// An identity viewport makes the pointer position the document position.
	annotator.SetViewport(domain.Point{}, 1)
	out := annotator.HandlePointer(domain.PointerEvent{
		Type: domain.PointerDown,
		At:   domain.Point{X: input.X, Y: input.Y},
	})
	if out.Ignored || out.Stamp == nil {
		return nil, MarkOutput{}, fmt.Errorf("page %d: %w", input.Page, domain.ErrPageNotReady)
	}
	m, ok := annotator.CommitStamp(*out.Stamp, input.Text)
	if !ok {
		return nil, MarkOutput{}, fmt.Errorf("empty stamp text: %w", domain.ErrInvalidInput)
	}
	if err := session.Err(); err != nil {
		return nil, MarkOutput{}, fmt.Errorf("saving mark: %w", err)
	}
	return nil, toMarkOutput(m), nil
}

func (s *Server) resolveKind(value string) (domain.Kind, error) {
	if value == "" {
		if s.ports.Settings != nil {
			if settings, err := s.ports.Settings.Get(); err == nil {
				return settings.Text.DefaultKind, nil
			}
		}
		return domain.KindGrammar, nil
	}
	kind := domain.Kind(value)
	if !kind.IsValid() {
		return "", fmt.Errorf("unknown kind %q: %w", value, domain.ErrInvalidInput)
	}
	return kind, nil
}

func resolveRange(text string, input AddAnnotationInput) (int, int, error) {
	if input.Phrase != "" {
		occurrence := input.Occurrence
		if occurrence <= 0 {
			occurrence = 1
		}
		start, end, ok := geometry.FindPhrase(text, input.Phrase, occurrence)
		if !ok {
			return 0, 0, fmt.Errorf("phrase %q (occurrence %d) not found: %w",
				input.Phrase, occurrence, domain.ErrNoSelection)
		}
		return start, end, nil
	}
	if input.Start == nil || input.End == nil {
		return 0, 0, fmt.Errorf("give a phrase or both start and end: %w", domain.ErrInvalidInput)
	}
	return *input.Start, *input.End, nil
}

func toAnnotationOutput(a *domain.Annotation) AnnotationOutput {
	return AnnotationOutput{
		ID:           a.ID,
		Start:        a.Start,
		End:          a.End,
		Kind:         a.Kind.String(),
		OriginalText: a.OriginalText,
		Replacement:  a.Replacement,
		Note:         a.Note,
	}
}

func toMarkOutput(m *domain.Mark) MarkOutput {
	return MarkOutput{
		ID:      m.ID,
		Page:    m.Page,
		Kind:    string(m.Kind),
		Points:  m.Points,
		X:       m.X,
		Y:       m.Y,
		Content: m.Content,
		Color:   m.Color,
	}
}
