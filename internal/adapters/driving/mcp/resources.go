package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/marginalia/internal/core/domain"
	"github.com/custodia-labs/marginalia/internal/core/ports/driving"
)

const (
	// uriScheme is the custom URI scheme for Marginalia resources.
	uriScheme = "marginalia://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	// Static resource for listing subjects.
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "subjects",
		Name:        "subjects",
		Description: "All reviewed texts and documents",
		MIMEType:    "application/json",
	}, s.handleSubjectsResource)

	// Template for one subject with its annotations or marks.
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "subjects/{subjectId}",
		Name:        "subject",
		Description: "A subject with its text and annotations, or its marks for a document",
		MIMEType:    "application/json",
	}, s.handleSubjectResource)
}

// subjectInfo is the summary of a subject in the subjects listing.
type subjectInfo struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Kind      string `json:"kind"`
	PageCount int    `json:"page_count,omitempty"`
	URI       string `json:"uri"`
}

// subjectDetail is the full view of one subject.
type subjectDetail struct {
	ID          string             `json:"id"`
	Title       string             `json:"title"`
	Kind        string             `json:"kind"`
	Text        string             `json:"text,omitempty"`
	Stale       bool               `json:"stale,omitempty"`
	PageCount   int                `json:"page_count,omitempty"`
	Annotations []AnnotationOutput `json:"annotations,omitempty"`
	Marks       []MarkOutput       `json:"marks,omitempty"`
}

// handleSubjectsResource returns a list of all subjects.
func (s *Server) handleSubjectsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	subjects, err := s.ports.Review.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing subjects: %w", err)
	}

	infos := make([]subjectInfo, len(subjects))
	for i := range subjects {
		infos[i] = subjectInfo{
			ID:        subjects[i].ID,
			Title:     subjects[i].Title,
			Kind:      string(subjects[i].Kind),
			PageCount: subjects[i].PageCount,
			URI:       uriScheme + "subjects/" + subjects[i].ID,
		}
	}

	return jsonResult(req.Params.URI, infos)
}

// handleSubjectResource returns one subject with its annotations or marks.
func (s *Server) handleSubjectResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	// Extract subjectId from URI: marginalia://subjects/{subjectId}
	subjectID := extractSubjectID(req.Params.URI)
	if subjectID == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	subject, err := s.ports.Review.Get(ctx, subjectID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	if err != nil {
		return nil, fmt.Errorf("getting subject: %w", err)
	}

	detail := subjectDetail{
		ID:        subject.ID,
		Title:     subject.Title,
		Kind:      string(subject.Kind),
		PageCount: subject.PageCount,
	}

	readOnly := driving.SessionOptions{ReadOnly: true}
	switch subject.Kind {
	case domain.SubjectDocument:
		session, err := s.ports.Review.OpenDocument(ctx, subjectID, readOnly)
		if err != nil {
			return nil, fmt.Errorf("opening document: %w", err)
		}
		marks := session.Annotator().Marks()
		detail.Marks = make([]MarkOutput, len(marks))
		for i := range marks {
			detail.Marks[i] = toMarkOutput(&marks[i])
		}
	default:
		session, err := s.ports.Review.OpenText(ctx, subjectID, readOnly)
		if err != nil {
			return nil, fmt.Errorf("opening subject: %w", err)
		}
		detail.Text = session.Subject().Text
		detail.Stale = session.Stale()
		annotations := session.Annotator().Annotations()
		detail.Annotations = make([]AnnotationOutput, len(annotations))
		for i := range annotations {
			detail.Annotations[i] = toAnnotationOutput(&annotations[i])
		}
	}

	return jsonResult(req.Params.URI, detail)
}

func jsonResult(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling resource: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractSubjectID extracts the subject ID from a URI like marginalia://subjects/{subjectId}.
func extractSubjectID(uri string) string {
	const prefix = uriScheme + "subjects/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	id := strings.TrimPrefix(uri, prefix)
	if strings.Contains(id, "/") {
		return ""
	}
	return id
}
