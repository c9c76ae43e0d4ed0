package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/marginalia/internal/core/domain"
	"github.com/custodia-labs/marginalia/internal/core/ports/driven"
	"github.com/custodia-labs/marginalia/internal/core/ports/driving"
	"github.com/custodia-labs/marginalia/internal/logger"
)

// Ensure ReviewService implements the interface.
var _ driving.ReviewService = (*ReviewService)(nil)

// ReviewService stores subjects and mounts annotators over them. It is the
// host side of the annotators: it seeds them from the store and saves the
// entire list back after every mutation.
type ReviewService struct {
	store    driven.AnnotationStore
	digester driven.Digester
	pages    driven.PageSource
	settings driving.SettingsService
	codec    driven.BundleCodec
	watcher  driven.StoreWatcher
}

// NewReviewService creates a new review service.
// digester, pages, settings, codec and watcher may be nil.
func NewReviewService(
	store driven.AnnotationStore,
	digester driven.Digester,
	pages driven.PageSource,
	settings driving.SettingsService,
	codec driven.BundleCodec,
	watcher driven.StoreWatcher,
) *ReviewService {
	return &ReviewService{
		store:    store,
		digester: digester,
		pages:    pages,
		settings: settings,
		codec:    codec,
		watcher:  watcher,
	}
}

// AddText stores a new text subject.
func (s *ReviewService) AddText(ctx context.Context, title, text string) (*domain.Subject, error) {
	if s.store == nil {
		return nil, domain.ErrNotImplemented
	}
	if text == "" {
		return nil, fmt.Errorf("empty text: %w", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(title) == "" {
		title = firstLine(text)
	}

	now := time.Now()
	subject := &domain.Subject{
		ID:        uuid.New().String(),
		Title:     title,
		Kind:      domain.SubjectText,
		Text:      text,
		Digest:    s.digest(text),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.SaveSubject(ctx, subject); err != nil {
		return nil, fmt.Errorf("save subject: %w", err)
	}
	logger.Debug("added text subject %s (%d bytes)", subject.ID, len(text))
	return subject, nil
}

// AddDocument stores a new document subject. The page count is read from
// the document when the subject is added.
func (s *ReviewService) AddDocument(ctx context.Context, title, path string) (*domain.Subject, error) {
	if s.store == nil || s.pages == nil {
		return nil, domain.ErrNotImplemented
	}
	geo, err := s.pages.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open document %s: %w", path, err)
	}
	if geo.PageCount() < 1 {
		return nil, fmt.Errorf("document %s has no pages: %w", path, domain.ErrInvalidInput)
	}
	if strings.TrimSpace(title) == "" {
		title = filepath.Base(path)
	}

	now := time.Now()
	subject := &domain.Subject{
		ID:           uuid.New().String(),
		Title:        title,
		Kind:         domain.SubjectDocument,
		DocumentPath: path,
		PageCount:    geo.PageCount(),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.SaveSubject(ctx, subject); err != nil {
		return nil, fmt.Errorf("save subject: %w", err)
	}
	logger.Debug("added document subject %s with %d pages", subject.ID, subject.PageCount)
	return subject, nil
}

// List returns all subjects.
func (s *ReviewService) List(ctx context.Context) ([]domain.Subject, error) {
	if s.store == nil {
		return nil, domain.ErrNotImplemented
	}
	return s.store.ListSubjects(ctx)
}

// Get retrieves a subject by ID.
func (s *ReviewService) Get(ctx context.Context, id string) (*domain.Subject, error) {
	if s.store == nil {
		return nil, domain.ErrNotImplemented
	}
	return s.store.GetSubject(ctx, id)
}

// Remove deletes a subject with its annotations and marks.
func (s *ReviewService) Remove(ctx context.Context, id string) error {
	if s.store == nil {
		return domain.ErrNotImplemented
	}
	if _, err := s.store.GetSubject(ctx, id); err != nil {
		return err
	}
	return s.store.DeleteSubject(ctx, id)
}

// OpenText mounts a text annotator over a text subject.
func (s *ReviewService) OpenText(ctx context.Context, id string, opts driving.SessionOptions) (driving.TextSession, error) {
	subject, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if subject.Kind != domain.SubjectText {
		return nil, fmt.Errorf("subject %s is a %s: %w", id, subject.Kind, domain.ErrUnsupportedType)
	}
	annotations, err := s.store.GetAnnotations(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load annotations: %w", err)
	}

	settings := s.currentSettings()
	session := &textSession{
		persister: persister{ctx: context.WithoutCancel(ctx), store: s.store, subjectID: id},
		subject:   *subject,
		stale:     s.isStale(subject),
	}
	if session.stale {
		logger.Warn("subject %s text changed since it was stored; offsets may drift", id)
	}
	session.annotator = NewTextAnnotator(subject.Text, annotations, TextAnnotatorOptions{
		Style:    settings.Text.Style,
		ReadOnly: opts.ReadOnly,
		Listener: session,
	})
	return session, nil
}

// OpenDocument mounts a spatial annotator over a document subject.
func (s *ReviewService) OpenDocument(ctx context.Context, id string, opts driving.SessionOptions) (driving.DocumentSession, error) {
	subject, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if subject.Kind != domain.SubjectDocument {
		return nil, fmt.Errorf("subject %s is a %s: %w", id, subject.Kind, domain.ErrUnsupportedType)
	}
	if s.pages == nil {
		return nil, domain.ErrNotImplemented
	}
	geo, err := s.pages.Open(subject.DocumentPath)
	if err != nil {
		return nil, fmt.Errorf("open document %s: %w", subject.DocumentPath, err)
	}
	marks, err := s.store.GetMarks(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load marks: %w", err)
	}

	settings := s.currentSettings()
	session := &documentSession{
		persister: persister{ctx: context.WithoutCancel(ctx), store: s.store, subjectID: id},
		subject:   *subject,
	}
	session.annotator = NewSpatialAnnotator(geo, marks, SpatialAnnotatorOptions{
		ReadOnly:       opts.ReadOnly,
		Listener:       session,
		Color:          settings.Spatial.Color,
		StrokeWidth:    settings.Spatial.StrokeWidth,
		EraseThreshold: settings.Spatial.EraseThreshold,
		Zoom:           settings.Spatial.DefaultZoom,
	})
	return session, nil
}

// Export writes a subject bundle to w.
func (s *ReviewService) Export(ctx context.Context, id string, w io.Writer, compress bool) error {
	if s.codec == nil {
		return domain.ErrNotImplemented
	}
	subject, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	annotations, err := s.store.GetAnnotations(ctx, id)
	if err != nil {
		return fmt.Errorf("load annotations: %w", err)
	}
	marks, err := s.store.GetMarks(ctx, id)
	if err != nil {
		return fmt.Errorf("load marks: %w", err)
	}

	if subject.Kind == domain.SubjectText && subject.Digest == "" {
		subject.Digest = s.digest(subject.Text)
	}
	bundle := &domain.Bundle{
		Version:     domain.BundleVersion,
		Subject:     *subject,
		Annotations: annotations,
		Marks:       marks,
	}
	if err := s.codec.Encode(w, bundle, compress); err != nil {
		return fmt.Errorf("encode bundle: %w", err)
	}
	return nil
}

// Import reads a bundle and stores its subject with both lists verbatim.
func (s *ReviewService) Import(ctx context.Context, r io.Reader) (*domain.Subject, error) {
	if s.codec == nil || s.store == nil {
		return nil, domain.ErrNotImplemented
	}
	bundle, err := s.codec.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decode bundle: %w", err)
	}
	if bundle.Version < 1 || bundle.Version > domain.BundleVersion {
		return nil, fmt.Errorf("bundle version %d: %w", bundle.Version, domain.ErrUnsupportedType)
	}

	subject := bundle.Subject
	if subject.ID == "" || !subject.Kind.IsValid() {
		return nil, fmt.Errorf("bundle subject: %w", domain.ErrInvalidInput)
	}
	if subject.Kind == domain.SubjectText && s.isStale(&subject) {
		return nil, fmt.Errorf("subject %s: %w", subject.ID, domain.ErrDigestMismatch)
	}
	if _, err := s.store.GetSubject(ctx, subject.ID); err == nil {
		return nil, fmt.Errorf("subject %s: %w", subject.ID, domain.ErrAlreadyExists)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	subject.UpdatedAt = time.Now()
	if err := s.store.SaveSubject(ctx, &subject); err != nil {
		return nil, fmt.Errorf("save subject: %w", err)
	}
	if err := s.store.SaveAnnotations(ctx, subject.ID, bundle.Annotations); err != nil {
		s.rollbackImport(ctx, subject.ID)
		return nil, fmt.Errorf("save annotations: %w", err)
	}
	if err := s.store.SaveMarks(ctx, subject.ID, bundle.Marks); err != nil {
		s.rollbackImport(ctx, subject.ID)
		return nil, fmt.Errorf("save marks: %w", err)
	}
	logger.Debug("imported subject %s with %d annotations and %d marks",
		subject.ID, len(bundle.Annotations), len(bundle.Marks))
	return &subject, nil
}

// rollbackImport removes a subject whose lists could not be stored.
func (s *ReviewService) rollbackImport(ctx context.Context, id string) {
	if err := s.store.DeleteSubject(ctx, id); err != nil {
		logger.Warn("rolling back import of %s: %v", id, err)
	}
}

// Watch notifies when a subject changes outside this process.
func (s *ReviewService) Watch(ctx context.Context, id string) (<-chan struct{}, error) {
	if s.watcher == nil {
		return nil, domain.ErrNotImplemented
	}
	return s.watcher.Watch(ctx, id)
}

func (s *ReviewService) digest(text string) string {
	if s.digester == nil {
		return ""
	}
	return s.digester.Digest(text)
}

func (s *ReviewService) isStale(subject *domain.Subject) bool {
	if s.digester == nil || subject.Digest == "" {
		return false
	}
	return s.digester.Digest(subject.Text) != subject.Digest
}

func (s *ReviewService) currentSettings() domain.AppSettings {
	if s.settings == nil {
		return domain.DefaultAppSettings()
	}
	settings, err := s.settings.Get()
	if err != nil {
		logger.Warn("loading settings: %v; using defaults", err)
		return domain.DefaultAppSettings()
	}
	return *settings
}

func firstLine(text string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(text), "\n")
	if r := []rune(line); len(r) > 40 {
		line = string(r[:40]) + "…"
	}
	return line
}

// persister saves lists on behalf of a session. Failures are logged and
// remembered but never reach the annotator.
type persister struct {
	ctx       context.Context
	store     driven.AnnotationStore
	subjectID string

	mu  sync.Mutex
	err error
}

func (p *persister) record(what string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = err
	if err != nil {
		logger.Warn("saving %s for %s: %v", what, p.subjectID, err)
	}
}

// Err returns the last persistence failure, if any.
func (p *persister) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

type textSession struct {
	persister
	subject   domain.Subject
	stale     bool
	annotator *TextAnnotator
}

func (t *textSession) Subject() domain.Subject {
	return t.subject
}

func (t *textSession) Annotator() driving.TextAnnotator {
	return t.annotator
}

func (t *textSession) Stale() bool {
	return t.stale
}

func (t *textSession) OnAdd(_ domain.Annotation, all []domain.Annotation) {
	t.save(all)
}

func (t *textSession) OnUpdate(_ domain.Annotation, all []domain.Annotation) {
	t.save(all)
}

func (t *textSession) OnRemove(_ string, all []domain.Annotation) {
	t.save(all)
}

func (t *textSession) save(all []domain.Annotation) {
	t.record("annotations", t.store.SaveAnnotations(t.ctx, t.subjectID, all))
}

type documentSession struct {
	persister
	subject   domain.Subject
	annotator *SpatialAnnotator
}

func (d *documentSession) Subject() domain.Subject {
	return d.subject
}

func (d *documentSession) Annotator() driving.SpatialAnnotator {
	return d.annotator
}

func (d *documentSession) OnChange(marks []domain.Mark) {
	d.record("marks", d.store.SaveMarks(d.ctx, d.subjectID, marks))
}
