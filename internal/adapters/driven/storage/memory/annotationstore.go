package memory

import (
	"context"
	"slices"
	"sort"
	"sync"

	"github.com/custodia-labs/marginalia/internal/core/domain"
	"github.com/custodia-labs/marginalia/internal/core/ports/driven"
)

// Ensure AnnotationStore implements the interfaces.
var (
	_ driven.AnnotationStore = (*AnnotationStore)(nil)
	_ driven.StoreWatcher    = (*AnnotationStore)(nil)
)

// AnnotationStore is an in-memory implementation of driven.AnnotationStore.
// Lists are copied on the way in and out.
type AnnotationStore struct {
	mu          sync.RWMutex
	subjects    map[string]domain.Subject
	annotations map[string][]domain.Annotation
	marks       map[string][]domain.Mark
	watchers    map[string][]chan struct{}
}

// NewAnnotationStore creates a new in-memory annotation store.
func NewAnnotationStore() *AnnotationStore {
	return &AnnotationStore{
		subjects:    make(map[string]domain.Subject),
		annotations: make(map[string][]domain.Annotation),
		marks:       make(map[string][]domain.Mark),
		watchers:    make(map[string][]chan struct{}),
	}
}

// SaveSubject stores or updates a subject.
func (s *AnnotationStore) SaveSubject(_ context.Context, subject *domain.Subject) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subjects[subject.ID] = *subject
	s.notifyLocked(subject.ID)
	return nil
}

// GetSubject retrieves a subject by ID.
func (s *AnnotationStore) GetSubject(_ context.Context, id string) (*domain.Subject, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	subject, ok := s.subjects[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &subject, nil
}

// ListSubjects returns all subjects ordered by creation time.
func (s *AnnotationStore) ListSubjects(_ context.Context) ([]domain.Subject, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]domain.Subject, 0, len(s.subjects))
	for _, subject := range s.subjects {
		result = append(result, subject)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

// DeleteSubject removes a subject with its annotations and marks.
func (s *AnnotationStore) DeleteSubject(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subjects, id)
	delete(s.annotations, id)
	delete(s.marks, id)
	s.notifyLocked(id)
	return nil
}

// SaveAnnotations replaces the annotation list of a subject.
func (s *AnnotationStore) SaveAnnotations(_ context.Context, subjectID string, annotations []domain.Annotation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.subjects[subjectID]; !ok {
		return domain.ErrNotFound
	}
	s.annotations[subjectID] = slices.Clone(annotations)
	s.notifyLocked(subjectID)
	return nil
}

// GetAnnotations returns the annotation list of a subject.
func (s *AnnotationStore) GetAnnotations(_ context.Context, subjectID string) ([]domain.Annotation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.annotations[subjectID]), nil
}

// SaveMarks replaces the mark list of a subject.
func (s *AnnotationStore) SaveMarks(_ context.Context, subjectID string, marks []domain.Mark) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.subjects[subjectID]; !ok {
		return domain.ErrNotFound
	}
	s.marks[subjectID] = slices.Clone(marks)
	s.notifyLocked(subjectID)
	return nil
}

// GetMarks returns the mark list of a subject.
func (s *AnnotationStore) GetMarks(_ context.Context, subjectID string) ([]domain.Mark, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.marks[subjectID]), nil
}

// Watch notifies about saves to a subject made through this store.
func (s *AnnotationStore) Watch(ctx context.Context, subjectID string) (<-chan struct{}, error) {
	ch := make(chan struct{}, 1)

	s.mu.Lock()
	s.watchers[subjectID] = append(s.watchers[subjectID], ch)
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		defer s.mu.Unlock()
		s.watchers[subjectID] = slices.DeleteFunc(s.watchers[subjectID], func(c chan struct{}) bool {
			return c == ch
		})
		close(ch)
	}()
	return ch, nil
}

// notifyLocked signals watchers without blocking; a pending signal is enough.
func (s *AnnotationStore) notifyLocked(subjectID string) {
	for _, ch := range s.watchers[subjectID] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Close is a no-op for the memory store.
func (s *AnnotationStore) Close() error {
	return nil
}
