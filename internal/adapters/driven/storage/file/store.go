package file

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/marginalia/internal/adapters/driven/bundle"
	"github.com/custodia-labs/marginalia/internal/core/domain"
	"github.com/custodia-labs/marginalia/internal/core/ports/driven"
	"github.com/custodia-labs/marginalia/internal/logger"
)

// Ensure Store implements the interfaces.
var (
	_ driven.AnnotationStore = (*Store)(nil)
	_ driven.StoreWatcher    = (*Store)(nil)
)

const bundleExt = ".bundle"

// Store keeps one bundle file per subject in a directory.
type Store struct {
	mu       sync.Mutex
	dir      string
	codec    *bundle.Codec
	compress bool
}

// NewStore creates a bundle store rooted at dataDir.
// If dataDir is empty, defaults to ~/.marginalia/data/bundles.
func NewStore(dataDir string, compress bool) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".marginalia", "data")
	}
	dir := filepath.Join(dataDir, "bundles")

	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("creating bundle directory: %w", err)
	}

	return &Store{
		dir:      dir,
		codec:    bundle.NewCodec(),
		compress: compress,
	}, nil
}

// Dir returns the directory holding the bundle files.
func (s *Store) Dir() string {
	return s.dir
}

// SaveSubject stores or updates a subject, keeping its lists.
func (s *Store) SaveSubject(_ context.Context, subject *domain.Subject) error {
	if err := validID(subject.ID); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := s.read(subject.ID)
	if errors.Is(err, domain.ErrNotFound) {
		b = &domain.Bundle{}
	} else if err != nil {
		return err
	}

	saved := *subject
	now := time.Now().UTC()
	if saved.CreatedAt.IsZero() {
		saved.CreatedAt = now
	}
	if saved.UpdatedAt.IsZero() {
		saved.UpdatedAt = now
	}
	b.Subject = saved
	return s.write(b)
}

// GetSubject retrieves a subject by ID.
func (s *Store) GetSubject(_ context.Context, id string) (*domain.Subject, error) {
	if err := validID(id); err != nil {
		return nil, domain.ErrNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := s.read(id)
	if err != nil {
		return nil, err
	}
	return &b.Subject, nil
}

// ListSubjects returns all subjects ordered by creation time, then ID.
// Unreadable bundles are skipped with a warning.
func (s *Store) ListSubjects(_ context.Context) ([]domain.Subject, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("reading bundle directory: %w", err)
	}

	var subjects []domain.Subject //nolint:prealloc // unreadable bundles are skipped
	for _, entry := range entries {
		id, ok := subjectIDFromName(entry.Name())
		if !ok || entry.IsDir() {
			continue
		}
		b, err := s.read(id)
		if err != nil {
			logger.Warn("skipping bundle %s: %v", entry.Name(), err)
			continue
		}
		subjects = append(subjects, b.Subject)
	}

	sort.SliceStable(subjects, func(i, j int) bool {
		if !subjects[i].CreatedAt.Equal(subjects[j].CreatedAt) {
			return subjects[i].CreatedAt.Before(subjects[j].CreatedAt)
		}
		return subjects[i].ID < subjects[j].ID
	})
	return subjects, nil
}

// DeleteSubject removes a subject's bundle. Unknown IDs are not an error.
func (s *Store) DeleteSubject(_ context.Context, id string) error {
	if err := validID(id); err != nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path(id)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("deleting bundle: %w", err)
	}
	return nil
}

// SaveAnnotations replaces the annotation list of a subject.
func (s *Store) SaveAnnotations(_ context.Context, subjectID string, annotations []domain.Annotation) error {
	return s.update(subjectID, func(b *domain.Bundle) {
		b.Annotations = append([]domain.Annotation(nil), annotations...)
	})
}

// GetAnnotations returns the annotation list of a subject.
func (s *Store) GetAnnotations(_ context.Context, subjectID string) ([]domain.Annotation, error) {
	b, err := s.lookup(subjectID)
	if err != nil || b == nil {
		return nil, err
	}
	return b.Annotations, nil
}

// SaveMarks replaces the mark list of a subject.
func (s *Store) SaveMarks(_ context.Context, subjectID string, marks []domain.Mark) error {
	return s.update(subjectID, func(b *domain.Bundle) {
		b.Marks = append([]domain.Mark(nil), marks...)
	})
}

// GetMarks returns the mark list of a subject.
func (s *Store) GetMarks(_ context.Context, subjectID string) ([]domain.Mark, error) {
	b, err := s.lookup(subjectID)
	if err != nil || b == nil {
		return nil, err
	}
	return b.Marks, nil
}

// Watch signals on the returned channel whenever the subject's bundle file is
// written, replaced or removed, by this process or any other. The channel is
// closed when ctx is done.
func (s *Store) Watch(ctx context.Context, subjectID string) (<-chan struct{}, error) {
	if err := validID(subjectID); err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	if err := watcher.Add(s.dir); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("watching %s: %w", s.dir, err)
	}

	target := subjectID + bundleExt
	ch := make(chan struct{}, 1)

	go func() {
		defer close(ch)
		defer watcher.Close()

		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !handleFsEvent(event, target) {
					continue
				}
				select {
				case ch <- struct{}{}:
				default:
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("bundle watcher: %v", err)
			}
		}
	}()

	return ch, nil
}

// Close is a no-op; each Watch owns its own watcher.
func (s *Store) Close() error {
	return nil
}

// handleFsEvent reports whether event changes the bundle named target.
func handleFsEvent(event fsnotify.Event, target string) bool {
	if filepath.Base(event.Name) != target {
		return false
	}
	return event.Has(fsnotify.Create) || event.Has(fsnotify.Write) ||
		event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename)
}

// lookup returns the bundle of an existing subject, or nil for an unknown one.
func (s *Store) lookup(subjectID string) (*domain.Bundle, error) {
	if validID(subjectID) != nil {
		return nil, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := s.read(subjectID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	return b, err
}

func (s *Store) update(subjectID string, fn func(b *domain.Bundle)) error {
	if err := validID(subjectID); err != nil {
		return domain.ErrNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := s.read(subjectID)
	if err != nil {
		return err
	}
	fn(b)
	return s.write(b)
}

func (s *Store) path(id string) string {
	return filepath.Join(s.dir, id+bundleExt)
}

// read loads a bundle (caller must hold lock).
func (s *Store) read(id string) (*domain.Bundle, error) {
	f, err := os.Open(s.path(id))
	if os.IsNotExist(err) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("opening bundle: %w", err)
	}
	defer f.Close()

	b, err := s.codec.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("reading bundle %s: %w", id, err)
	}
	return b, nil
}

// write replaces a bundle atomically (caller must hold lock).
func (s *Store) write(b *domain.Bundle) error {
	b.Version = domain.BundleVersion

	tmp, err := os.CreateTemp(s.dir, "."+b.Subject.ID+"-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp bundle: %w", err)
	}
	tmpName := tmp.Name()

	if err := s.codec.Encode(tmp, b, s.compress); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("closing temp bundle: %w", err)
	}
	if err := os.Rename(tmpName, s.path(b.Subject.ID)); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replacing bundle: %w", err)
	}
	return nil
}

func subjectIDFromName(name string) (string, bool) {
	if strings.HasPrefix(name, ".") || !strings.HasSuffix(name, bundleExt) {
		return "", false
	}
	return strings.TrimSuffix(name, bundleExt), true
}

// validID rejects IDs that would escape the bundle directory.
func validID(id string) error {
	if id == "" || strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
		return fmt.Errorf("%w: subject id %q", domain.ErrInvalidInput, id)
	}
	return nil
}
