package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/marginalia/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/marginalia/internal/core/domain"
	"github.com/custodia-labs/marginalia/internal/core/ports/driven"
)

var _ driven.AnnotationStore = (*Store)(nil)

// Store is a SQLite-backed annotation store.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.marginalia/data/annotations.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".marginalia", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "annotations.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	// Run migrations
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// migrate runs all pending migrations, recording each applied version.
func (s *Store) migrate(fsys embed.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	// Find all up migrations
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if name := entry.Name(); strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}
		if version <= currentVersion {
			continue // Already applied
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if err := s.inTx(context.Background(), func(tx *sql.Tx) error {
			if _, err := tx.Exec(string(content)); err != nil {
				return err
			}
			_, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version)
			return err
		}); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}

	return nil
}

// SchemaVersion returns the highest applied migration version.
func (s *Store) SchemaVersion() (int, error) {
	var version int
	err := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&version)
	return version, err
}

// ==================== Subjects ====================

// SaveSubject stores or updates a subject.
func (s *Store) SaveSubject(ctx context.Context, subject *domain.Subject) error {
	now := time.Now().UTC()
	createdAt := subject.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}
	updatedAt := subject.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = now
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO subjects (id, title, kind, text, document_path, page_count, digest, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			kind = excluded.kind,
			text = excluded.text,
			document_path = excluded.document_path,
			page_count = excluded.page_count,
			digest = excluded.digest,
			updated_at = excluded.updated_at
	`, subject.ID, subject.Title, string(subject.Kind), subject.Text, subject.DocumentPath,
		subject.PageCount, subject.Digest, createdAt.UTC(), updatedAt.UTC())
	if err != nil {
		return fmt.Errorf("saving subject: %w", err)
	}
	return nil
}

const subjectColumns = `id, title, kind, text, document_path, page_count, digest, created_at, updated_at`

// GetSubject retrieves a subject by ID.
func (s *Store) GetSubject(ctx context.Context, id string) (*domain.Subject, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+subjectColumns+" FROM subjects WHERE id = ?", id)
	subject, err := scanSubject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return subject, nil
}

// ListSubjects returns all subjects ordered by creation time.
func (s *Store) ListSubjects(ctx context.Context) ([]domain.Subject, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+subjectColumns+" FROM subjects ORDER BY created_at, id")
	if err != nil {
		return nil, fmt.Errorf("querying subjects: %w", err)
	}
	defer rows.Close()

	var subjects []domain.Subject //nolint:prealloc // size unknown from query
	for rows.Next() {
		subject, err := scanSubject(rows)
		if err != nil {
			return nil, err
		}
		subjects = append(subjects, *subject)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating subjects: %w", err)
	}
	return subjects, nil
}

// DeleteSubject removes a subject; annotations and marks cascade.
func (s *Store) DeleteSubject(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM subjects WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting subject: %w", err)
	}
	return nil
}

// ==================== Annotations ====================

// SaveAnnotations replaces the annotation list of a subject.
func (s *Store) SaveAnnotations(ctx context.Context, subjectID string, annotations []domain.Annotation) error {
	if err := s.requireSubject(ctx, subjectID); err != nil {
		return err
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM annotations WHERE subject_id = ?", subjectID); err != nil {
			return fmt.Errorf("clearing annotations: %w", err)
		}
		for i, a := range annotations {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO annotations (subject_id, position, id, start_offset, end_offset, kind,
					original_text, replacement, note, created_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			`, subjectID, i, a.ID, a.Start, a.End, string(a.Kind),
				a.OriginalText, a.Replacement, a.Note, nullTime(a.CreatedAt))
			if err != nil {
				return fmt.Errorf("saving annotation %s: %w", a.ID, err)
			}
		}
		return nil
	})
}

// GetAnnotations returns the annotation list of a subject in order.
func (s *Store) GetAnnotations(ctx context.Context, subjectID string) ([]domain.Annotation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, start_offset, end_offset, kind, original_text, replacement, note, created_at
		FROM annotations WHERE subject_id = ? ORDER BY position
	`, subjectID)
	if err != nil {
		return nil, fmt.Errorf("querying annotations: %w", err)
	}
	defer rows.Close()

	var annotations []domain.Annotation //nolint:prealloc // size unknown from query
	for rows.Next() {
		var a domain.Annotation
		var kind string
		var createdAt sql.NullTime
		if err := rows.Scan(&a.ID, &a.Start, &a.End, &kind, &a.OriginalText,
			&a.Replacement, &a.Note, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning annotation: %w", err)
		}
		a.Kind = domain.Kind(kind)
		if createdAt.Valid {
			a.CreatedAt = createdAt.Time
		}
		annotations = append(annotations, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating annotations: %w", err)
	}
	return annotations, nil
}

// ==================== Marks ====================

// SaveMarks replaces the mark list of a subject.
func (s *Store) SaveMarks(ctx context.Context, subjectID string, marks []domain.Mark) error {
	if err := s.requireSubject(ctx, subjectID); err != nil {
		return err
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM marks WHERE subject_id = ?", subjectID); err != nil {
			return fmt.Errorf("clearing marks: %w", err)
		}
		for i, m := range marks {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO marks (subject_id, position, id, page, kind, points, x, y, content, color, created_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			`, subjectID, i, m.ID, m.Page, string(m.Kind), pointsToBytes(m.Points),
				m.X, m.Y, m.Content, m.Color, nullTime(m.CreatedAt))
			if err != nil {
				return fmt.Errorf("saving mark %s: %w", m.ID, err)
			}
		}
		return nil
	})
}

// GetMarks returns the mark list of a subject in order.
func (s *Store) GetMarks(ctx context.Context, subjectID string) ([]domain.Mark, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, page, kind, points, x, y, content, color, created_at
		FROM marks WHERE subject_id = ? ORDER BY position
	`, subjectID)
	if err != nil {
		return nil, fmt.Errorf("querying marks: %w", err)
	}
	defer rows.Close()

	var marks []domain.Mark //nolint:prealloc // size unknown from query
	for rows.Next() {
		var m domain.Mark
		var kind string
		var points []byte
		var createdAt sql.NullTime
		if err := rows.Scan(&m.ID, &m.Page, &kind, &points, &m.X, &m.Y,
			&m.Content, &m.Color, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning mark: %w", err)
		}
		m.Kind = domain.MarkKind(kind)
		m.Points = bytesToPoints(points)
		if createdAt.Valid {
			m.CreatedAt = createdAt.Time
		}
		marks = append(marks, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating marks: %w", err)
	}
	return marks, nil
}

// ==================== Helper Functions ====================

func (s *Store) requireSubject(ctx context.Context, id string) error {
	var one int
	err := s.db.QueryRowContext(ctx, "SELECT 1 FROM subjects WHERE id = ?", id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("checking subject: %w", err)
	}
	return nil
}

func (s *Store) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanSubject(row rowScanner) (*domain.Subject, error) {
	var subject domain.Subject
	var kind string
	if err := row.Scan(&subject.ID, &subject.Title, &kind, &subject.Text, &subject.DocumentPath,
		&subject.PageCount, &subject.Digest, &subject.CreatedAt, &subject.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning subject: %w", err)
	}
	subject.Kind = domain.SubjectKind(kind)
	return &subject, nil
}

func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

// pointsToBytes packs points as little-endian float64 x,y pairs.
func pointsToBytes(points []domain.Point) []byte {
	if len(points) == 0 {
		return nil
	}
	buf := make([]byte, len(points)*16)
	for i, p := range points {
		binary.LittleEndian.PutUint64(buf[i*16:], math.Float64bits(p.X))
		binary.LittleEndian.PutUint64(buf[i*16+8:], math.Float64bits(p.Y))
	}
	return buf
}

// bytesToPoints is the inverse of pointsToBytes. A trailing partial pair is dropped.
func bytesToPoints(data []byte) []domain.Point {
	if len(data) < 16 {
		return nil
	}
	points := make([]domain.Point, len(data)/16)
	for i := range points {
		points[i] = domain.Point{
			X: math.Float64frombits(binary.LittleEndian.Uint64(data[i*16:])),
			Y: math.Float64frombits(binary.LittleEndian.Uint64(data[i*16+8:])),
		}
	}
	return points
}
