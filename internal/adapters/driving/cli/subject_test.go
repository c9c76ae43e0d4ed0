package cli

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/marginalia/internal/core/domain"
)

func TestSubjectCmd_Registered(t *testing.T) {
	found := false
	for _, cmd := range rootCmd.Commands() {
		if cmd.Name() == "subject" {
			found = true
			break
		}
	}
	assert.True(t, found, "subject command should be registered")
}

func TestSubjectAdd_FromArgument(t *testing.T) {
	review := setupTestServices(t)

	output, err := runCommand(t, "subject", "add", "Yo tiene un gato")
	require.NoError(t, err)
	assert.Contains(t, output, "Added subject")
	assert.Contains(t, output, "(Yo tiene un gato)")

	subject, err := review.Get(context.Background(), idFrom(t, output, "Added subject"))
	require.NoError(t, err)
	assert.Equal(t, "Yo tiene un gato", subject.Text)
	assert.Equal(t, domain.SubjectText, subject.Kind)
}

func TestSubjectAdd_FromFileWithTitle(t *testing.T) {
	review := setupTestServices(t)
	path := filepath.Join(t.TempDir(), "essay.txt")
	require.NoError(t, os.WriteFile(path, []byte("línea uno\nlínea dos"), 0o600))

	output, err := runCommand(t, "subject", "add", "--file", path, "--title", "Essay 3")
	require.NoError(t, err)

	subject, err := review.Get(context.Background(), idFrom(t, output, "Added subject"))
	require.NoError(t, err)
	assert.Equal(t, "Essay 3", subject.Title)
	assert.Equal(t, "línea uno\nlínea dos", subject.Text)
}

func TestSubjectAdd_FromStdin(t *testing.T) {
	review := setupTestServices(t)

	output, err := runCommandWithInput(t, strings.NewReader("desde la entrada"), "subject", "add", "-")
	require.NoError(t, err)

	subject, err := review.Get(context.Background(), idFrom(t, output, "Added subject"))
	require.NoError(t, err)
	assert.Equal(t, "desde la entrada", subject.Text)
}

func TestSubjectAdd_NoText(t *testing.T) {
	setupTestServices(t)

	_, err := runCommand(t, "subject", "add")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no text given")
}

func TestSubjectAddDoc(t *testing.T) {
	setupTestServices(t)

	output, err := runCommand(t, "subject", "add-doc", "worksheet.pdf", "--title", "Worksheet")
	require.NoError(t, err)
	assert.Contains(t, output, "Added document")
	assert.Contains(t, output, "(Worksheet, 3 pages)")
}

func TestSubjectList(t *testing.T) {
	review := setupTestServices(t)

	output, err := runCommand(t, "subject", "list")
	require.NoError(t, err)
	assert.Contains(t, output, "No subjects.")

	textID := addTextSubject(t, review, "uno\ndos")
	docID := addDocumentSubject(t, review)

	output, err = runCommand(t, "subject", "list")
	require.NoError(t, err)
	assert.Contains(t, output, textID)
	assert.Contains(t, output, docID)
	assert.Contains(t, output, "7 characters, 2 lines")
	assert.Contains(t, output, "3 pages, worksheet.pdf")
}

func TestSubjectList_JSON(t *testing.T) {
	review := setupTestServices(t)
	id := addTextSubject(t, review, "hola")

	output, err := runCommand(t, "subject", "list", "--json")
	require.NoError(t, err)

	var subjects []domain.Subject
	require.NoError(t, json.Unmarshal([]byte(output), &subjects))
	require.Len(t, subjects, 1)
	assert.Equal(t, id, subjects[0].ID)
}

func TestSubjectRemove(t *testing.T) {
	review := setupTestServices(t)
	id := addTextSubject(t, review, "hola")

	output, err := runCommand(t, "subject", "remove", id)
	require.NoError(t, err)
	assert.Contains(t, output, "Removed subject "+id)

	_, err = review.Get(context.Background(), id)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = runCommand(t, "subject", "remove", id)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRequireReview_NotConfigured(t *testing.T) {
	old := reviewService
	reviewService = nil
	defer func() { reviewService = old }()

	_, err := requireReview()
	assert.Error(t, err)
}

func TestSetupServices_UnknownBackend(t *testing.T) {
	old := reviewService
	reviewService = nil
	defer func() { reviewService = old }()

	SetServiceFactory(func(Options) (*Services, error) {
		t.Fatal("factory should not be called")
		return nil, nil
	})
	defer SetServiceFactory(nil)

	_, err := runCommand(t, "--backend", "floppy", "subject", "list")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSetupServices_UsesFactory(t *testing.T) {
	review := setupTestServices(t)
	reviewService = nil

	var got Options
	closed := false
	SetServiceFactory(func(opts Options) (*Services, error) {
		got = opts
		return &Services{
			Review: review,
			Close: func() error {
				closed = true
				return nil
			},
		}, nil
	})
	defer SetServiceFactory(nil)

	_, err := runCommand(t, "--backend", "file", "--data-dir", "/tmp/m", "subject", "list")
	require.NoError(t, err)

	assert.Equal(t, domain.StorageFile, got.Backend)
	assert.Equal(t, "/tmp/m", got.DataDir)
	assert.True(t, closed)
}

func TestSubjectAdd_MarkdownFile(t *testing.T) {
	review := setupTestServices(t)
	path := filepath.Join(t.TempDir(), "draft.md")
	require.NoError(t, os.WriteFile(path, []byte("# Mi gato\n\nYo **tiene** un gato."), 0o600))

	output, err := runCommand(t, "subject", "add", "--file", path)
	require.NoError(t, err)

	subject, err := review.Get(context.Background(), idFrom(t, output, "Added subject"))
	require.NoError(t, err)
	assert.Equal(t, "Mi gato", subject.Title)
	assert.Equal(t, "Mi gato\n\nYo tiene un gato.", subject.Text)
}

func TestSubjectAdd_RawFile(t *testing.T) {
	review := setupTestServices(t)
	path := filepath.Join(t.TempDir(), "draft.md")
	require.NoError(t, os.WriteFile(path, []byte("Yo **tiene** un gato."), 0o600))

	output, err := runCommand(t, "subject", "add", "--file", path, "--raw")
	require.NoError(t, err)

	subject, err := review.Get(context.Background(), idFrom(t, output, "Added subject"))
	require.NoError(t, err)
	assert.Equal(t, "Yo **tiene** un gato.", subject.Text)
}
