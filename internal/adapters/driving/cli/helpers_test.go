package cli

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/marginalia/internal/adapters/driven/bundle"
	"github.com/custodia-labs/marginalia/internal/adapters/driven/pages"
	"github.com/custodia-labs/marginalia/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/marginalia/internal/core/services"
)

// setupTestServices installs services over an in-memory store with default
// settings and restores the previous ones when the test ends.
func setupTestServices(t *testing.T) *services.ReviewService {
	t.Helper()

	store := memory.NewAnnotationStore()
	settings := services.NewSettingsService(memory.NewConfigStore())
	review := services.NewReviewService(
		store,
		bundle.NewDigester(),
		pages.FixedSource{Pages: pages.Uniform(3, pages.Letter)},
		settings,
		bundle.NewCodec(),
		store,
	)

	oldReview, oldSettings := reviewService, settingsService
	reviewService, settingsService = review, settings
	t.Cleanup(func() {
		reviewService, settingsService = oldReview, oldSettings
		resetFlags()
	})
	return review
}

// resetFlags restores every flag to its default. Flag values live in
// package variables and survive between executions.
func resetFlags() {
	var walk func(c *cobra.Command)
	walk = func(c *cobra.Command) {
		c.Flags().VisitAll(func(f *pflag.Flag) {
			_ = f.Value.Set(f.DefValue)
			f.Changed = false
		})
		for _, sub := range c.Commands() {
			walk(sub)
		}
	}
	walk(rootCmd)
}

// runCommand executes the root command with args and returns its output.
func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return runCommandWithInput(t, nil, args...)
}

func runCommandWithInput(t *testing.T, in io.Reader, args ...string) (string, error) {
	t.Helper()

	resetFlags()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetIn(in)
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
	}()

	err := rootCmd.Execute()
	return buf.String(), err
}

// addTextSubject stores a text and returns its ID.
func addTextSubject(t *testing.T, review *services.ReviewService, text string) string {
	t.Helper()
	subject, err := review.AddText(context.Background(), "Essay", text)
	require.NoError(t, err)
	return subject.ID
}

// addDocumentSubject stores a three page document and returns its ID.
func addDocumentSubject(t *testing.T, review *services.ReviewService) string {
	t.Helper()
	subject, err := review.AddDocument(context.Background(), "Worksheet", "worksheet.pdf")
	require.NoError(t, err)
	return subject.ID
}

// idFrom returns the first field after prefix in output.
func idFrom(t *testing.T, output, prefix string) string {
	t.Helper()
	_, rest, ok := strings.Cut(output, prefix)
	require.True(t, ok, "output %q has no %q", output, prefix)
	fields := strings.Fields(rest)
	require.NotEmpty(t, fields)
	return fields[0]
}
