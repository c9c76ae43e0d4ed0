package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/marginalia/internal/core/domain"
	"github.com/custodia-labs/marginalia/internal/core/geometry"
	"github.com/custodia-labs/marginalia/internal/normalisers"
)

var (
	subjectTitle string
	subjectFile  string
	subjectRaw   bool
	subjectJSON  bool
)

// sourceNormalisers convert --file input to plain text.
var sourceNormalisers = normalisers.Default()

var subjectCmd = &cobra.Command{
	Use:   "subject",
	Short: "Manage reviewed texts and documents",
	Long: `A subject is one piece of reviewed work: a text whose annotations cover
character ranges, or a paginated document that carries freehand marks and
text stamps.`,
}

var subjectAddCmd = &cobra.Command{
	Use:   "add [text]",
	Short: "Add a text subject",
	Long: `Add a text to review. The text is read from the argument, from --file,
or from standard input when the argument is "-".

Markdown, HTML and DOCX files are converted to plain text first, and their
own title is used when --title is not given. Use --raw to keep the file
exactly as it is.

Examples:
  marginalia subject add "Yo tiene un gato"
  marginalia subject add --file essay.txt --title "Essay 3"
  cat essay.txt | marginalia subject add -`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSubjectAdd,
}

var subjectAddDocCmd = &cobra.Command{
	Use:   "add-doc [path]",
	Short: "Add a PDF document subject",
	Args:  cobra.ExactArgs(1),
	RunE:  runSubjectAddDoc,
}

var subjectListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all subjects",
	RunE:  runSubjectList,
}

var subjectRemoveCmd = &cobra.Command{
	Use:   "remove [subject-id]",
	Short: "Remove a subject and its annotations",
	Args:  cobra.ExactArgs(1),
	RunE:  runSubjectRemove,
}

func init() {
	subjectAddCmd.Flags().StringVarP(&subjectTitle, "title", "t", "", "subject title (default: first line)")
	subjectAddCmd.Flags().StringVarP(&subjectFile, "file", "f", "", "read the text from a file")
	subjectAddCmd.Flags().BoolVar(&subjectRaw, "raw", false, "do not convert --file to plain text")
	subjectAddDocCmd.Flags().StringVarP(&subjectTitle, "title", "t", "", "subject title (default: file name)")
	subjectListCmd.Flags().BoolVar(&subjectJSON, "json", false, "output as JSON")

	subjectCmd.AddCommand(subjectAddCmd)
	subjectCmd.AddCommand(subjectAddDocCmd)
	subjectCmd.AddCommand(subjectListCmd)
	subjectCmd.AddCommand(subjectRemoveCmd)
	rootCmd.AddCommand(subjectCmd)
}

func runSubjectAdd(cmd *cobra.Command, args []string) error {
	review, err := requireReview()
	if err != nil {
		return err
	}

	src, err := readSubjectText(cmd, args)
	if err != nil {
		return err
	}
	title := subjectTitle
	if title == "" {
		title = src.Title
	}

	subject, err := review.AddText(cmd.Context(), title, src.Text)
	if err != nil {
		return fmt.Errorf("failed to add subject: %w", err)
	}

	cmd.Printf("Added subject %s (%s)\n", subject.ID, subject.Title)
	return nil
}

func runSubjectAddDoc(cmd *cobra.Command, args []string) error {
	review, err := requireReview()
	if err != nil {
		return err
	}

	subject, err := review.AddDocument(cmd.Context(), subjectTitle, args[0])
	if err != nil {
		return fmt.Errorf("failed to add document: %w", err)
	}

	cmd.Printf("Added document %s (%s, %d pages)\n", subject.ID, subject.Title, subject.PageCount)
	return nil
}

func runSubjectList(cmd *cobra.Command, _ []string) error {
	review, err := requireReview()
	if err != nil {
		return err
	}

	subjects, err := review.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list subjects: %w", err)
	}

	if subjectJSON {
		return printJSON(cmd, subjects)
	}

	if len(subjects) == 0 {
		cmd.Println("No subjects. Add one with 'marginalia subject add'.")
		return nil
	}

	cmd.Println("Subjects:")
	cmd.Println()
	for i := range subjects {
		s := &subjects[i]
		cmd.Printf("  %s  %-8s %s\n", s.ID, s.Kind, s.Title)
		cmd.Printf("      %s\n", subjectDetails(s))
	}
	return nil
}

func runSubjectRemove(cmd *cobra.Command, args []string) error {
	review, err := requireReview()
	if err != nil {
		return err
	}

	if err := review.Remove(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("failed to remove subject: %w", err)
	}

	cmd.Printf("Removed subject %s\n", args[0])
	return nil
}

func readSubjectText(cmd *cobra.Command, args []string) (*domain.SourceText, error) {
	switch {
	case subjectFile != "":
		data, err := os.ReadFile(subjectFile)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", subjectFile, err)
		}
		if subjectRaw {
			return &domain.SourceText{Text: string(data)}, nil
		}
		src, err := sourceNormalisers.Normalise(subjectFile, data)
		if err != nil {
			return nil, fmt.Errorf("converting %s: %w", subjectFile, err)
		}
		return src, nil
	case len(args) == 1 && args[0] == "-":
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("reading standard input: %w", err)
		}
		return &domain.SourceText{Text: string(data)}, nil
	case len(args) == 1:
		return &domain.SourceText{Text: args[0]}, nil
	default:
		return nil, errors.New("no text given: pass it as an argument, with --file, or as - for stdin")
	}
}

func subjectDetails(s *domain.Subject) string {
	if s.Kind == domain.SubjectDocument {
		return fmt.Sprintf("%d pages, %s", s.PageCount, s.DocumentPath)
	}
	lines := strings.Count(s.Text, "\n") + 1
	return fmt.Sprintf("%d characters, %d lines", geometry.RuneCount(s.Text), lines)
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}
