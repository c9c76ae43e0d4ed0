package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

var (
	exportOutput   string
	exportCompress bool
)

var exportCmd = &cobra.Command{
	Use:   "export [subject-id]",
	Short: "Export a subject with its annotations and marks",
	Long: `Write a portable bundle holding the subject, its annotations and its marks.
The bundle is JSON, xz compressed with --compress (default from the
storage.compress setting). It carries a digest of the text, which import
verifies.`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

var importCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Import a bundle",
	Long:  `Import a bundle written by export. Use "-" to read it from standard input.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runImport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "write to a file instead of standard output")
	exportCmd.Flags().BoolVarP(&exportCompress, "compress", "z", false, "xz compress the bundle")
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	review, err := requireReview()
	if err != nil {
		return err
	}

	compress := exportCompress
	if !cmd.Flags().Changed("compress") && settingsService != nil {
		if settings, err := settingsService.Get(); err == nil {
			compress = settings.Storage.Compress
		}
	}

	var w io.Writer = cmd.OutOrStdout()
	if exportOutput != "" {
		f, err := os.Create(exportOutput)
		if err != nil {
			return fmt.Errorf("creating %s: %w", exportOutput, err)
		}
		defer f.Close()
		w = f
	} else if compress && isTerminal(w) {
		return errors.New("refusing to write a compressed bundle to a terminal; use --output")
	}

	if err := review.Export(cmd.Context(), args[0], w, compress); err != nil {
		return fmt.Errorf("failed to export subject: %w", err)
	}

	if exportOutput != "" {
		cmd.Printf("Exported %s to %s\n", args[0], exportOutput)
	}
	return nil
}

func runImport(cmd *cobra.Command, args []string) error {
	review, err := requireReview()
	if err != nil {
		return err
	}

	var r io.Reader = cmd.InOrStdin()
	if args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("opening %s: %w", args[0], err)
		}
		defer f.Close()
		r = f
	}

	subject, err := review.Import(cmd.Context(), r)
	if err != nil {
		return fmt.Errorf("failed to import bundle: %w", err)
	}

	cmd.Printf("Imported subject %s (%s)\n", subject.ID, subject.Title)
	return nil
}
