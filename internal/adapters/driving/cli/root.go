// Package cli implements the marginalia command line.
package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/marginalia/internal/core/domain"
	"github.com/custodia-labs/marginalia/internal/core/ports/driving"
	"github.com/custodia-labs/marginalia/internal/logger"
)

// version is set at build time via ldflags.
var version = "dev"

// Persistent flags.
var (
	verbose    bool
	dataDirArg string
	backendArg string
)

// Services used by the commands. Tests assign them directly.
var (
	reviewService   driving.ReviewService
	settingsService driving.SettingsService
)

// Options carries the persistent flags to the service factory.
type Options struct {
	// DataDir overrides storage.data_dir when set.
	DataDir string
	// Backend overrides storage.backend when set.
	Backend domain.StorageBackend
}

// Services are the driving ports built by the composition root.
type Services struct {
	Review   driving.ReviewService
	Settings driving.SettingsService
	// Close releases the store. May be nil.
	Close func() error
}

// ServiceFactory builds the services once the flags are parsed.
type ServiceFactory func(opts Options) (*Services, error)

var (
	serviceFactory ServiceFactory
	closeServices  func() error
)

// skipServices marks commands that run without a store.
const skipServices = "skip-services"

var rootCmd = &cobra.Command{
	Use:   "marginalia",
	Short: "Annotate texts and documents from the terminal",
	Long: `Marginalia keeps corrections and comments on texts, and freehand marks
and text stamps on paginated documents.

Annotations are stored locally (SQLite by default) and can be exported as
portable bundles, rendered in the terminal, edited in the TUI or exposed to
AI assistants over MCP.`,
	SilenceUsage:       true,
	PersistentPreRunE:  setupServices,
	PersistentPostRunE: teardownServices,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&dataDirArg, "data-dir", "", "data directory (default ~/.marginalia/data)")
	rootCmd.PersistentFlags().StringVar(&backendArg, "backend", "", "storage backend: sqlite, file or memory")
}

// Execute runs the root command. Cancelling ctx stops long-running
// commands such as "annotate render --follow" and "mcp".
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	version = v
}

// SetServiceFactory installs the function that wires the services.
func SetServiceFactory(factory ServiceFactory) {
	serviceFactory = factory
}

func setupServices(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)

	if cmd.Annotations[skipServices] != "" || reviewService != nil {
		return nil
	}
	if serviceFactory == nil {
		return errors.New("services not configured")
	}

	opts := Options{DataDir: dataDirArg}
	if backendArg != "" {
		b := domain.StorageBackend(backendArg)
		if !b.IsValid() {
			return fmt.Errorf("%w: unknown backend %q", domain.ErrInvalidInput, backendArg)
		}
		opts.Backend = b
	}

	svc, err := serviceFactory(opts)
	if err != nil {
		return fmt.Errorf("setting up services: %w", err)
	}
	reviewService = svc.Review
	settingsService = svc.Settings
	closeServices = svc.Close
	return nil
}

func teardownServices(_ *cobra.Command, _ []string) error {
	if closeServices == nil {
		return nil
	}
	err := closeServices()
	closeServices = nil
	return err
}

// requireReview returns the review service or a configuration error.
func requireReview() (driving.ReviewService, error) {
	if reviewService == nil {
		return nil, errors.New("review service not configured")
	}
	return reviewService, nil
}
