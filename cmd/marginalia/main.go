// Command marginalia annotates texts and documents from the terminal.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/custodia-labs/marginalia/internal/adapters/driven/bundle"
	"github.com/custodia-labs/marginalia/internal/adapters/driven/config/file"
	"github.com/custodia-labs/marginalia/internal/adapters/driven/pages"
	filestore "github.com/custodia-labs/marginalia/internal/adapters/driven/storage/file"
	"github.com/custodia-labs/marginalia/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/marginalia/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/marginalia/internal/adapters/driving/cli"
	"github.com/custodia-labs/marginalia/internal/core/domain"
	"github.com/custodia-labs/marginalia/internal/core/ports/driven"
	"github.com/custodia-labs/marginalia/internal/core/services"
	"github.com/custodia-labs/marginalia/internal/logger"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cli.SetVersion(version)
	cli.SetServiceFactory(func(opts cli.Options) (*cli.Services, error) {
		return buildServices("", opts)
	})

	if err := cli.Execute(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

// buildServices wires the stores and services. An empty configDir means
// ~/.marginalia.
func buildServices(configDir string, opts cli.Options) (*cli.Services, error) {
	configStore, err := file.NewConfigStore(configDir)
	if err != nil {
		return nil, fmt.Errorf("opening config: %w", err)
	}
	settingsService := services.NewSettingsService(configStore)

	settings, err := settingsService.Get()
	if err != nil {
		return nil, fmt.Errorf("loading settings: %w", err)
	}
	backend := settings.Storage.Backend
	if opts.Backend != "" {
		backend = opts.Backend
	}
	dataDir := settings.Storage.DataDir
	if opts.DataDir != "" {
		dataDir = opts.DataDir
	}

	var (
		store   driven.AnnotationStore
		watcher driven.StoreWatcher
		closeFn func() error
	)
	switch backend {
	case domain.StorageFile:
		s, err := filestore.NewStore(dataDir, settings.Storage.Compress)
		if err != nil {
			return nil, fmt.Errorf("opening bundle store: %w", err)
		}
		store, watcher, closeFn = s, s, s.Close
	case domain.StorageMemory:
		s := memory.NewAnnotationStore()
		store, watcher = s, s
	default:
		s, err := sqlite.NewStore(dataDir)
		if err != nil {
			return nil, fmt.Errorf("opening database: %w", err)
		}
		store, closeFn = s, s.Close
	}
	logger.Debug("using %s storage", backend)

	review := services.NewReviewService(
		store,
		bundle.NewDigester(),
		pages.NewPDFSource(),
		settingsService,
		bundle.NewCodec(),
		watcher,
	)

	return &cli.Services{
		Review:   review,
		Settings: settingsService,
		Close:    closeFn,
	}, nil
}
