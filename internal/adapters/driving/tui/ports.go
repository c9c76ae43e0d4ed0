// Package tui provides an interactive terminal user interface for marginalia.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/marginalia/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the TUI.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Review manages subjects and opens annotator sessions.
	Review driving.ReviewService

	// Settings supplies the default kind. Optional.
	Settings driving.SettingsService
}

// NewPorts creates a new Ports aggregate with the given services.
func NewPorts(review driving.ReviewService, settings driving.SettingsService) *Ports {
	return &Ports{
		Review:   review,
		Settings: settings,
	}
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Review == nil {
		return ErrMissingReviewService
	}
	return nil
}
