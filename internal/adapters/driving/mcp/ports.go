package mcp

import (
	"github.com/custodia-labs/marginalia/internal/core/ports/driving"
)

// Ports holds the services the MCP server calls.
type Ports struct {
	// Review manages subjects and annotator sessions.
	Review driving.ReviewService

	// Settings supplies the default annotation kind. Optional.
	Settings driving.SettingsService
}

// Validate reports a missing review service. A nil *Ports is invalid.
func (p *Ports) Validate() error {
	if p == nil || p.Review == nil {
		return ErrMissingReviewService
	}
	return nil
}
