// Package mcp provides an MCP (Model Context Protocol) server adapter for Marginalia.
// It lets AI assistants read subjects and add, revise or remove annotations.
package mcp

import "errors"

// ErrMissingReviewService is returned when the review service is not provided.
var ErrMissingReviewService = errors.New("mcp: review service is required")
