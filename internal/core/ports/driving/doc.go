// Package driving declares what the CLI, the TUI and the MCP server may ask
// of the core: subject management, annotator sessions and settings.
//
// Implementations live in internal/core/services.
package driving
