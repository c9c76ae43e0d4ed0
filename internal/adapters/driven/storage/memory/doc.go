// Package memory provides in-memory implementations of the driven store
// ports. They back the "memory" storage backend and the service tests.
package memory
