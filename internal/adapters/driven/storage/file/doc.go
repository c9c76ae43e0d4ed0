// Package file provides a directory-of-bundles implementation of
// driven.AnnotationStore.
//
// Each subject is stored as one bundle file (<id>.bundle) holding the subject,
// its annotations and its marks, optionally xz compressed. Files are replaced
// atomically through a hidden temporary file and a rename, so a watcher or a
// second process never reads a partial bundle.
//
// The store also implements driven.StoreWatcher using fsnotify, which lets a
// renderer follow edits made by another process (the TUI, the MCP server or
// a second CLI invocation).
package file
