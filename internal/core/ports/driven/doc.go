// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - AnnotationStore: Subject, annotation and mark persistence
//   - ConfigStore: Application configuration
//   - Digester: Content digest used for stale-text detection
//
// # Surface Interfaces
//
// These are supplied per annotator by whatever renders the subject:
//
//   - OffsetMapper: Resolves rendered positions to absolute offsets
//   - PageGeometry: Page count and native page sizes of a document
//   - TextListener, MarkListener: Mutation notifications to the host
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - StoreWatcher: Change notifications. Without it, render --follow is disabled.
//   - BundleCodec: Portable export and import. Without it, export/import is disabled.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
