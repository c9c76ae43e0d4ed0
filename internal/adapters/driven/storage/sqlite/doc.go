// Package sqlite provides a SQLite-based implementation of driven.AnnotationStore.
//
// The driver is modernc.org/sqlite, so no cgo is involved. Subjects, annotations and marks live
// in one database; annotation and mark lists are replaced whole inside a
// transaction so a reader never sees half a list.
//
// # Schema
//
// Migrations are embedded from migrations/ and applied in version order on
// open.
//
// # Data Location
//
// By default, the database is stored at ~/.marginalia/data/annotations.db
//
// # Concurrency
//
// The database runs in WAL mode, so readers in other processes are not
// blocked by a write.
package sqlite
