// Package bundle reads and writes portable subject bundles.
//
// A bundle is the JSON form of one subject with its annotation and mark
// lists. Written bundles may be xz compressed; Decode detects compression
// from the xz magic bytes, so callers never need to say which is which.
//
// The package also provides the blake3 Digester used to notice that a
// subject's text changed after it was annotated.
package bundle
