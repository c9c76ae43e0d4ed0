// Package normalisers turns source files into the plain text that text
// subjects annotate. Each normaliser handles a set of file extensions;
// the Registry picks one by extension and falls back to plain text.
package normalisers
