// Package pages provides PageGeometry implementations.
//
// PDF documents are measured with pdfcpu when they are opened; Static
// serves fixed page sizes, e.g. for tests or documents measured elsewhere.
package pages
