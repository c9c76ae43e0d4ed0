// Package services implements the driving ports: the text and spatial
// annotators, the review service that opens them over stored subjects,
// and the settings service.
//
// The annotators are single-writer: every call is expected to come from
// the host's event loop, so they hold no locks of their own.
package services
