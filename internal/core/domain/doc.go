// Package domain contains the core business entities and errors for the
// document pattern analyzer: documents and their chunks, extracted
// patterns, pattern families, citations and query responses.
//
// The domain layer has no dependencies on adapters or infrastructure.
package domain
