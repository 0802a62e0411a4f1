// Package driven provides interfaces for infrastructure adapters
// (secondary/outbound ports): stores, indexes, parsers and the external
// embedding and generation capabilities.
package driven
