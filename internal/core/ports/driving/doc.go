// Package driving provides interfaces for primary adapters (CLI, MCP):
// the operations the application exposes to callers.
package driving
