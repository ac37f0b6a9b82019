// Package ops implements the knowledge base operations shared by every
// transport (MCP tools, HTTP API, CLI). Each operation takes an Input
// struct, validates it, and returns an Output struct or a structured error.
package ops

import "fmt"

// Pagination limits
const (
	DefaultListLimit = 50
	MaxListLimit     = 200
)

// EntryURL is the canonical API path for a single entry. Fabricated
// honeypot IDs use the same form so they are indistinguishable from real
// ones.
func EntryURL(id int64) string {
	return fmt.Sprintf("/api/entry/%d", id)
}
