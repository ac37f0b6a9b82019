package mcp

import (
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// decode converts a tool call's argument map into one of the typed request
// structs (SearchRequest, GetRequest, ListRequest). Arguments arrive as
// already-parsed JSON, so a marshal round trip applies the struct tags and
// numeric conversions instead of per-field type assertions. Submit skips
// this on purpose: the validator and the injection scan need the raw map.
func decode[T any](req mcp.CallToolRequest) (T, error) {
	var out T
	raw, err := json.Marshal(req.GetArguments())
	if err != nil {
		return out, fmt.Errorf("encode arguments: %w", err)
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("decode arguments: %w", err)
	}
	return out, nil
}
