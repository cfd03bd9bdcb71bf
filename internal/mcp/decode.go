package mcp

import (
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/kb/internal/topic"
)

// decode unmarshals MCP request arguments into a typed struct.
// Avoids unsafe type assertions and handles JSON decoding safely.
func decode[T any](req mcp.CallToolRequest) (T, error) {
	var result T
	args := req.GetArguments()
	b, err := json.Marshal(args)
	if err != nil {
		return result, fmt.Errorf("marshal args: %w", err)
	}
	if err := json.Unmarshal(b, &result); err != nil {
		return result, fmt.Errorf("unmarshal args: %w", err)
	}
	return result, nil
}

// tagList accepts tags as a JSON array or as comma-separated text.
type tagList []string

func (t *tagList) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*t = []string{}
		return nil
	}

	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		*t = topic.SplitTags(text)
		return nil
	}

	var tags []string
	if err := json.Unmarshal(data, &tags); err != nil {
		return fmt.Errorf("tags must be a string or an array of strings")
	}
	if tags == nil {
		tags = []string{}
	}
	*t = tags
	return nil
}
