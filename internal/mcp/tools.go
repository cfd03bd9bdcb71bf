package mcp

import "github.com/mark3labs/mcp-go/mcp"

const tagsDescription = "Tags as an array of strings, or as comma-separated text (\"a, b\"). " +
	"Text is split on commas and each piece trimmed; empty pieces are kept."

var listToolDef = mcp.NewTool("topic_list",
	mcp.WithDescription("List every topic in the knowledge base, in store order. "+
		"Each entry includes a short preview of its content."),
	mcp.WithReadOnlyHintAnnotation(true),
)

var getToolDef = mcp.NewTool("topic_get",
	mcp.WithDescription("Fetch one topic with its full content."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Topic id")),
	mcp.WithReadOnlyHintAnnotation(true),
)

var createToolDef = mcp.NewTool("topic_create",
	mcp.WithDescription("Create a topic. The store assigns its id."),
	mcp.WithString("title", mcp.Required(), mcp.Description("Topic title")),
	mcp.WithString("content", mcp.Description("Topic content (Markdown)")),
	withTags(),
)

var updateToolDef = mcp.NewTool("topic_update",
	mcp.WithDescription("Replace a topic. Omitted fields keep their current values."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Topic id")),
	mcp.WithString("title", mcp.Description("New title")),
	mcp.WithString("content", mcp.Description("New content (Markdown)")),
	withTags(),
	mcp.WithIdempotentHintAnnotation(true),
)

var deleteToolDef = mcp.NewTool("topic_delete",
	mcp.WithDescription("Delete a topic permanently."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Topic id")),
	mcp.WithDestructiveHintAnnotation(true),
)

// withTags declares "tags" as either a string or an array of strings,
// matching what tagList accepts.
func withTags() mcp.ToolOption {
	return func(t *mcp.Tool) {
		t.InputSchema.Properties["tags"] = map[string]any{
			"anyOf": []any{
				map[string]any{"type": "string"},
				map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			},
			"description": tagsDescription,
		}
	}
}
