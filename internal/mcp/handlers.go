package mcp

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/rs/zerolog"

	"github.com/hpungsan/kb/internal/editor"
	"github.com/hpungsan/kb/internal/errors"
	"github.com/hpungsan/kb/internal/topic"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	store editor.Store
	log   zerolog.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(store editor.Store, log zerolog.Logger) *Handlers {
	return &Handlers{store: store, log: log}
}

// Request types for each tool

// GetRequest represents the arguments for topic_get.
type GetRequest struct {
	ID topic.ID `json:"id"`
}

// CreateRequest represents the arguments for topic_create.
type CreateRequest struct {
	Title   string  `json:"title"`
	Content string  `json:"content,omitempty"`
	Tags    tagList `json:"tags,omitempty"`
}

// UpdateRequest represents the arguments for topic_update.
type UpdateRequest struct {
	ID      topic.ID `json:"id"`
	Title   *string  `json:"title,omitempty"`
	Content *string  `json:"content,omitempty"`
	Tags    *tagList `json:"tags,omitempty"`
}

// DeleteRequest represents the arguments for topic_delete.
type DeleteRequest struct {
	ID topic.ID `json:"id"`
}

// ListItem is one topic in a topic_list result.
type ListItem struct {
	ID      topic.ID `json:"id"`
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Tags    []string `json:"tags"`
	Preview string   `json:"preview"`
}

// ListOutput is the result of topic_list.
type ListOutput struct {
	Topics []ListItem `json:"topics"`
	Count  int        `json:"count"`
}

// DeleteOutput is the result of topic_delete.
type DeleteOutput struct {
	Deleted bool     `json:"deleted"`
	ID      topic.ID `json:"id"`
}

// Handler implementations

// HandleList handles the topic_list tool call.
func (h *Handlers) HandleList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	topics, err := h.store.List(ctx)
	if err != nil {
		return h.errorResult("topic_list", err), nil
	}

	items := make([]ListItem, len(topics))
	for i, t := range topics {
		items[i] = ListItem{
			ID:      t.ID,
			Title:   t.Title,
			Content: t.Content,
			Tags:    t.Tags,
			Preview: topic.Preview(t.Content),
		}
	}
	return successResult(ListOutput{Topics: items, Count: len(items)})
}

// HandleGet handles the topic_get tool call.
func (h *Handlers) HandleGet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[GetRequest](req)
	if err != nil {
		return h.errorResult("topic_get", errors.NewInvalidRequest(err.Error())), nil
	}
	if input.ID == "" {
		return h.errorResult("topic_get", errors.NewInvalidRequest("id is required")), nil
	}

	t, err := h.store.Get(ctx, input.ID)
	if err != nil {
		return h.errorResult("topic_get", err), nil
	}
	return successResult(t)
}

// HandleCreate handles the topic_create tool call.
func (h *Handlers) HandleCreate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[CreateRequest](req)
	if err != nil {
		return h.errorResult("topic_create", errors.NewInvalidRequest(err.Error())), nil
	}

	tags := []string(input.Tags)
	if tags == nil {
		tags = []string{}
	}

	created, err := h.store.Create(ctx, topic.Topic{
		Title:   input.Title,
		Content: input.Content,
		Tags:    tags,
	})
	if err != nil {
		return h.errorResult("topic_create", err), nil
	}
	return successResult(created)
}

// HandleUpdate handles the topic_update tool call. The current record is
// fetched first so omitted fields are sent unchanged.
func (h *Handlers) HandleUpdate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[UpdateRequest](req)
	if err != nil {
		return h.errorResult("topic_update", errors.NewInvalidRequest(err.Error())), nil
	}
	if input.ID == "" {
		return h.errorResult("topic_update", errors.NewInvalidRequest("id is required")), nil
	}

	current, err := h.store.Get(ctx, input.ID)
	if err != nil {
		return h.errorResult("topic_update", err), nil
	}

	next := *current
	if input.Title != nil {
		next.Title = *input.Title
	}
	if input.Content != nil {
		next.Content = *input.Content
	}
	if input.Tags != nil {
		next.Tags = []string(*input.Tags)
	}

	updated, err := h.store.Update(ctx, input.ID, next)
	if err != nil {
		return h.errorResult("topic_update", err), nil
	}
	return successResult(updated)
}

// HandleDelete handles the topic_delete tool call.
func (h *Handlers) HandleDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[DeleteRequest](req)
	if err != nil {
		return h.errorResult("topic_delete", errors.NewInvalidRequest(err.Error())), nil
	}
	if input.ID == "" {
		return h.errorResult("topic_delete", errors.NewInvalidRequest("id is required")), nil
	}

	if err := h.store.Delete(ctx, input.ID); err != nil {
		return h.errorResult("topic_delete", err), nil
	}
	return successResult(DeleteOutput{Deleted: true, ID: input.ID})
}

// errorResult creates an MCP error result from an error.
func (h *Handlers) errorResult(tool string, err error) *mcp.CallToolResult {
	kbErr := errors.As(err)
	h.log.Warn().Err(err).Str("tool", tool).Msg("tool call failed")

	errorObj := map[string]any{
		"code":    string(kbErr.Code),
		"message": kbErr.Message,
		"status":  kbErr.Status,
	}
	// Only include details for non-internal errors to avoid leaking
	// transport or decoding internals
	if kbErr.Code != errors.ErrInternal && kbErr.Details != nil {
		errorObj["details"] = kbErr.Details
	}

	content, _ := json.Marshal(map[string]any{"error": errorObj})
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
