package mcp

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mizutama/pochi/internal/engine"
	"github.com/mizutama/pochi/internal/errors"
	"github.com/mizutama/pochi/internal/snippet"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	engine *engine.Engine
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(e *engine.Engine) *Handlers {
	return &Handlers{engine: e}
}

// Request types for each tool

// AddRequest represents the arguments for snippet_add.
type AddRequest struct {
	Label   string `json:"label"`
	Content string `json:"content"`
	Color   string `json:"color,omitempty"`
}

// UpdateRequest represents the arguments for snippet_update.
type UpdateRequest struct {
	ID      string `json:"id"`
	Label   string `json:"label"`
	Content string `json:"content"`
	Color   string `json:"color,omitempty"`
}

// DeleteRequest represents the arguments for snippet_delete.
type DeleteRequest struct {
	ID string `json:"id"`
}

// ImportRequest represents the arguments for snippet_import.
type ImportRequest struct {
	Data string `json:"data"`
}

// MergeResolveRequest represents the arguments for snippet_merge_resolve.
type MergeResolveRequest struct {
	Option string `json:"option"`
}

// HandleList handles the snippet_list tool call.
func (h *Handlers) HandleList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	items := h.engine.Snippets()
	return successResult(map[string]any{
		"snippets": items,
		"count":    len(items),
	})
}

// HandleAdd handles the snippet_add tool call.
func (h *Handlers) HandleAdd(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[AddRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if input.Label == "" {
		return errorResult(errors.NewInvalidRequest("label is required")), nil
	}
	if input.Content == "" {
		return errorResult(errors.NewInvalidRequest("content is required")), nil
	}
	color, perr := paletteColor(input.Color)
	if perr != nil {
		return errorResult(perr), nil
	}

	s, err := h.engine.AddSnippet(input.Label, input.Content, color)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(map[string]any{"snippet": s})
}

// HandleUpdate handles the snippet_update tool call.
func (h *Handlers) HandleUpdate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[UpdateRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if input.ID == "" {
		return errorResult(errors.NewInvalidRequest("id is required")), nil
	}
	if input.Label == "" {
		return errorResult(errors.NewInvalidRequest("label is required")), nil
	}
	if input.Content == "" {
		return errorResult(errors.NewInvalidRequest("content is required")), nil
	}
	color, perr := paletteColor(input.Color)
	if perr != nil {
		return errorResult(perr), nil
	}

	if !h.engine.UpdateSnippet(input.ID, input.Label, input.Content, color) {
		return errorResult(errors.NewNotFound(input.ID)), nil
	}
	return successResult(map[string]any{
		"snippet": snippet.Snippet{ID: input.ID, Label: input.Label, Content: input.Content, Color: color},
	})
}

// HandleDelete handles the snippet_delete tool call.
func (h *Handlers) HandleDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[DeleteRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if input.ID == "" {
		return errorResult(errors.NewInvalidRequest("id is required")), nil
	}

	if !h.engine.DeleteSnippet(input.ID) {
		return errorResult(errors.NewNotFound(input.ID)), nil
	}
	return successResult(map[string]any{"deleted": input.ID})
}

// HandleExport handles the snippet_export tool call.
func (h *Handlers) HandleExport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	data, err := h.engine.ExportSnippets()
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(map[string]any{
		"data":  string(data),
		"count": len(h.engine.Snippets()),
	})
}

// HandleImport handles the snippet_import tool call.
func (h *Handlers) HandleImport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ImportRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	if err := h.engine.ImportSnippets([]byte(input.Data)); err != nil {
		return errorResult(err), nil
	}
	return successResult(map[string]any{"imported": len(h.engine.Snippets())})
}

// HandleSyncStatus handles the snippet_sync_status tool call.
func (h *Handlers) HandleSyncStatus(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	auth := h.engine.Auth()
	status := map[string]any{
		"signed_in":            auth.SignedIn(),
		"syncing":              h.engine.IsSyncing(),
		"needs_merge_decision": h.engine.NeedsMergeDecision(),
	}
	if auth.SignedIn() {
		status["account_id"] = auth.AccountID
	}
	if local, remoteSnap := h.engine.MergeSnapshots(); local != nil || remoteSnap != nil {
		status["local_count"] = len(local)
		status["cloud_count"] = len(remoteSnap)
	}
	return successResult(status)
}

// HandleMergeResolve handles the snippet_merge_resolve tool call.
func (h *Handlers) HandleMergeResolve(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[MergeResolveRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	if input.Option == "dismiss" {
		if !h.engine.NeedsMergeDecision() {
			return errorResult(errors.NewNoMergePending()), nil
		}
		h.engine.DismissMerge()
	} else if err := h.engine.ResolveMerge(ctx, engine.MergeOption(input.Option)); err != nil {
		return errorResult(err), nil
	}

	items := h.engine.Snippets()
	return successResult(map[string]any{
		"resolved": input.Option,
		"count":    len(items),
	})
}

// paletteColor validates an optional color argument, defaulting empty
// to blue.
func paletteColor(c string) (string, error) {
	if c == "" {
		return snippet.ColorBlue, nil
	}
	if !snippet.ValidColor(c) {
		return "", errors.NewInvalidRequest("unknown color: " + c)
	}
	return c, nil
}

// Result helpers

// errorResult creates an MCP error result from any error.
// Uses IsError: true so MCP clients recognize failures properly.
// Note: Internal error details are not exposed to prevent leaking sensitive info.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	if perr, ok := err.(*errors.PochiError); ok {
		errorObj := map[string]any{
			"code":    perr.Code,
			"message": perr.Message,
			"status":  perr.Status,
		}
		// Only include details for non-internal errors to avoid leaking
		// sensitive info like file paths or SQL errors
		if perr.Code != errors.ErrInternal && perr.Details != nil {
			errorObj["details"] = perr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    "INTERNAL",
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
