package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mizutama/pochi/internal/snippet"
)

// Tool definitions. Schemas mirror the engine operations; the color
// enum is the fixed six-color palette.

var listToolDef = mcp.NewTool("snippet_list",
	mcp.WithDescription("List all snippets in canonical order (newest first)."),
)

var addToolDef = mcp.NewTool("snippet_add",
	mcp.WithDescription("Create a snippet. It is prepended to the collection and, when signed in, mirrored to the remote collection in the background."),
	mcp.WithString("label",
		mcp.Required(),
		mcp.Description("Short display label for the snippet."),
	),
	mcp.WithString("content",
		mcp.Required(),
		mcp.Description("Snippet body. Rendered as Markdown in the web UI."),
	),
	mcp.WithString("color",
		mcp.Description("Card color. Defaults to blue."),
		mcp.Enum(snippet.Colors...),
	),
)

var updateToolDef = mcp.NewTool("snippet_update",
	mcp.WithDescription("Replace the label, content, and color of an existing snippet."),
	mcp.WithString("id",
		mcp.Required(),
		mcp.Description("Snippet id."),
	),
	mcp.WithString("label",
		mcp.Required(),
		mcp.Description("New label."),
	),
	mcp.WithString("content",
		mcp.Required(),
		mcp.Description("New content."),
	),
	mcp.WithString("color",
		mcp.Description("New card color. Defaults to blue."),
		mcp.Enum(snippet.Colors...),
	),
)

var deleteToolDef = mcp.NewTool("snippet_delete",
	mcp.WithDescription("Delete a snippet by id."),
	mcp.WithString("id",
		mcp.Required(),
		mcp.Description("Snippet id."),
	),
)

var exportToolDef = mcp.NewTool("snippet_export",
	mcp.WithDescription("Export the full collection as a JSON array, suitable for snippet_import."),
)

var importToolDef = mcp.NewTool("snippet_import",
	mcp.WithDescription("Replace the full collection with an exported JSON array. When signed in, the remote collection is wiped and re-uploaded in the background."),
	mcp.WithString("data",
		mcp.Required(),
		mcp.Description("JSON array of snippets, as produced by snippet_export."),
	),
)

var syncStatusToolDef = mcp.NewTool("snippet_sync_status",
	mcp.WithDescription("Report sign-in state, in-flight remote work, and any pending merge decision."),
)

var mergeResolveToolDef = mcp.NewTool("snippet_merge_resolve",
	mcp.WithDescription("Resolve the pending merge decision between the local and remote collections."),
	mcp.WithString("option",
		mcp.Required(),
		mcp.Description("upload pushes local and overwrites remote; download adopts remote; merge combines both with remote winning id collisions; dismiss adopts remote without touching it."),
		mcp.Enum("upload", "download", "merge", "dismiss"),
	),
)
