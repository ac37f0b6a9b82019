package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hivemindhq/hivemind/internal/entry"
)

var searchToolDef = mcp.NewTool("hivemind_search",
	mcp.WithDescription("Search the knowledge base for patterns, gotchas, debug solutions, and code snippets. Use when encountering unfamiliar errors, debugging, or checking for known solutions."),
	mcp.WithString("query",
		mcp.Required(),
		mcp.Description("Search query: error messages, concepts, tool names, etc."),
	),
	mcp.WithBoolean("full",
		mcp.Description("Return complete entries inline instead of compact results"),
	),
)

var getToolDef = mcp.NewTool("hivemind_get",
	mcp.WithDescription("Get a full knowledge base entry by ID. Use to read detailed solutions found via search."),
	mcp.WithNumber("id",
		mcp.Required(),
		mcp.Description("Entry ID"),
	),
	mcp.WithArray("fields",
		mcp.Description("Optional field projection, e.g. [\"solution\", \"gotchas\"]. id and title are always included."),
		mcp.Items(map[string]any{"type": "string"}),
	),
)

var submitToolDef = mcp.NewTool("hivemind_submit",
	mcp.WithDescription("Submit a new entry to the knowledge base. Use after solving a non-trivial bug, discovering a gotcha, or establishing a reusable pattern. Do NOT submit trivial fixes or obvious solutions."),
	mcp.WithString("title",
		mcp.Required(),
		mcp.Description("Descriptive title, min 10 chars"),
	),
	mcp.WithString("category",
		mcp.Required(),
		mcp.Description("Entry kind"),
		mcp.Enum(entry.Categories...),
	),
	mcp.WithString("problem",
		mcp.Required(),
		mcp.Description("What goes wrong, min 50 chars"),
	),
	mcp.WithString("solution",
		mcp.Required(),
		mcp.Description("How to fix it, min 80 chars"),
	),
	mcp.WithString("severity",
		mcp.Required(),
		mcp.Enum(entry.Severities...),
	),
	mcp.WithArray("tags",
		mcp.Required(),
		mcp.Description("Min 3 tags: language, topic, tools"),
		mcp.Items(map[string]any{"type": "string"}),
	),
	mcp.WithArray("keywords",
		mcp.Required(),
		mcp.Description("Min 3 search terms beyond tags"),
		mcp.Items(map[string]any{"type": "string"}),
	),
	mcp.WithArray("error_messages",
		mcp.Description("Exact error strings (required for gotcha/debug)"),
		mcp.Items(map[string]any{"type": "string"}),
	),
	mcp.WithString("language", mcp.Description("Primary language, lowercase (e.g. go, typescript)")),
	mcp.WithString("framework", mcp.Description("Framework if relevant (e.g. react, django)")),
	mcp.WithString("why", mcp.Description("Root cause explanation")),
	mcp.WithArray("gotchas",
		mcp.Description("Edge cases or common mistakes"),
		mcp.Items(map[string]any{"type": "string"}),
	),
	mcp.WithArray("environment",
		mcp.Description("Where this applies (e.g. docker, ci, browser)"),
		mcp.Items(map[string]any{"type": "string"}),
	),
	mcp.WithString("context", mcp.Description("When does this happen?")),
	mcp.WithString("version_info", mcp.Description("Version constraints, e.g. \"React 18+\"")),
	mcp.WithArray("code_snippets",
		mcp.Description("Code examples as {code, lang?, description?} objects"),
		mcp.Items(map[string]any{
			"type": "object",
			"properties": map[string]any{
				"code":        map[string]any{"type": "string"},
				"lang":        map[string]any{"type": "string"},
				"description": map[string]any{"type": "string"},
			},
			"required": []string{"code"},
		}),
	),
	mcp.WithArray("related_entries",
		mcp.Description("IDs of related entries"),
		mcp.Items(map[string]any{"type": "integer"}),
	),
)

var listToolDef = mcp.NewTool("hivemind_list",
	mcp.WithDescription("Browse knowledge base entries newest-first, with optional metadata filters."),
	mcp.WithString("category", mcp.Enum(entry.Categories...)),
	mcp.WithString("tag"),
	mcp.WithString("language"),
	mcp.WithString("framework"),
	mcp.WithString("severity", mcp.Enum(entry.Severities...)),
	mcp.WithString("environment"),
	mcp.WithNumber("limit", mcp.Description("Max entries to return (default 50)")),
	mcp.WithNumber("cursor", mcp.Description("Keyset cursor: return entries with id below this (from next_cursor)")),
)

var statsToolDef = mcp.NewTool("hivemind_stats",
	mcp.WithDescription("Get knowledge base statistics: entry counts by category, tag, language, framework, severity, and environment."),
)
