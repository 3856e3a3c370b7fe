package main

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/taigrr/codecat/internal/types"
)

type (
	// ListFilesInput contains parameters for listing collected files.
	ListFilesInput struct {
		Path   string                  `json:"path,omitempty" jsonschema:"Sub-directory to walk, relative to the project root (default: whole project)"`
		Config *types.FilterConfigFile `json:"config,omitempty" jsonschema:"Rules to use instead of the server's config"`
		Limit  int                     `json:"limit,omitempty" jsonschema:"Maximum number of files to return (default: all)"`
		Offset int                     `json:"offset,omitempty" jsonschema:"Skip first N files for pagination (default: 0)"`
	}

	// FileItem is a single collected file.
	FileItem struct {
		Path string `json:"path"`
		URI  string `json:"uri"`
	}

	// ListFilesOutput contains the collected files.
	ListFilesOutput struct {
		Files      []FileItem           `json:"files"`
		TotalFiles int                  `json:"totalFiles"`
		HasMore    bool                 `json:"hasMore,omitempty"`
		Skipped    []types.SkippedEntry `json:"skipped,omitempty"`
	}

	// ExportInput contains parameters for exporting a snapshot.
	ExportInput struct {
		Path   string                  `json:"path,omitempty" jsonschema:"Sub-directory to export, relative to the project root (default: whole project)"`
		Config *types.FilterConfigFile `json:"config,omitempty" jsonschema:"Rules to use instead of the server's config"`
	}

	// ExportOutput contains the concatenated snapshot.
	ExportOutput struct {
		Content string               `json:"content"`
		Written int                  `json:"written"`
		Bytes   int64                `json:"bytes"`
		Skipped []types.SkippedEntry `json:"skipped,omitempty"`
	}

	// SearchInput contains parameters for searching collected files.
	SearchInput struct {
		Query         string                  `json:"query" jsonschema:"Text or regex pattern to search for"`
		UseRegex      bool                    `json:"useRegex,omitempty" jsonschema:"Treat query as a regular expression (default: false)"`
		CaseSensitive bool                    `json:"caseSensitive,omitempty" jsonschema:"Case-sensitive matching (default: false)"`
		ContextLines  int                     `json:"contextLines,omitempty" jsonschema:"Lines of context around each match (default: 2)"`
		Limit         int                     `json:"limit,omitempty" jsonschema:"Maximum number of files to return (default: 15)"`
		Offset        int                     `json:"offset,omitempty" jsonschema:"Skip first N matching files for pagination (default: 0)"`
		Path          string                  `json:"path,omitempty" jsonschema:"Sub-directory to search, relative to the project root (default: whole project)"`
		Config        *types.FilterConfigFile `json:"config,omitempty" jsonschema:"Rules to use instead of the server's config"`
	}

	// SearchOutput contains the matching files.
	SearchOutput struct {
		Results    []types.SearchResult `json:"results"`
		TotalFiles int                  `json:"totalFiles"`
		HasMore    bool                 `json:"hasMore,omitempty"`
	}

	// RulesInput contains parameters for showing the active rules.
	RulesInput struct{}

	// RulesOutput contains the rules the server was started with.
	RulesOutput struct {
		Root  string                 `json:"root"`
		Rules types.FilterConfigFile `json:"rules"`
	}
)

func registerTools(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_files",
		Description: "List the project files allowed by the filter rules, in walk order. Excluded folders are never entered. Supports pagination with offset/limit.",
	}, handleListFiles)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "export",
		Description: "Concatenate every allowed file into one text snapshot: a 'Path:' line, a 'Content:' line, the file text, and a separator line per file. Unreadable or non-text files are skipped and listed.",
	}, handleExport)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "search",
		Description: "Search the contents of the allowed files with text or regex. Returns matching lines with context, grouped by file in walk order. Supports pagination with offset/limit.",
	}, handleSearch)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "rules",
		Description: "Show the project root and the allowed/ignored names and extensions the server uses by default.",
	}, handleRules)
}
