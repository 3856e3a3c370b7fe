package main

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/taigrr/codecat/internal/snapshot"
	"github.com/taigrr/codecat/internal/types"
	"github.com/taigrr/codecat/internal/uri"
)

var (
	snapshotService *snapshot.Service
	serverRules     types.FilterConfig
)

func rulesFor(override *types.FilterConfigFile) types.FilterConfig {
	if override != nil {
		return override.Sets()
	}
	return serverRules
}

func handleListFiles(ctx context.Context, req *mcp.CallToolRequest, input ListFilesInput) (*mcp.CallToolResult, ListFilesOutput, error) {
	files, skipped, err := snapshotService.Collect(rulesFor(input.Config), input.Path)
	if err != nil {
		return &mcp.CallToolResult{IsError: true}, ListFilesOutput{}, describeError(err)
	}

	total := len(files)
	offset := min(max(input.Offset, 0), total)
	end := total
	if input.Limit > 0 {
		end = min(offset+input.Limit, total)
	}

	root, err := absRoot()
	if err != nil {
		return &mcp.CallToolResult{IsError: true}, ListFilesOutput{}, err
	}

	items := make([]FileItem, 0, end-offset)
	for _, f := range files[offset:end] {
		rel, err := snapshotService.Relative(f)
		if err != nil {
			return &mcp.CallToolResult{IsError: true}, ListFilesOutput{}, err
		}
		items = append(items, FileItem{
			Path: rel,
			URI:  uri.FileURI(root, rel),
		})
	}

	return nil, ListFilesOutput{
		Files:      items,
		TotalFiles: total,
		HasMore:    end < total,
		Skipped:    skipped,
	}, nil
}

func handleExport(ctx context.Context, req *mcp.CallToolRequest, input ExportInput) (*mcp.CallToolResult, ExportOutput, error) {
	content, result, err := snapshotService.Export(rulesFor(input.Config), input.Path)
	if err != nil {
		return &mcp.CallToolResult{IsError: true}, ExportOutput{}, describeError(err)
	}

	return nil, ExportOutput{
		Content: content,
		Written: result.Written,
		Bytes:   result.Bytes,
		Skipped: result.Skipped,
	}, nil
}

func handleSearch(ctx context.Context, req *mcp.CallToolRequest, input SearchInput) (*mcp.CallToolResult, SearchOutput, error) {
	params := types.SearchParams{
		Query:         input.Query,
		UseRegex:      input.UseRegex,
		CaseSensitive: input.CaseSensitive,
		ContextLines:  input.ContextLines,
		Limit:         input.Limit,
		Offset:        input.Offset,
	}

	results, total, err := snapshotService.Search(rulesFor(input.Config), input.Path, params)
	if err != nil {
		return &mcp.CallToolResult{IsError: true}, SearchOutput{}, describeError(err)
	}

	return nil, SearchOutput{
		Results:    results,
		TotalFiles: total,
		HasMore:    max(input.Offset, 0)+len(results) < total,
	}, nil
}

func handleRules(ctx context.Context, req *mcp.CallToolRequest, input RulesInput) (*mcp.CallToolResult, RulesOutput, error) {
	root, err := absRoot()
	if err != nil {
		return &mcp.CallToolResult{IsError: true}, RulesOutput{}, err
	}
	return nil, RulesOutput{
		Root:  root,
		Rules: serverRules.File(),
	}, nil
}
