// Package search greps the contents of collected files.
package search

import (
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/taigrr/codecat/internal/logging"
	"github.com/taigrr/codecat/internal/types"
)

const (
	defaultContextLines = 2
	defaultLimit        = 15
)

// Service searches files below a project root.
type Service struct {
	root   string
	logger zerolog.Logger
}

// New creates a Service whose result paths are relative to root.
func New(root string) *Service {
	absPath, _ := filepath.Abs(root)
	return &Service{
		root:   absPath,
		logger: logging.Get("search"),
	}
}

// Search matches params.Query line by line against files. Results keep the
// order of files, so a walk order in gives a stable order out. The second
// return value is the number of matching files before pagination.
func (s *Service) Search(files types.CollectedFiles, params types.SearchParams) ([]types.SearchResult, int, error) {
	pattern, err := compile(params)
	if err != nil {
		return nil, 0, err
	}

	contextLines := params.ContextLines
	if contextLines <= 0 {
		contextLines = defaultContextLines
	}
	limit := params.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	offset := max(params.Offset, 0)

	// One slot per input file; empty slots are files without matches.
	found := make([]*types.SearchResult, len(files))

	numWorkers := max(min(runtime.NumCPU(), len(files)), 1)
	indexCh := make(chan int, len(files))

	var wg sync.WaitGroup
	for range numWorkers {
		wg.Go(func() {
			for idx := range indexCh {
				found[idx] = s.searchFile(files[idx], pattern, contextLines)
			}
		})
	}
	for i := range files {
		indexCh <- i
	}
	close(indexCh)
	wg.Wait()

	all := make([]types.SearchResult, 0, len(files))
	for _, r := range found {
		if r != nil {
			all = append(all, *r)
		}
	}

	total := len(all)
	if offset >= total {
		return []types.SearchResult{}, total, nil
	}
	end := min(offset+limit, total)
	return all[offset:end], total, nil
}

func (s *Service) searchFile(path string, pattern *regexp.Regexp, contextLines int) *types.SearchResult {
	content, err := os.ReadFile(path)
	if err != nil {
		s.logger.Debug().Err(err).Str("path", path).Msg("Skipping unreadable file")
		return nil
	}

	text := strings.ReplaceAll(string(content), "\r\n", "\n")
	lines := strings.Split(text, "\n")

	var matches []types.SearchMatch
	for lineNum, line := range lines {
		if !pattern.MatchString(line) {
			continue
		}
		startLine := max(lineNum-contextLines, 0)
		endLine := min(lineNum+contextLines+1, len(lines))
		matches = append(matches, types.SearchMatch{
			Line:    lineNum + 1,
			Context: strings.Join(lines[startLine:endLine], "\n"),
		})
	}
	if len(matches) == 0 {
		return nil
	}

	return &types.SearchResult{
		Path:    s.relative(path),
		Matches: matches,
	}
}

func (s *Service) relative(path string) string {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	rel, err := filepath.Rel(s.root, absPath)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

func compile(params types.SearchParams) (*regexp.Regexp, error) {
	query := params.Query
	if strings.TrimSpace(query) == "" {
		return nil, &SearchError{Message: "Search query cannot be empty"}
	}

	expr := query
	if !params.UseRegex {
		expr = regexp.QuoteMeta(query)
	}
	if !params.CaseSensitive {
		expr = "(?i)" + expr
	}

	pattern, err := regexp.Compile(expr)
	if err != nil {
		return nil, &SearchError{Message: "Invalid regex pattern: " + err.Error()}
	}
	return pattern, nil
}

// SearchError represents a search error.
type SearchError struct {
	Message string
}

func (e *SearchError) Error() string {
	return e.Message
}
