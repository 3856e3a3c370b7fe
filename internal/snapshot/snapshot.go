// Package snapshot ties the walker and writer together for a project root.
package snapshot

import (
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/taigrr/codecat/internal/filesystem"
	"github.com/taigrr/codecat/internal/logging"
	"github.com/taigrr/codecat/internal/pathfilter"
	"github.com/taigrr/codecat/internal/search"
	"github.com/taigrr/codecat/internal/types"
	"github.com/taigrr/codecat/internal/writer"
)

// Options tune how a project is walked and written.
type Options struct {
	// Sort orders every directory listing by name for reproducible output.
	Sort bool
	// FollowSymlinks descends into symlinked directories.
	FollowSymlinks bool
	// MaxFileSize skips larger files when writing. Zero means no limit.
	MaxFileSize int64
}

// Service collects and exports files below a fixed project root.
type Service struct {
	root   string
	opts   Options
	logger zerolog.Logger
}

// New creates a Service for root.
func New(root string, opts Options) *Service {
	return &Service{
		root:   root,
		opts:   opts,
		logger: logging.Get("snapshot"),
	}
}

// Root returns the project root.
func (s *Service) Root() string {
	return s.root
}

// Collect walks subdir of the project root (the root itself when empty) and
// returns the included files along with anything skipped on the way. subdir
// must stay below the root after symlinks are resolved, and may not go
// through a symlink at all unless FollowSymlinks is set.
func (s *Service) Collect(cfg types.FilterConfig, subdir string) (types.CollectedFiles, []types.SkippedEntry, error) {
	start := s.root
	if subdir != "" {
		resolved, err := filesystem.ResolvePath(s.root, subdir)
		if err != nil {
			return nil, nil, err
		}
		if err := filesystem.ConfinePath(s.root, resolved, s.opts.FollowSymlinks); err != nil {
			return nil, nil, err
		}
		start = resolved
	}

	var skipped []types.SkippedEntry
	w := filesystem.New(pathfilter.New(&cfg),
		filesystem.WithSortedEntries(s.opts.Sort),
		filesystem.WithFollowSymlinks(s.opts.FollowSymlinks),
		filesystem.WithSkipHandler(func(e types.SkippedEntry) {
			skipped = append(skipped, e)
		}),
	)

	done := logging.LogOperationStart(s.logger, "collect")
	files, err := w.Collect(start)
	done()
	if err != nil {
		return nil, skipped, err
	}
	return files, skipped, nil
}

// Export collects subdir and renders the artifact in memory.
func (s *Service) Export(cfg types.FilterConfig, subdir string) (string, types.ExportResult, error) {
	files, skipped, err := s.Collect(cfg, subdir)
	if err != nil {
		return "", types.ExportResult{}, err
	}

	content, result := s.writer().Render(files)
	result.Skipped = append(skipped, result.Skipped...)
	return content, result, nil
}

// ExportFile collects the whole project and writes the artifact to output.
func (s *Service) ExportFile(cfg types.FilterConfig, output string) (types.ExportResult, error) {
	files, skipped, err := s.Collect(cfg, "")
	if err != nil {
		return types.ExportResult{}, err
	}

	result, err := s.writer().WriteFile(output, files)
	result.Skipped = append(skipped, result.Skipped...)
	if err != nil {
		return result, err
	}

	s.logger.Info().
		Str("output", output).
		Int("written", result.Written).
		Int("skipped", len(result.Skipped)).
		Msg("Export finished")
	return result, nil
}

// Search collects subdir and greps the collected files.
func (s *Service) Search(cfg types.FilterConfig, subdir string, params types.SearchParams) ([]types.SearchResult, int, error) {
	files, _, err := s.Collect(cfg, subdir)
	if err != nil {
		return nil, 0, err
	}
	return search.New(s.root).Search(files, params)
}

// Relative returns path relative to the project root, with forward slashes.
func (s *Service) Relative(path string) (string, error) {
	absRoot, err := filepath.Abs(s.root)
	if err != nil {
		return "", err
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(absRoot, absPath)
	if err != nil {
		return "", fmt.Errorf("path %s is not under %s: %w", path, s.root, err)
	}
	return filepath.ToSlash(rel), nil
}

func (s *Service) writer() *writer.Writer {
	return writer.New(writer.WithMaxFileSize(s.opts.MaxFileSize))
}
