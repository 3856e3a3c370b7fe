// Package filesystem walks a project tree and collects the files that pass
// the filter policy.
package filesystem

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"github.com/taigrr/codecat/internal/logging"
	"github.com/taigrr/codecat/internal/pathfilter"
	"github.com/taigrr/codecat/internal/types"
)

// Walker performs a pre-order traversal of a directory tree, pruning folders
// the filter rejects before they are ever listed.
type Walker struct {
	pathFilter     *pathfilter.PathFilter
	logger         zerolog.Logger
	sortEntries    bool
	followSymlinks bool
	onSkip         func(types.SkippedEntry)
}

// Option configures a Walker.
type Option func(*Walker)

// WithLogger sets the logger used to report skipped entries.
func WithLogger(logger zerolog.Logger) Option {
	return func(w *Walker) {
		w.logger = logger
	}
}

// WithSortedEntries sorts each directory listing by name before filtering.
// Without it, siblings keep the order the operating system lists them in,
// which differs between platforms and filesystems.
func WithSortedEntries(sorted bool) Option {
	return func(w *Walker) {
		w.sortEntries = sorted
	}
}

// WithFollowSymlinks descends into symlinked directories. Visited real paths
// are tracked so a cyclic link is reported instead of walked forever.
func WithFollowSymlinks(follow bool) Option {
	return func(w *Walker) {
		w.followSymlinks = follow
	}
}

// WithSkipHandler registers fn to receive every entry skipped because of a
// recoverable error.
func WithSkipHandler(fn func(types.SkippedEntry)) Option {
	return func(w *Walker) {
		w.onSkip = fn
	}
}

// New creates a Walker. A nil filter admits every folder and no file.
func New(pf *pathfilter.PathFilter, opts ...Option) *Walker {
	if pf == nil {
		pf = pathfilter.New(nil)
	}
	w := &Walker{
		pathFilter: pf,
		logger:     logging.Get("filesystem"),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// CollectProjectFiles walks root with default options and returns the paths
// of every included file.
func CollectProjectFiles(root string, cfg types.FilterConfig) (types.CollectedFiles, error) {
	return New(pathfilter.New(&cfg)).Collect(root)
}

// walk holds the state of a single traversal.
type walk struct {
	files   types.CollectedFiles
	visited map[string]struct{}
}

// Collect walks root and returns the included file paths in pre-order. Each
// path is root joined with the entry's path relative to root.
func (w *Walker) Collect(root string) (types.CollectedFiles, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, &PathError{Path: root, Err: err}
	}
	if !info.IsDir() {
		return nil, &PathError{Path: root, Err: ErrNotDirectory}
	}

	entries, err := w.readDir(root)
	if err != nil {
		return nil, &PathError{Path: root, Err: err}
	}

	state := &walk{files: types.CollectedFiles{}}
	if w.followSymlinks {
		state.visited = make(map[string]struct{})
		if real, err := filepath.EvalSymlinks(root); err == nil {
			state.visited[real] = struct{}{}
		}
	}

	w.logger.Debug().Str("root", root).Msg("Walking project")
	w.visit(state, root, entries)
	w.logger.Debug().Str("root", root).Int("files", len(state.files)).Msg("Walk finished")

	return state.files, nil
}

// visit filters one directory's children, records its files, then descends
// into the surviving sub-directories.
func (w *Walker) visit(state *walk, dir string, entries []fs.DirEntry) {
	var dirs, files []types.Entry
	links := make(map[string]bool)

	for _, de := range entries {
		name := de.Name()
		path := filepath.Join(dir, name)
		file := types.Entry{Name: name, Path: path, Ext: pathfilter.Ext(name)}
		folder := types.Entry{Name: name, Path: path, IsDir: true}

		switch {
		case de.IsDir():
			dirs = append(dirs, folder)
		case de.Type()&fs.ModeSymlink != 0:
			target, err := os.Stat(path)
			if err != nil || !target.IsDir() {
				// Dangling links are still files; reading them is the
				// writer's problem.
				files = append(files, file)
				continue
			}
			if w.followSymlinks {
				dirs = append(dirs, folder)
				links[path] = true
			} else {
				w.logger.Debug().Str("path", path).Msg("Not following directory symlink")
			}
		default:
			files = append(files, file)
		}
	}

	var allowedDirs []types.Entry
	for _, d := range dirs {
		if w.pathFilter.Allows(d) {
			allowedDirs = append(allowedDirs, d)
		} else {
			w.logger.Trace().Str("path", d.Path).Msg("Pruned folder")
		}
	}

	for _, f := range files {
		if w.pathFilter.Allows(f) {
			state.files = append(state.files, f.Path)
		}
	}

	for _, d := range allowedDirs {
		path := d.Path
		if w.followSymlinks {
			real, err := filepath.EvalSymlinks(path)
			if err != nil {
				w.skip(path, true, types.ReasonAccess, err)
				continue
			}
			if _, seen := state.visited[real]; seen {
				if links[path] {
					w.skip(path, true, types.ReasonCycle, fmt.Errorf("%w: %s", ErrSymlinkCycle, real))
				} else {
					w.skip(path, true, types.ReasonRevisit, fmt.Errorf("%w: %s", ErrAlreadyVisited, real))
				}
				continue
			}
			state.visited[real] = struct{}{}
		}

		children, err := w.readDir(path)
		if err != nil {
			w.skip(path, true, types.ReasonAccess, err)
			continue
		}
		w.visit(state, path, children)
	}
}

// readDir lists dir in the order the operating system returns entries,
// sorting by name only when the walker was asked to.
func (w *Walker) readDir(dir string) ([]fs.DirEntry, error) {
	f, err := os.Open(dir)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	entries, err := f.ReadDir(-1)
	if err != nil {
		return nil, err
	}

	if w.sortEntries {
		sort.Slice(entries, func(i, j int) bool {
			return entries[i].Name() < entries[j].Name()
		})
	}
	return entries, nil
}

func (w *Walker) skip(path string, isDir bool, reason string, err error) {
	accessErr := &AccessError{Path: path, IsDir: isDir, Err: err}
	w.logger.Warn().Err(accessErr).Str("path", path).Str("reason", reason).Msg("Skipping entry")

	if w.onSkip != nil {
		w.onSkip(types.SkippedEntry{
			Path:   path,
			Reason: reason,
			Err:    accessErr.Error(),
			IsDir:  isDir,
		})
	}
}

// ResolvePath resolves a relative path within root and rejects anything that
// would escape it.
func ResolvePath(root, relativePath string) (string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", err
	}

	relativePath = strings.TrimSpace(relativePath)
	relativePath = strings.TrimPrefix(relativePath, "/")

	absPath, err := filepath.Abs(filepath.Join(absRoot, relativePath))
	if err != nil {
		return "", err
	}

	relPath, err := filepath.Rel(absRoot, absPath)
	if err != nil {
		return "", err
	}
	if escapes(relPath) {
		return "", fmt.Errorf("path traversal not allowed: %s", relativePath)
	}

	return absPath, nil
}

// ConfinePath checks that path, already resolved below root by ResolvePath,
// really lives below root once symlinks are resolved. Unless followSymlinks
// is set, no component of path below root may be a symlink at all. For a path
// that does not exist, the longest existing prefix is what gets resolved.
func ConfinePath(root, path string, followSymlinks bool) error {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return err
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	rel, err := filepath.Rel(absRoot, absPath)
	if err != nil || escapes(rel) {
		return fmt.Errorf("%w: %s", ErrOutsideRoot, path)
	}

	if !followSymlinks && rel != "." {
		current := absRoot
		for _, part := range strings.Split(rel, string(filepath.Separator)) {
			current = filepath.Join(current, part)
			info, err := os.Lstat(current)
			if err != nil {
				break
			}
			if info.Mode()&fs.ModeSymlink != 0 {
				return fmt.Errorf("%w: %s", ErrSymlinkPath, current)
			}
		}
	}

	realRoot, err := filepath.EvalSymlinks(absRoot)
	if err != nil {
		return &PathError{Path: root, Err: err}
	}
	realPath, err := evalExisting(absPath)
	if err != nil {
		return &PathError{Path: path, Err: err}
	}

	realRel, err := filepath.Rel(realRoot, realPath)
	if err != nil || escapes(realRel) {
		return fmt.Errorf("%w: %s resolves to %s", ErrOutsideRoot, path, realPath)
	}
	return nil
}

// evalExisting resolves symlinks in the longest existing prefix of path and
// appends the missing remainder unchanged.
func evalExisting(path string) (string, error) {
	real, err := filepath.EvalSymlinks(path)
	if err == nil || !errors.Is(err, fs.ErrNotExist) {
		return real, err
	}
	parent := filepath.Dir(path)
	if parent == path {
		return path, nil
	}
	realParent, err := evalExisting(parent)
	if err != nil {
		return "", err
	}
	return filepath.Join(realParent, filepath.Base(path)), nil
}

func escapes(rel string) bool {
	return rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// IsNotExist reports whether err says the root is missing.
func IsNotExist(err error) bool {
	var pathErr *PathError
	return errors.As(err, &pathErr) && errors.Is(pathErr.Err, fs.ErrNotExist)
}
