package filesystem

import (
	"errors"
	"fmt"
)

// ErrNotDirectory is wrapped by PathError when the root is not a directory.
var ErrNotDirectory = errors.New("not a directory")

// ErrSymlinkCycle is wrapped by AccessError when a followed symlink leads back
// to a directory that is already being walked.
var ErrSymlinkCycle = errors.New("symlink cycle")

// ErrAlreadyVisited is wrapped by AccessError when a directory was already
// walked through a symlink alias.
var ErrAlreadyVisited = errors.New("already visited")

// ErrOutsideRoot is returned by ConfinePath for a path whose real location is
// not below the root.
var ErrOutsideRoot = errors.New("path is outside the project root")

// ErrSymlinkPath is returned by ConfinePath for a path that goes through a
// symlink when symlinks are not followed.
var ErrSymlinkPath = errors.New("path goes through a symlink")

// PathError reports an unusable traversal root. It aborts the walk.
type PathError struct {
	Path string
	Err  error
}

func (e *PathError) Error() string {
	return fmt.Sprintf("invalid project root %s: %v", e.Path, e.Err)
}

func (e *PathError) Unwrap() error {
	return e.Err
}

// AccessError reports an entry that could not be listed or inspected during a
// walk. The entry, and for folders its subtree, is skipped.
type AccessError struct {
	Path  string
	IsDir bool
	Err   error
}

func (e *AccessError) Error() string {
	kind := "file"
	if e.IsDir {
		kind = "directory"
	}
	return fmt.Sprintf("cannot access %s %s: %v", kind, e.Path, e.Err)
}

func (e *AccessError) Unwrap() error {
	return e.Err
}
