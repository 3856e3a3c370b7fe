package filesystem

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taigrr/codecat/internal/pathfilter"
	"github.com/taigrr/codecat/internal/types"
)

// setupTestTree creates the given entries under a temp dir. Entries ending
// in "/" are created as empty directories.
func setupTestTree(t *testing.T, entries ...string) string {
	t.Helper()
	root := t.TempDir()
	for _, entry := range entries {
		full := filepath.Join(root, filepath.FromSlash(entry))
		if strings.HasSuffix(entry, "/") {
			require.NoError(t, os.MkdirAll(full, 0o755))
			continue
		}
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte("content of "+entry), 0o644))
	}
	return root
}

// relative strips root from collected paths so assertions read naturally.
func relative(t *testing.T, root string, files types.CollectedFiles) []string {
	t.Helper()
	out := make([]string, 0, len(files))
	for _, f := range files {
		rel, err := filepath.Rel(root, f)
		require.NoError(t, err)
		out = append(out, filepath.ToSlash(rel))
	}
	return out
}

func quietWalker(pf *pathfilter.PathFilter, opts ...Option) *Walker {
	return New(pf, append([]Option{WithLogger(zerolog.Nop())}, opts...)...)
}

func TestCollectProjectFiles_Scenarios(t *testing.T) {
	t.Run("extension allowed and venv ignored", func(t *testing.T) {
		root := setupTestTree(t, "a.py", "b.txt", "venv/c.py")
		cfg := types.FilterConfigFile{
			AllowedExtensions: []string{".py"},
			IgnoredNames:      []string{"venv"},
		}.Sets()

		files, err := CollectProjectFiles(root, cfg)
		require.NoError(t, err)
		assert.Equal(t, []string{"a.py"}, relative(t, root, files))
	})

	t.Run("nothing allowed yields nothing", func(t *testing.T) {
		root := setupTestTree(t, "src/x.go", "bin/y.exe")

		files, err := CollectProjectFiles(root, types.FilterConfig{})
		require.NoError(t, err)
		assert.Empty(t, files)
		assert.NotNil(t, files)
	})

	t.Run("names and extensions combine", func(t *testing.T) {
		root := setupTestTree(t, "Makefile", "main.c", "main.o")
		cfg := types.FilterConfigFile{
			AllowedNames:      []string{"Makefile"},
			AllowedExtensions: []string{".c"},
		}.Sets()

		files, err := quietWalker(pathfilter.New(&cfg), WithSortedEntries(true)).Collect(root)
		require.NoError(t, err)
		assert.Equal(t, []string{"Makefile", "main.c"}, relative(t, root, files))
	})

	t.Run("name both allowed and ignored is excluded", func(t *testing.T) {
		root := setupTestTree(t, "keep.md", "secret.md", "secret/inner.md")
		cfg := types.FilterConfigFile{
			AllowedNames:      []string{"secret.md", "secret"},
			AllowedExtensions: []string{".md"},
			IgnoredNames:      []string{"secret.md", "secret"},
		}.Sets()

		files, err := CollectProjectFiles(root, cfg)
		require.NoError(t, err)
		assert.Equal(t, []string{"keep.md"}, relative(t, root, files))
	})
}

func TestWalker_Pruning(t *testing.T) {
	root := setupTestTree(t,
		"main.go",
		"node_modules/pkg/index.go",
		"node_modules/pkg/deep/more.go",
		"node_modules/other.go",
		"internal/app/app.go",
	)
	cfg := types.FilterConfigFile{
		AllowedExtensions: []string{".go"},
		IgnoredNames:      []string{"node_modules"},
	}.Sets()

	var seen []string
	pf := pathfilter.New(&cfg).WithObserver(func(kind pathfilter.Kind, name string, allowed bool) {
		seen = append(seen, name)
	})

	files, err := quietWalker(pf, WithSortedEntries(true)).Collect(root)
	require.NoError(t, err)

	assert.Equal(t, []string{"main.go", "internal/app/app.go"}, relative(t, root, files))
	for _, name := range []string{"pkg", "deep", "index.go", "more.go", "other.go"} {
		assert.NotContains(t, seen, name, "entry under pruned folder reached the filter")
	}
	// main.go, internal, node_modules, app, app.go
	assert.Len(t, seen, 5)
}

func TestWalker_FolderAllowList(t *testing.T) {
	root := setupTestTree(t, "README.md", "src/a.md", "docs/b.md", "src/docs/c.md")
	cfg := types.FilterConfigFile{
		AllowedNames:      []string{"src"},
		AllowedExtensions: []string{".md"},
	}.Sets()

	files, err := quietWalker(pathfilter.New(&cfg), WithSortedEntries(true)).Collect(root)
	require.NoError(t, err)

	// Top-level files are always considered; only src is descended, and
	// inside it "docs" is not on the allow list.
	assert.Equal(t, []string{"README.md", "src/a.md"}, relative(t, root, files))
}

func TestWalker_PreOrder(t *testing.T) {
	root := setupTestTree(t, "z/z.go", "b.go", "a/a.go", "a/b/c.go", "c.go")
	cfg := types.FilterConfigFile{AllowedExtensions: []string{".go"}}.Sets()

	files, err := quietWalker(pathfilter.New(&cfg), WithSortedEntries(true)).Collect(root)
	require.NoError(t, err)

	// A directory's own files come before anything from its sub-directories.
	assert.Equal(t, []string{"b.go", "c.go", "a/a.go", "a/b/c.go", "z/z.go"}, relative(t, root, files))
}

func TestWalker_Idempotent(t *testing.T) {
	root := setupTestTree(t, "a.go", "b.go", "x/c.go", "x/y/d.go", "skip/e.go")
	cfg := types.FilterConfigFile{
		AllowedExtensions: []string{".go"},
		IgnoredNames:      []string{"skip"},
	}.Sets()

	first, err := CollectProjectFiles(root, cfg)
	require.NoError(t, err)
	second, err := CollectProjectFiles(root, cfg)
	require.NoError(t, err)

	a, b := relative(t, root, first), relative(t, root, second)
	sort.Strings(a)
	sort.Strings(b)
	assert.Equal(t, a, b)
	assert.Len(t, a, 4)
}

func TestWalker_RootErrors(t *testing.T) {
	t.Run("missing root", func(t *testing.T) {
		_, err := CollectProjectFiles(filepath.Join(t.TempDir(), "nope"), types.FilterConfig{})
		require.Error(t, err)

		var pathErr *PathError
		require.ErrorAs(t, err, &pathErr)
		assert.ErrorIs(t, err, fs.ErrNotExist)
		assert.True(t, IsNotExist(err))
	})

	t.Run("root is a file", func(t *testing.T) {
		root := setupTestTree(t, "file.txt")
		_, err := CollectProjectFiles(filepath.Join(root, "file.txt"), types.FilterConfig{})

		var pathErr *PathError
		require.ErrorAs(t, err, &pathErr)
		assert.ErrorIs(t, err, ErrNotDirectory)
		assert.False(t, IsNotExist(err))
		assert.Contains(t, err.Error(), "file.txt")
	})
}

func TestWalker_UnreadableFolderIsSkipped(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced here")
	}

	root := setupTestTree(t, "a.go", "locked/b.go", "open/c.go")
	locked := filepath.Join(root, "locked")
	require.NoError(t, os.Chmod(locked, 0o000))
	t.Cleanup(func() { os.Chmod(locked, 0o755) })

	cfg := types.FilterConfigFile{AllowedExtensions: []string{".go"}}.Sets()

	var skipped []types.SkippedEntry
	w := quietWalker(pathfilter.New(&cfg),
		WithSortedEntries(true),
		WithSkipHandler(func(e types.SkippedEntry) { skipped = append(skipped, e) }),
	)

	files, err := w.Collect(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.go", "open/c.go"}, relative(t, root, files))

	require.Len(t, skipped, 1)
	assert.Equal(t, locked, skipped[0].Path)
	assert.Equal(t, types.ReasonAccess, skipped[0].Reason)
	assert.True(t, skipped[0].IsDir)
	assert.Contains(t, skipped[0].Err, "cannot access directory")
}

func TestWalker_FolderRemovedBeforeVisit(t *testing.T) {
	root := setupTestTree(t, "a.go", "gone/b.go", "keep/c.go")
	cfg := types.FilterConfigFile{AllowedExtensions: []string{".go"}}.Sets()

	// The folder passes the filter, then disappears before it is listed.
	pf := pathfilter.New(&cfg).WithObserver(func(kind pathfilter.Kind, name string, allowed bool) {
		if kind == pathfilter.Folder && name == "gone" {
			require.NoError(t, os.RemoveAll(filepath.Join(root, "gone")))
		}
	})

	var skipped []types.SkippedEntry
	w := quietWalker(pf,
		WithSortedEntries(true),
		WithSkipHandler(func(e types.SkippedEntry) { skipped = append(skipped, e) }),
	)

	files, err := w.Collect(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.go", "keep/c.go"}, relative(t, root, files))

	require.Len(t, skipped, 1)
	assert.Equal(t, filepath.Join(root, "gone"), skipped[0].Path)
	assert.Equal(t, types.ReasonAccess, skipped[0].Reason)
	assert.True(t, skipped[0].IsDir)
	assert.Contains(t, skipped[0].Err, "cannot access directory")
}

func TestWalker_Symlinks(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on windows")
	}

	setup := func(t *testing.T) string {
		root := setupTestTree(t, "real/a.go", "b.go")
		require.NoError(t, os.Symlink(filepath.Join(root, "real"), filepath.Join(root, "linked")))
		require.NoError(t, os.Symlink(root, filepath.Join(root, "real", "loop")))
		require.NoError(t, os.Symlink(filepath.Join(root, "b.go"), filepath.Join(root, "alias.go")))
		return root
	}
	cfg := types.FilterConfigFile{AllowedExtensions: []string{".go"}}.Sets()

	t.Run("not followed by default", func(t *testing.T) {
		root := setup(t)
		files, err := quietWalker(pathfilter.New(&cfg), WithSortedEntries(true)).Collect(root)
		require.NoError(t, err)
		assert.Equal(t, []string{"alias.go", "b.go", "real/a.go"}, relative(t, root, files))
	})

	t.Run("followed with cycle detection", func(t *testing.T) {
		root := setup(t)

		var skipped []types.SkippedEntry
		w := quietWalker(pathfilter.New(&cfg),
			WithSortedEntries(true),
			WithFollowSymlinks(true),
			WithSkipHandler(func(e types.SkippedEntry) { skipped = append(skipped, e) }),
		)

		files, err := w.Collect(root)
		require.NoError(t, err)
		assert.Equal(t, []string{"alias.go", "b.go", "linked/a.go"}, relative(t, root, files))

		reasons := make(map[string]string)
		for _, s := range skipped {
			rel, _ := filepath.Rel(root, s.Path)
			reasons[filepath.ToSlash(rel)] = s.Reason
		}
		// "linked" is walked first and claims real/, so the plain directory
		// real/ is then a repeat; the link "linked/loop" points back at the
		// root.
		assert.Equal(t, map[string]string{
			"linked/loop": types.ReasonCycle,
			"real":        types.ReasonRevisit,
		}, reasons)

		for _, s := range skipped {
			if s.Reason == types.ReasonRevisit {
				assert.NotContains(t, s.Err, "cycle")
				assert.Contains(t, s.Err, ErrAlreadyVisited.Error())
			}
		}
	})
}

func TestWalker_NilFilter(t *testing.T) {
	root := setupTestTree(t, "a.go", "d/b.go")

	files, err := quietWalker(nil).Collect(root)
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestResolvePath(t *testing.T) {
	root := t.TempDir()

	tests := []struct {
		name    string
		path    string
		want    string
		wantErr bool
	}{
		{"empty is root", "", root, false},
		{"dot is root", ".", root, false},
		{"nested", "src/app", filepath.Join(root, "src", "app"), false},
		{"leading slash stays inside", "/src", filepath.Join(root, "src"), false},
		{"inner dotdot", "src/../lib", filepath.Join(root, "lib"), false},
		{"dotdot file name", "..data", filepath.Join(root, "..data"), false},
		{"escape", "../etc", "", true},
		{"deep escape", "src/../../etc/passwd", "", true},
		{"parent", "..", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolvePath(root, tt.path)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConfinePath(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on windows")
	}

	root := setupTestTree(t, "src/app/main.go")
	outside := setupTestTree(t, "secret.go")
	require.NoError(t, os.Symlink(outside, filepath.Join(root, "out")))
	require.NoError(t, os.Symlink(filepath.Join(root, "src"), filepath.Join(root, "alias")))

	tests := []struct {
		name   string
		path   string
		follow bool
		want   error
	}{
		{"plain directory", "src/app", false, nil},
		{"root itself", ".", false, nil},
		{"missing path", "nope/deeper", false, nil},
		{"link outside", "out", false, ErrSymlinkPath},
		{"link outside followed", "out", true, ErrOutsideRoot},
		{"missing below link outside followed", "out/x", true, ErrOutsideRoot},
		{"link inside", "alias/app", false, ErrSymlinkPath},
		{"link inside followed", "alias/app", true, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ConfinePath(root, filepath.Join(root, filepath.FromSlash(tt.path)), tt.follow)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}

	t.Run("lexical escape", func(t *testing.T) {
		err := ConfinePath(filepath.Join(root, "src"), root, true)
		assert.ErrorIs(t, err, ErrOutsideRoot)
	})
}

func TestAccessError(t *testing.T) {
	err := &AccessError{Path: "/x/y", IsDir: false, Err: fs.ErrPermission}
	assert.Equal(t, "cannot access file /x/y: permission denied", err.Error())
	assert.True(t, errors.Is(err, fs.ErrPermission))
}
