package walk

import (
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sivchari/hashscout/internal/ignore"
)

func createTree(t *testing.T, root string, files map[string]string) {
	t.Helper()

	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0750))
		require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	}
}

func collect(w *Walker, root string) ([]string, error) {
	var files []string

	for path, err := range w.Files(root) {
		if err != nil {
			return nil, err
		}

		files = append(files, path)
	}

	return files, nil
}

func sorted(paths []string) []string {
	out := append([]string(nil), paths...)
	sort.Strings(out)

	return out
}

func TestFiles_Recursive(t *testing.T) {
	root := t.TempDir()
	createTree(t, root, map[string]string{
		"a.txt":           "a",
		"sub/b.txt":       "b",
		"sub/deep/c.bin":  "c",
		"other/empty.txt": "",
	})
	require.NoError(t, os.MkdirAll(filepath.Join(root, "empty-dir"), 0750))

	files, err := collect(New(), root)
	require.NoError(t, err)

	expected := []string{
		filepath.Join(root, "a.txt"),
		filepath.Join(root, "other", "empty.txt"),
		filepath.Join(root, "sub", "b.txt"),
		filepath.Join(root, "sub", "deep", "c.bin"),
	}
	assert.Equal(t, expected, sorted(files))
}

func TestFiles_EmptyDirectory(t *testing.T) {
	files, err := collect(New(), t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestFiles_RelativeRootKeepsPrefix(t *testing.T) {
	root := t.TempDir()
	createTree(t, root, map[string]string{"x/y.txt": "y"})
	t.Chdir(root)

	files, err := collect(New(), "x")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join("x", "y.txt")}, files)
}

func TestFiles_SkipsSymlinks(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on windows")
	}

	root := t.TempDir()
	createTree(t, root, map[string]string{"real.txt": "real"})

	outside := t.TempDir()
	createTree(t, outside, map[string]string{"secret.txt": "s"})

	require.NoError(t, os.Symlink(filepath.Join(root, "real.txt"), filepath.Join(root, "link.txt")))
	require.NoError(t, os.Symlink(outside, filepath.Join(root, "linkdir")))

	w := New()
	files, err := collect(w, root)
	require.NoError(t, err)

	assert.Equal(t, []string{filepath.Join(root, "real.txt")}, files)
	assert.ElementsMatch(t, []string{
		filepath.Join(root, "link.txt"),
		filepath.Join(root, "linkdir"),
	}, w.Skipped())
}

func TestFiles_SymlinkedRootIsFollowed(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on windows")
	}

	base := t.TempDir()
	target := filepath.Join(base, "real")
	createTree(t, target, map[string]string{
		"a.txt":     "a",
		"sub/b.txt": "b",
	})

	outside := t.TempDir()
	createTree(t, outside, map[string]string{"secret.txt": "s"})
	require.NoError(t, os.Symlink(outside, filepath.Join(target, "linkdir")))

	link := filepath.Join(base, "link")
	require.NoError(t, os.Symlink(target, link))

	w := New(WithMatcher(ignore.New("sub/")))
	files, err := collect(w, link)
	require.NoError(t, err)

	assert.Equal(t, []string{filepath.Join(link, "a.txt")}, files)
	assert.Equal(t, []string{filepath.Join(link, "linkdir")}, w.Skipped())
}

func TestFiles_SymlinkToFileIsNotADirectory(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on windows")
	}

	base := t.TempDir()
	createTree(t, base, map[string]string{"f.txt": "f"})
	require.NoError(t, os.Symlink(filepath.Join(base, "f.txt"), filepath.Join(base, "link")))

	_, err := collect(New(), filepath.Join(base, "link"))
	require.ErrorIs(t, err, ErrDirectoryUnreadable)
}

func TestFiles_UnreadableRoot(t *testing.T) {
	_, err := collect(New(), filepath.Join(t.TempDir(), "missing"))
	require.ErrorIs(t, err, ErrDirectoryUnreadable)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestFiles_RootIsFile(t *testing.T) {
	root := t.TempDir()
	createTree(t, root, map[string]string{"f.txt": "f"})

	_, err := collect(New(), filepath.Join(root, "f.txt"))
	require.ErrorIs(t, err, ErrDirectoryUnreadable)
}

func TestFiles_PermissionDeniedSubdirectoryIsSkipped(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced for this user")
	}

	root := t.TempDir()
	createTree(t, root, map[string]string{
		"ok.txt":          "ok",
		"locked/hide.txt": "hidden",
	})

	locked := filepath.Join(root, "locked")
	require.NoError(t, os.Chmod(locked, 0))
	t.Cleanup(func() { _ = os.Chmod(locked, 0750) })

	w := New()
	files, err := collect(w, root)
	require.NoError(t, err)

	assert.Equal(t, []string{filepath.Join(root, "ok.txt")}, files)
	assert.Contains(t, w.Skipped(), locked)
}

func TestFiles_Exclude(t *testing.T) {
	root := t.TempDir()
	createTree(t, root, map[string]string{
		"keep.txt":       "k",
		"skip.tmp":       "s",
		"cache/blob.bin": "b",
		"src/cache.txt":  "c",
	})

	w := New(WithMatcher(ignore.New("*.tmp", "cache/")))
	files, err := collect(w, root)
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join(root, "keep.txt"),
		filepath.Join(root, "src", "cache.txt"),
	}, sorted(files))
}

func TestFiles_StopEarly(t *testing.T) {
	root := t.TempDir()
	createTree(t, root, map[string]string{"a": "1", "b": "2", "c": "3"})

	count := 0

	for _, err := range New().Files(root) {
		require.NoError(t, err)

		count++

		if count == 2 {
			break
		}
	}

	assert.Equal(t, 2, count)
}
