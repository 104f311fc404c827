package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.ExecuteContext(context.Background()), out.String())
	return out.String()
}

func TestManifestCommandsRoundTrip(t *testing.T) {
	src := t.TempDir()
	chdir(t, src)
	require.NoError(t, os.MkdirAll(filepath.Join(src, "src", "skip"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "src", "a.txt"), []byte("alpha"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "src", "skip", "b.txt"), []byte("beta"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "filelist.txt"), []byte("# files\nsrc\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "exclude.txt"), []byte("src/skip\n"), 0o644))

	manifestPath := filepath.Join(t.TempDir(), "output.json")
	out := execute(t, "manifest", "extract", "--root", src, "--list", "filelist.txt", "--exclude", "exclude.txt", "--file", manifestPath, "--log-level", "error")
	assert.Contains(t, out, "Wrote 1 entries")

	dst := t.TempDir()
	out = execute(t, "manifest", "populate", "--root", dst, "--file", manifestPath, "--log-level", "error")
	assert.Contains(t, out, "Wrote 1 file from")

	got, err := os.ReadFile(filepath.Join(dst, "src", "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "alpha", string(got))
	_, err = os.Stat(filepath.Join(dst, "src", "skip", "b.txt"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestFileListCommand(t *testing.T) {
	root := t.TempDir()
	chdir(t, root)
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), nil, 0o644))

	out := execute(t, "manifest", "filelist", "--root", root, "--list", "filelist.txt", "--log-level", "error")
	assert.Contains(t, out, "Wrote 1 entries")

	got, err := os.ReadFile(filepath.Join(root, "filelist.txt"))
	require.NoError(t, err)
	assert.Equal(t, "a.txt\n", string(got))
}

func TestFileListThenExtractShareListPath(t *testing.T) {
	root := t.TempDir()
	chdir(t, t.TempDir())
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("alpha"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "dir"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "dir", "b.txt"), []byte("beta"), 0o644))

	listPath := filepath.Join(root, "filelist.txt")
	out := execute(t, "manifest", "filelist", "--root", root, "--list", "filelist.txt", "--log-level", "error")
	assert.Contains(t, out, listPath)

	manifestPath := filepath.Join(t.TempDir(), "output.json")
	out = execute(t, "manifest", "extract", "--root", root, "--list", "filelist.txt", "--exclude", "", "--file", manifestPath, "--log-level", "error")
	assert.Contains(t, out, "Wrote 2 entries")

	data, err := os.ReadFile(manifestPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"dir/b.txt"`)
	assert.NotContains(t, string(data), "filelist.txt")
}
