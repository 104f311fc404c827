package manifest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"topics_go/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, contents := range files {
		full := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(contents), 0o644))
	}
}

func paths(entries []models.ManifestEntry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Path)
	}
	return out
}

func TestParseList(t *testing.T) {
	list, err := ParseList(strings.NewReader("src\r\n\n  # comment\n  README.md  \n#src/skip\npkg/\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"src", "README.md", "pkg/"}, list)
}

func TestReadListMissing(t *testing.T) {
	_, err := ReadList(filepath.Join(t.TempDir(), "filelist.txt"))
	assert.Error(t, err)
}

func TestExtract(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"README.md":           "# readme",
		"src/main.js":         "console.log(1)",
		"src/util/a.js":       "a",
		"src/util/b.test.js":  "b",
		"src/vendor/lib.js":   "lib",
		"src/assets/logo.svg": "<svg/>",
	})
	require.NoError(t, os.WriteFile(filepath.Join(root, "src", "bin.dat"), []byte{0xff, 0xfe, 0x00}, 0o644))
	require.NoError(t, os.Symlink(filepath.Join(root, "README.md"), filepath.Join(root, "src", "link.md")))

	x := NewExtractor(root, []string{"src/vendor/", "**/*.test.js"}, zaptest.NewLogger(t))
	entries, err := x.Extract(context.Background(), []string{"src", "missing.txt", "README.md", "src/main.js"})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"src/assets/logo.svg",
		"src/main.js",
		"src/util/a.js",
		"README.md",
	}, paths(entries))
	assert.Equal(t, "<svg/>", entries[0].Contents)
}

func TestExtractSkipsPathsOutsideRoot(t *testing.T) {
	parent := t.TempDir()
	root := filepath.Join(parent, "root")
	writeTree(t, parent, map[string]string{"secret.txt": "s", "root/ok.txt": "ok"})

	entries, err := NewExtractor(root, nil, nil).Extract(context.Background(), []string{"../secret.txt", "ok.txt"})
	require.NoError(t, err)
	assert.Equal(t, []string{"ok.txt"}, paths(entries))
}

func TestExtractCancelled(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"a.txt": "a"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewExtractor(root, nil, nil).Extract(ctx, []string{"a.txt"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	entries := []models.ManifestEntry{{Path: "a/b.txt", Contents: "line1\nline2 & <tag>"}}
	data, err := Encode(entries)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "[\n  {\n    \"path\": \"a/b.txt\""))

	got, skipped, err := Decode(data)
	require.NoError(t, err)
	assert.Empty(t, skipped)
	assert.Equal(t, entries, got)
}

func TestEncodeNilIsEmptyArray(t *testing.T) {
	data, err := Encode(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(data))
}

func TestDecodeSkipsInvalidEntries(t *testing.T) {
	data := []byte(`[
		{"path": "ok.txt", "contents": "ok"},
		{"path": 1, "contents": "x"},
		{"path": "no-contents.txt"},
		"string",
		null,
		{"path": "empty.txt", "contents": ""}
	]`)
	got, skipped, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 4}, skipped)
	assert.Equal(t, []string{"ok.txt", "empty.txt"}, paths(got))
}

func TestDecodeRejectsNonArray(t *testing.T) {
	for _, doc := range []string{`{"path":"a"}`, `null`, `not json`} {
		_, _, err := Decode([]byte(doc))
		assert.ErrorIs(t, err, ErrInvalidManifest, doc)
	}
}

func TestPopulate(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"existing.txt": "old"})

	entries := []models.ManifestEntry{
		{Path: "existing.txt", Contents: "new"},
		{Path: `dir\nested\file.txt`, Contents: "nested"},
		{Path: "../escape.txt", Contents: "nope"},
		{Path: "/etc/passwd", Contents: "nope"},
		{Path: "", Contents: "nope"},
	}
	n, err := Populate(context.Background(), root, entries, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	got, err := os.ReadFile(filepath.Join(root, "existing.txt"))
	require.NoError(t, err)
	assert.Equal(t, "new", string(got))

	got, err = os.ReadFile(filepath.Join(root, "dir", "nested", "file.txt"))
	require.NoError(t, err)
	assert.Equal(t, "nested", string(got))

	_, err = os.Stat(filepath.Join(filepath.Dir(root), "escape.txt"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestExtractPopulateRoundTrip(t *testing.T) {
	src := t.TempDir()
	files := map[string]string{
		"a.txt":       "alpha",
		"sub/b.txt":   "beta",
		"sub/c/d.txt": "юникод",
	}
	writeTree(t, src, files)

	entries, err := NewExtractor(src, nil, nil).Extract(context.Background(), []string{"a.txt", "sub"})
	require.NoError(t, err)
	data, err := Encode(entries)
	require.NoError(t, err)

	decoded, skipped, err := Decode(data)
	require.NoError(t, err)
	require.Empty(t, skipped)

	dst := t.TempDir()
	n, err := Populate(context.Background(), dst, decoded, nil)
	require.NoError(t, err)
	assert.Equal(t, len(files), n)
	for rel, want := range files {
		got, err := os.ReadFile(filepath.Join(dst, filepath.FromSlash(rel)))
		require.NoError(t, err)
		assert.Equal(t, want, string(got))
	}
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "output.json")
	require.NoError(t, WriteFile(path, []models.ManifestEntry{{Path: "x", Contents: "y"}}))
	data, err := ReadFile(path)
	require.NoError(t, err)
	got, _, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, []models.ManifestEntry{{Path: "x", Contents: "y"}}, got)
}

func TestGenerateFileList(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"b.txt": "", "a/x.txt": "", "topics": "", "filelist.txt": "stale"})

	n, err := GenerateFileList(root, "", "topics")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	got, err := os.ReadFile(filepath.Join(root, DefaultListName))
	require.NoError(t, err)
	assert.Equal(t, "a\nb.txt\n", string(got))
}

type memoryStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (m *memoryStore) Put(_ context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.objects == nil {
		m.objects = make(map[string][]byte)
	}
	m.objects[key] = append([]byte(nil), data...)
	return nil
}

func (m *memoryStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key]
	if !ok {
		return nil, ErrRemoteNotFound
	}
	return data, nil
}

func TestUploadDownload(t *testing.T) {
	ctx := context.Background()
	store := &memoryStore{}
	entries := []models.ManifestEntry{{Path: "a.txt", Contents: "a"}}

	require.NoError(t, Upload(ctx, store, "runs/1.json", entries))
	data, err := Download(ctx, store, "runs/1.json")
	require.NoError(t, err)
	got, _, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, entries, got)

	_, err = Download(ctx, store, "runs/2.json")
	assert.ErrorIs(t, err, ErrRemoteNotFound)
}

func TestNewS3StoreValidation(t *testing.T) {
	_, err := NewS3Store(S3Config{})
	assert.Error(t, err)
	_, err = NewS3Store(S3Config{Endpoint: "localhost:9000"})
	assert.Error(t, err)
	_, err = NewS3Store(S3Config{Endpoint: "localhost:9000", AccessKey: "a", SecretKey: "b"})
	assert.Error(t, err)

	s, err := NewS3Store(S3Config{Endpoint: "localhost:9000", AccessKey: "a", SecretKey: "b", Bucket: "manifests"})
	require.NoError(t, err)
	assert.Equal(t, "us-east-1", s.region)
	assert.Equal(t, "runs/1.json", objectKey(" /runs/1.json "))
}

func TestS3StoreRetriesBucketCheckAfterFailure(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// первая проверка бакета отклоняется, следующие проходят
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s, err := NewS3Store(S3Config{
		Endpoint:  strings.TrimPrefix(srv.URL, "http://"),
		AccessKey: "a",
		SecretKey: "b",
		Bucket:    "manifests",
	})
	require.NoError(t, err)
	ctx := context.Background()

	require.Error(t, s.ensureBucket(ctx))
	require.NoError(t, s.ensureBucket(ctx))
	require.NoError(t, s.ensureBucket(ctx))
	assert.Equal(t, int32(2), calls.Load(), "после успешной проверки бакет не запрашивается повторно")
}
