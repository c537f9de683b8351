package loader

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docs-query/internal/models"
	"docs-query/internal/parser"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func contents(chunks []models.Chunk) []string {
	out := make([]string, len(chunks))
	for i, c := range chunks {
		out[i] = c.Content
	}
	return out
}

func TestLoad_UnsupportedOnly(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "image.png", "\x89PNG")
	writeFile(t, dir, "slides.pptx", "zip?")
	writeFile(t, dir, "README", "no extension")

	chunks, err := New(nil).Load(context.Background(), dir)
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestLoad_EmptyFolder(t *testing.T) {
	chunks, err := New(nil).Load(context.Background(), t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestLoad_MissingFolder(t *testing.T) {
	_, err := New(nil).Load(context.Background(), filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

func TestLoad_CorruptPDFIsSkipped(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "broken.pdf", "%PDF-1.4 truncated garbage")
	writeFile(t, dir, "notes.txt", "X is a test.")

	chunks, err := New(nil).Load(context.Background(), dir)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "X is a test.", chunks[0].Content)
	assert.Equal(t, "notes.txt", chunks[0].Source)
}

func TestLoad_OrderAndChunking(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.txt", "bbbbbbbbbb")
	writeFile(t, dir, "a.TXT", "aaaa")
	writeFile(t, dir, "blank.txt", "   \n\t")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.txt"), 0o700))

	chunker, err := parser.NewChunker(6, 2)
	require.NoError(t, err)

	chunks, err := New(chunker).Load(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"aaaa", "bbbbbb", "bbbbbb"}, contents(chunks))
	assert.Equal(t, []int{1, 1, 2}, []int{chunks[0].ChunkID, chunks[1].ChunkID, chunks[2].ChunkID})
}

func TestLoad_Cancelled(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", "hello")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(nil).Load(ctx, dir)
	assert.ErrorIs(t, err, context.Canceled)
}

func countingRegistry(calls *atomic.Int32) *parser.Registry {
	r := parser.NewRegistry()
	r.Register(models.ExtTXT, parser.ExtractorFunc(func(_ context.Context, path string) (string, error) {
		calls.Add(1)
		data, err := os.ReadFile(path)
		return string(data), err
	}))
	return r
}

func TestLoad_MemoReusesUnchangedFiles(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.txt", "first version")

	var calls atomic.Int32
	l := New(nil, WithRegistry(countingRegistry(&calls)), WithMemo(time.Minute))

	for i := 0; i < 3; i++ {
		chunks, err := l.Load(context.Background(), dir)
		require.NoError(t, err)
		assert.Equal(t, []string{"first version"}, contents(chunks))
	}
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, 1, l.MemoSize())

	require.NoError(t, os.WriteFile(path, []byte("second version!"), 0o600))
	later := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(path, later, later))

	chunks, err := l.Load(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"second version!"}, contents(chunks))
	assert.Equal(t, int32(2), calls.Load())
}

func TestLoad_WithoutMemoAlwaysExtracts(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", "text")

	var calls atomic.Int32
	l := New(nil, WithRegistry(countingRegistry(&calls)))
	for i := 0; i < 2; i++ {
		_, err := l.Load(context.Background(), dir)
		require.NoError(t, err)
	}
	assert.Equal(t, int32(2), calls.Load())
	assert.Zero(t, l.MemoSize())
}

func TestLoadDocuments(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "Notes.TXT", "hello")
	writeFile(t, dir, "skip.md", "# nope")

	docs, err := New(nil).LoadDocuments(context.Background(), dir)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, models.Document{
		Path:      filepath.Join(dir, "Notes.TXT"),
		Extension: models.ExtTXT,
		Content:   "hello",
	}, docs[0])
}

func TestLoad_DefaultSeesRewriteWithSameSizeAndMtime(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.txt", "version A")
	info, err := os.Stat(path)
	require.NoError(t, err)

	l := New(nil)
	chunks, err := l.Load(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"version A"}, contents(chunks))

	require.NoError(t, os.WriteFile(path, []byte("version B"), 0o600))
	require.NoError(t, os.Chtimes(path, info.ModTime(), info.ModTime()))

	chunks, err = l.Load(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"version B"}, contents(chunks))
}

func TestLoad_MemoKeyIsAbsolutePath(t *testing.T) {
	root, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	dir := filepath.Join(root, "docs")
	require.NoError(t, os.Mkdir(dir, 0o700))
	writeFile(t, dir, "a.txt", "shared")

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(root))
	t.Cleanup(func() { os.Chdir(wd) })

	var calls atomic.Int32
	l := New(nil, WithRegistry(countingRegistry(&calls)), WithMemo(time.Minute))

	for _, d := range []string{dir, "docs", "./docs"} {
		chunks, err := l.Load(context.Background(), d)
		require.NoError(t, err)
		assert.Equal(t, []string{"shared"}, contents(chunks))
	}
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, 1, l.MemoSize())
}
