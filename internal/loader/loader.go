// Package loader turns every supported file of a folder into prompt chunks.
package loader

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog/log"

	"docs-query/internal/models"
	"docs-query/internal/parser"
)

// Loader reads a folder on every call. With WithMemo, extracted text is
// memoised per absolute path and reused while the file's size and mtime
// match; a rewrite that keeps both is not detected, so the memo is opt-in.
type Loader struct {
	registry *parser.Registry
	chunker  *parser.Chunker
	memo     *cache.Cache
}

type Option func(*Loader)

// WithMemo keeps extracted text for ttl
func WithMemo(ttl time.Duration) Option {
	return func(l *Loader) {
		l.memo = cache.New(ttl, 2*ttl)
	}
}

func WithRegistry(r *parser.Registry) Option {
	return func(l *Loader) {
		l.registry = r
	}
}

func New(chunker *parser.Chunker, opts ...Option) *Loader {
	if chunker == nil {
		chunker = parser.DefaultChunker()
	}
	l := &Loader{
		registry: parser.DefaultRegistry(),
		chunker:  chunker,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

type memoEntry struct {
	size    int64
	modTime time.Time
	text    string
}

// Load returns the chunks of every recognised file in dir, in directory
// order. Unsupported and unparseable files are logged and skipped; only a
// failure to list dir is returned.
func (l *Loader) Load(ctx context.Context, dir string) ([]models.Chunk, error) {
	docs, err := l.LoadDocuments(ctx, dir)
	if err != nil {
		return nil, err
	}

	var chunks []models.Chunk
	for _, doc := range docs {
		name := filepath.Base(doc.Path)
		fileChunks := l.chunker.Chunks(name, doc.Content)
		chunks = append(chunks, fileChunks...)
		log.Info().Str("file", name).Int("chunks", len(fileChunks)).Msg("Loaded file")
	}
	return chunks, nil
}

// LoadDocuments extracts the text of every recognised file in dir. Files
// without any text are left out.
func (l *Loader) LoadDocuments(ctx context.Context, dir string) ([]models.Document, error) {
	log.Info().Str("dir", dir).Msg("Checking files")

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read docs folder %s: %w", dir, err)
	}
	if len(entries) == 0 {
		log.Info().Str("dir", dir).Msg("No files found in the docs folder")
		return nil, nil
	}

	var docs []models.Document
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		filePath := filepath.Join(dir, name)
		if !l.registry.Supports(filePath) {
			log.Info().Str("file", name).Msg("Skipping unsupported file")
			continue
		}

		ext := strings.ToLower(filepath.Ext(name))
		log.Debug().Str("file", filePath).Str("ext", ext).Msg("Processing file")

		text, err := l.extract(ctx, filePath, entry)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}
			log.Error().Err(err).Str("file", name).Msg("Error loading file")
			continue
		}
		if strings.TrimSpace(text) == "" {
			log.Warn().Str("file", name).Msg("File has no extractable text")
			continue
		}

		docs = append(docs, models.Document{
			Path:      filePath,
			Extension: ext,
			Content:   text,
		})
	}

	return docs, nil
}

func (l *Loader) extract(ctx context.Context, filePath string, entry os.DirEntry) (string, error) {
	if l.memo == nil {
		return l.registry.Extract(ctx, filePath)
	}

	info, err := entry.Info()
	if err != nil {
		return "", err
	}
	key, err := filepath.Abs(filePath)
	if err != nil {
		key = filePath
	}
	if v, ok := l.memo.Get(key); ok {
		e := v.(memoEntry)
		if e.size == info.Size() && e.modTime.Equal(info.ModTime()) {
			log.Debug().Str("file", filePath).Msg("Using memoised text")
			return e.text, nil
		}
	}

	text, err := l.registry.Extract(ctx, filePath)
	if err != nil {
		l.memo.Delete(key)
		return "", err
	}
	l.memo.Set(key, memoEntry{size: info.Size(), modTime: info.ModTime(), text: text}, cache.DefaultExpiration)
	return text, nil
}

// MemoSize reports how many files have memoised text
func (l *Loader) MemoSize() int {
	if l.memo == nil {
		return 0
	}
	return l.memo.ItemCount()
}
