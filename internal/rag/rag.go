package rag

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"docs-query/internal/llmservice"
	"docs-query/internal/models"
)

// ChunkLoader yields the corpus of a folder
type ChunkLoader interface {
	Load(ctx context.Context, dir string) ([]models.Chunk, error)
}

type RAG struct {
	loader    ChunkLoader
	generator llmservice.Generator
	docsDir   string
	separator string
}

func NewRAG(loader ChunkLoader, generator llmservice.Generator, docsDir, separator string) *RAG {
	if separator == "" {
		separator = models.DefaultSeparator
	}
	return &RAG{loader: loader, generator: generator, docsDir: docsDir, separator: separator}
}

// Query reloads the docs folder, builds the prompt and asks the model.
// It fails with models.ErrEmptyCorpus when no file yields text and with
// models.ErrGeneration when the model call fails.
func (r *RAG) Query(ctx context.Context, query string) (*models.PromptResponse, error) {
	chunks, err := r.loader.Load(ctx, r.docsDir)
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		return nil, models.ErrEmptyCorpus
	}

	prompt := BuildPrompt(chunks, query, r.separator)
	log.Debug().Int("chunks", len(chunks)).Int("prompt_len", len(prompt)).Msg("Prompt assembled")

	content, err := r.generator.Generate(ctx, prompt)
	if err != nil {
		return nil, err
	}

	return &models.PromptResponse{
		Query:   query,
		Prompt:  prompt,
		Content: content,
	}, nil
}

// BuildPrompt joins the chunk texts with separator and appends the query
func BuildPrompt(chunks []models.Chunk, query, separator string) string {
	var context strings.Builder
	for i, chunk := range chunks {
		if i > 0 {
			context.WriteString(separator)
		}
		context.WriteString(chunk.Content)
	}
	return fmt.Sprintf(models.PromptTemplate, context.String(), query)
}
