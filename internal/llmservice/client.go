package llmservice

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"

	"docs-query/internal/config"
	"docs-query/internal/models"
)

// Generator turns a prompt into generated text
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// LLMGenerator sends a single human message to a langchaingo model
type LLMGenerator struct {
	llm     llms.Model
	timeout time.Duration
	retry   []retry.Option
}

// NewModel builds the langchaingo client for the configured provider
func NewModel(ctx context.Context, llmConfig *config.LLMConfig) (llms.Model, error) {
	log.Debug().
		Str("provider", llmConfig.Provider).
		Str("model", llmConfig.Model).
		Str("base_url", llmConfig.BaseURL).
		Msg("Creating LLM client")

	switch llmConfig.Provider {
	case config.ProviderGoogleAI:
		return googleai.New(ctx,
			googleai.WithAPIKey(llmConfig.Key),
			googleai.WithDefaultModel(llmConfig.Model),
		)
	case config.ProviderOpenAI:
		opts := []openai.Option{
			openai.WithToken(strings.TrimPrefix(llmConfig.Key, "Bearer ")),
			openai.WithModel(llmConfig.Model),
		}
		if llmConfig.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(llmConfig.BaseURL))
		}
		return openai.New(opts...)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", llmConfig.Provider)
	}
}

// New wraps llm with the timeout and retry policy from llmConfig
func New(llm llms.Model, llmConfig *config.LLMConfig) *LLMGenerator {
	attempts := llmConfig.Retry.Attempts
	if attempts == 0 {
		attempts = 1
	}
	return &LLMGenerator{
		llm:     llm,
		timeout: llmConfig.Timeout,
		retry: []retry.Option{
			retry.Attempts(attempts),
			retry.Delay(llmConfig.Retry.Delay),
			retry.MaxDelay(llmConfig.Retry.MaxDelay),
			retry.LastErrorOnly(true),
		},
	}
}

// NewFromConfig is NewModel followed by New
func NewFromConfig(ctx context.Context, llmConfig *config.LLMConfig) (*LLMGenerator, error) {
	llm, err := NewModel(ctx, llmConfig)
	if err != nil {
		return nil, err
	}
	return New(llm, llmConfig), nil
}

// Generate returns the first choice's text. Every failure, including a
// response without text, wraps models.ErrGeneration.
func (g *LLMGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	var text string
	opts := append([]retry.Option{
		retry.Context(ctx),
		retry.OnRetry(func(n uint, err error) {
			log.Warn().Err(err).Uint("attempt", n+1).Msg("Retrying generation")
		}),
	}, g.retry...)

	err := retry.Do(func() error {
		var err error
		text, err = g.generateOnce(ctx, prompt)
		return err
	}, opts...)
	if err != nil {
		if errors.Is(err, models.ErrGeneration) {
			return "", err
		}
		return "", fmt.Errorf("%w: %w", models.ErrGeneration, err)
	}
	return text, nil
}

func (g *LLMGenerator) generateOnce(ctx context.Context, prompt string) (string, error) {
	msgContent := []llms.MessageContent{
		llms.TextParts(schema.ChatMessageTypeHuman, prompt),
	}

	res, err := g.llm.GenerateContent(ctx, msgContent)
	if err != nil {
		return "", err
	}
	if res == nil || len(res.Choices) == 0 {
		return "", fmt.Errorf("%w: model returned no choices", models.ErrGeneration)
	}
	content := res.Choices[0].Content
	if strings.TrimSpace(content) == "" {
		return "", fmt.Errorf("%w: model returned empty text", models.ErrGeneration)
	}
	return content, nil
}
