package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jwebster45206/story-crew/internal/config"
)

// NewLLMService builds the provider selected in cfg and initializes its
// model. The returned close function releases provider resources.
func NewLLMService(ctx context.Context, cfg *config.Config, logger *slog.Logger) (LLMService, func() error, error) {
	noop := func() error { return nil }

	var llm LLMService
	closeFn := noop
	switch cfg.LLMProvider {
	case config.ProviderAnthropic:
		llm = NewAnthropicService(cfg.AnthropicAPIKey, "", cfg.ModelName, logger)
	case config.ProviderGemini:
		g, err := NewGeminiService(ctx, cfg.GeminiAPIKey, cfg.ModelName, logger)
		if err != nil {
			return nil, noop, err
		}
		llm, closeFn = g, g.Close
	case config.ProviderOpenAI:
		llm = NewOpenAIService(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.ModelName, logger)
	case config.ProviderOllama:
		llm = NewOllamaService(cfg.OllamaURL, cfg.ModelName, logger)
	case config.ProviderMock:
		llm = NewMockLLMAPI()
	default:
		return nil, noop, fmt.Errorf("unknown LLM provider %q", cfg.LLMProvider)
	}

	if err := llm.InitModel(ctx, cfg.ModelName); err != nil {
		_ = closeFn()
		return nil, noop, fmt.Errorf("failed to initialize %s model: %w", cfg.LLMProvider, err)
	}
	logger.Info("LLM provider ready", "provider", cfg.LLMProvider, "model", cfg.ModelName)
	return llm, closeFn, nil
}
