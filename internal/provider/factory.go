package provider

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/nubank/doc-ia/internal/config"
)

// FromConfig picks the backend named by cfg.Provider. With no explicit choice
// the first configured API key wins (gemini, then openai), otherwise the mock.
func FromConfig(cfg config.Config, logger *zap.Logger) (Backend, error) {
	timeout := cfg.HTTP.Timeout()

	name := cfg.Provider
	if name == "" || name == "auto" {
		switch {
		case cfg.Gemini.APIKey != "":
			name = "gemini"
		case cfg.OpenAI.APIKey != "":
			name = "openai"
		default:
			name = "mock"
		}
	}

	var (
		backend Backend
		err     error
	)
	switch name {
	case "gemini":
		backend, err = NewGeminiProvider(cfg.Gemini.APIKey, cfg.Gemini.Model, cfg.Gemini.BaseURL, timeout)
	case "openai":
		backend, err = NewOpenAIProvider(cfg.OpenAI.APIKey, cfg.OpenAI.Model, cfg.OpenAI.BaseURL, timeout)
	case "ollama":
		backend, err = NewOllamaProvider(cfg.Ollama.Host, cfg.Ollama.Model, timeout)
	case "mock":
		backend = MockProvider{}
	default:
		return nil, fmt.Errorf("unknown provider %q", name)
	}
	if err != nil {
		return nil, err
	}

	if logger != nil {
		logger.Info("generation backend selected", zap.String("provider", name), zap.String("model", backend.Model()))
	}
	return backend, nil
}
