package provider

import (
	"context"
	"errors"
	"strings"

	"github.com/sourcegraph/conc/panics"
	"go.uber.org/zap"
)

// Fallbacks are the fixed answers used when the backend produced nothing usable.
type Fallbacks struct {
	// NoResponse is used when the service answered with empty text.
	NoResponse string
	// Connection is used for every other failure.
	Connection string
}

// GenerationClient absorbs every backend fault. Generate always returns text.
type GenerationClient struct {
	backend   Backend
	fallbacks Fallbacks
	logger    *zap.Logger
}

func NewGenerationClient(backend Backend, fallbacks Fallbacks, logger *zap.Logger) *GenerationClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GenerationClient{backend: backend, fallbacks: fallbacks, logger: logger}
}

func (c *GenerationClient) Model() string {
	if c.backend == nil {
		return ""
	}
	return c.backend.Model()
}

// Generate calls the backend exactly once.
func (c *GenerationClient) Generate(ctx context.Context, prompt string) string {
	if c.backend == nil {
		c.logger.Error("no generation backend configured")
		return c.fallbacks.Connection
	}

	var (
		text string
		err  error
		pc   panics.Catcher
	)
	pc.Try(func() {
		text, err = c.backend.Generate(ctx, prompt)
	})
	if r := pc.Recovered(); r != nil {
		err = r.AsError()
	}

	if errors.Is(err, ErrEmptyResponse) {
		c.logger.Warn("generation service returned no text", zap.String("model", c.backend.Model()))
		return c.fallbacks.NoResponse
	}
	if err != nil {
		c.logger.Error("generation failed", zap.String("model", c.backend.Model()), zap.Error(err))
		return c.fallbacks.Connection
	}

	answer := strings.TrimSpace(text)
	if answer == "" {
		c.logger.Warn("generation service returned no text", zap.String("model", c.backend.Model()))
		return c.fallbacks.NoResponse
	}
	return answer
}

// IsFallback reports whether text is one of the fixed fallback answers.
func (c *GenerationClient) IsFallback(text string) bool {
	return text == c.fallbacks.NoResponse || text == c.fallbacks.Connection
}
