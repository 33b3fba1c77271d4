package provider

import (
	"context"
	"errors"
	"strings"
)

// ErrEmptyResponse is returned by backends that answered without any text.
var ErrEmptyResponse = errors.New("empty response from generation service")

// Backend is one hosted text-generation service taking a flat prompt.
type Backend interface {
	Model() string
	Generate(ctx context.Context, prompt string) (string, error)
}

// Fallback provider (mock) that answers without any external API.
type MockProvider struct{}

func (m MockProvider) Model() string { return "mock-doc" }

func (m MockProvider) Generate(_ context.Context, prompt string) (string, error) {
	last := prompt
	if i := strings.LastIndex(prompt, "\nUser: "); i >= 0 {
		last = prompt[i+len("\nUser: "):]
	}
	return "Understood. (mock) You said: \"" + strings.TrimSpace(last) + "\"", nil
}
