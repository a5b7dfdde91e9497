package provider

import (
	"context"
	"errors"

	"github.com/mohammad-safakhou/wikichat/config"
	"github.com/mohammad-safakhou/wikichat/internal/provider/cohere"
	openai_provider "github.com/mohammad-safakhou/wikichat/internal/provider/openai"
)

// Client names a text-generation backend
type Client string

const (
	Cohere Client = "cohere"
	OpenAI Client = "openai"
)

// Provider is the interface all text-generation backends must satisfy.
//
// Any error from Generate is fatal for the request that triggered it: there
// is no meaningful response without generated text, so callers must not
// degrade or retry. Probe performs a minimal-token round trip for
// out-of-band health reporting and is never called from the chat pipeline.
type Provider interface {
	Generate(ctx context.Context, prompt string, maxTokens int, temperature float64) (string, error)
	Probe(ctx context.Context) (healthy bool, detail string)
}

// New creates a generation provider from configuration
func New(cfg config.ProviderConfig) (Provider, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("provider api key not configured (provider.api_key)")
	}
	switch Client(cfg.Type) {
	case Cohere:
		return cohere.NewClient(cfg.APIKey, cfg.BaseURL, cfg.Model, cfg.Timeout), nil
	case OpenAI:
		return openai_provider.NewClient(cfg.APIKey, cfg.BaseURL, cfg.Model, cfg.Timeout), nil
	default:
		return nil, errors.New("unsupported generation provider: " + cfg.Type)
	}
}
