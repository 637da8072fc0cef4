package provider

import (
	"context"
	"errors"
	"time"

	"github.com/coursebuddy/coursebuddy/models"
	openai_provider "github.com/coursebuddy/coursebuddy/provider/openai"
)

// Client represents different LLM providers
type Client string

const (
	OpenAI    Client = "openai"
	Anthropic Client = "anthropic"
)

// Options carries provider construction settings.
type Options struct {
	APIKey          string
	BaseURL         string
	CompletionModel string
	EmbeddingModel  string
	Temperature     float64
	MaxTokens       int
	Timeout         time.Duration
}

// Provider is the interface that all LLM implementations must satisfy
type Provider interface {
	ChatCompletion(ctx context.Context, system string, history []models.ConversationTurn, message string) (string, error)
	CreateEmbedding(ctx context.Context, texts []string) ([][]float32, error)
}

// NewProvider creates a new LLM client based on the provided configuration
func NewProvider(client Client, opts Options) (Provider, error) {
	switch client {
	case OpenAI:
		if opts.APIKey == "" {
			return nil, errors.New("openai api key not set")
		}
		if opts.Timeout == 0 {
			opts.Timeout = 60 * time.Second
		}
		return openai_provider.NewOpenAIClient(
			opts.APIKey,
			opts.BaseURL,
			opts.CompletionModel,
			opts.EmbeddingModel,
			opts.Temperature,
			opts.MaxTokens,
			opts.Timeout,
		), nil
	case Anthropic:
		return nil, errors.New("anthropic client not implemented yet")
	default:
		return nil, errors.New("unsupported LLM provider")
	}
}
