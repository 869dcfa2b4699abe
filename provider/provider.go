// Package provider constructs loom.Provider implementations by name.
package provider

import (
	"context"
	"fmt"

	"github.com/textloom/loom"
	"github.com/textloom/loom/provider/anthropic"
	"github.com/textloom/loom/provider/google"
	"github.com/textloom/loom/provider/openai"
)

// New builds a provider from its name and credentials. Supported names
// are "anthropic", "openai", and "google". An empty model selects the
// provider's default.
func New(ctx context.Context, name, apiKey, model string) (loom.Provider, error) {
	switch name {
	case "anthropic":
		opts := []anthropic.ClientOption{}
		if model != "" {
			opts = append(opts, anthropic.WithModel(model))
		}
		return anthropic.New(apiKey, opts...), nil
	case "openai":
		opts := []openai.ClientOption{}
		if model != "" {
			opts = append(opts, openai.WithModel(model))
		}
		return openai.New(apiKey, opts...), nil
	case "google":
		opts := []google.ClientOption{}
		if model != "" {
			opts = append(opts, google.WithModel(model))
		}
		return google.New(ctx, apiKey, opts...)
	default:
		return nil, fmt.Errorf("unknown provider: %s (must be anthropic, openai, or google)", name)
	}
}
