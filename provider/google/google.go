// Package google adapts the Google GenAI SDK to the loom.Provider interface.
package google

import (
	"context"
	"fmt"

	"github.com/textloom/loom"
	"google.golang.org/genai"
)

const DefaultModel = "gemini-2.0-flash"

// Client wraps the Google GenAI SDK to implement loom.Provider.
type Client struct {
	client *genai.Client
	model  string
}

// New creates a new Google GenAI client with the given API key.
func New(ctx context.Context, apiKey string, opts ...ClientOption) (*Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	c := &Client{
		client: client,
		model:  DefaultModel,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// ClientOption configures the Google client.
type ClientOption func(*Client)

// WithModel sets the default model for requests.
func WithModel(model string) ClientOption {
	return func(c *Client) {
		c.model = model
	}
}

func (c *Client) buildRequest(prompt string, options *loom.Options) (string, []*genai.Content, *genai.GenerateContentConfig) {
	model := c.model
	if options.Model != "" {
		model = options.Model
	}

	contents := []*genai.Content{
		{Role: "user", Parts: []*genai.Part{{Text: prompt}}},
	}

	config := &genai.GenerateContentConfig{}
	if options.MaxTokens > 0 {
		config.MaxOutputTokens = int32(options.MaxTokens)
	}
	if options.Temperature != nil {
		temp := float32(*options.Temperature)
		config.Temperature = &temp
	}
	return model, contents, config
}

// Generate sends a prompt and returns a complete response.
func (c *Client) Generate(ctx context.Context, prompt string, opts ...loom.Option) (*loom.Response, error) {
	options := loom.ApplyOptions(opts...)
	model, contents, config := c.buildRequest(prompt, options)

	resp, err := c.client.Models.GenerateContent(ctx, model, contents, config)
	if err != nil {
		return nil, wrapError(err)
	}

	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return nil, &BlockedError{Reason: string(resp.PromptFeedback.BlockReason)}
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, fmt.Errorf("google: response contained no candidates")
	}

	content := ""
	for _, part := range resp.Candidates[0].Content.Parts {
		content += part.Text
	}

	out := &loom.Response{
		Content:      content,
		FinishReason: string(resp.Candidates[0].FinishReason),
	}
	if resp.UsageMetadata != nil {
		out.Usage = loom.Usage{
			InputTokens:  int(resp.UsageMetadata.PromptTokenCount),
			OutputTokens: int(resp.UsageMetadata.CandidatesTokenCount),
		}
	}
	return out, nil
}

// GenerateStream sends a prompt and returns a channel of streaming events.
func (c *Client) GenerateStream(ctx context.Context, prompt string, opts ...loom.Option) (<-chan loom.StreamEvent, error) {
	options := loom.ApplyOptions(opts...)
	model, contents, config := c.buildRequest(prompt, options)

	ch := make(chan loom.StreamEvent)

	go func() {
		defer close(ch)

		var fullContent string
		var finishReason string
		var usage loom.Usage
		var iterCount int

		for resp, err := range c.client.Models.GenerateContentStream(ctx, model, contents, config) {
			iterCount++
			if err != nil {
				ch <- loom.StreamEvent{Err: wrapError(err)}
				return
			}

			if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
				ch <- loom.StreamEvent{
					Err: &BlockedError{Reason: string(resp.PromptFeedback.BlockReason)},
				}
				return
			}

			if len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil {
				for _, part := range resp.Candidates[0].Content.Parts {
					if part.Text != "" {
						ch <- loom.StreamEvent{Delta: part.Text}
						fullContent += part.Text
					}
				}
				finishReason = string(resp.Candidates[0].FinishReason)
			}

			if resp.UsageMetadata != nil {
				usage.InputTokens = int(resp.UsageMetadata.PromptTokenCount)
				usage.OutputTokens = int(resp.UsageMetadata.CandidatesTokenCount)
			}
		}

		if iterCount == 0 {
			ch <- loom.StreamEvent{Err: fmt.Errorf("google: stream returned no data")}
			return
		}

		ch <- loom.StreamEvent{
			Done: true,
			Response: &loom.Response{
				Content:      fullContent,
				FinishReason: finishReason,
				Usage:        usage,
			},
		}
	}()

	return ch, nil
}

// VerifyKey checks that the configured API key is accepted by the backend
// using a minimal one-token request.
func (c *Client) VerifyKey(ctx context.Context) error {
	_, err := c.Generate(ctx, "ping", loom.WithMaxTokens(1))
	return err
}

var _ loom.Provider = (*Client)(nil)
var _ loom.KeyVerifier = (*Client)(nil)
