// Package openai adapts the OpenAI SDK to the loom.Provider interface.
package openai

import (
	"context"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/textloom/loom"
)

const DefaultModel = openai.ChatModelGPT4o

// Client wraps the OpenAI SDK to implement loom.Provider.
type Client struct {
	client *openai.Client
	model  string
}

// New creates a new OpenAI client with the given API key.
func New(apiKey string, opts ...ClientOption) *Client {
	client := openai.NewClient(option.WithAPIKey(apiKey))
	c := &Client{
		client: &client,
		model:  DefaultModel,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ClientOption configures the OpenAI client.
type ClientOption func(*Client)

// WithModel sets the default model for requests.
func WithModel(model string) ClientOption {
	return func(c *Client) {
		c.model = model
	}
}

func (c *Client) buildParams(prompt string, options *loom.Options) openai.ChatCompletionNewParams {
	model := c.model
	if options.Model != "" {
		model = options.Model
	}

	params := openai.ChatCompletionNewParams{
		Model: model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
	}
	if options.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(options.MaxTokens))
	}
	if options.Temperature != nil {
		params.Temperature = openai.Float(*options.Temperature)
	}
	return params
}

// Generate sends a prompt and returns a complete response.
func (c *Client) Generate(ctx context.Context, prompt string, opts ...loom.Option) (*loom.Response, error) {
	options := loom.ApplyOptions(opts...)
	params := c.buildParams(prompt, options)

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, wrapError(err)
	}

	return &loom.Response{
		Content:      resp.Choices[0].Message.Content,
		FinishReason: string(resp.Choices[0].FinishReason),
		Usage: loom.Usage{
			InputTokens:  int(resp.Usage.PromptTokens),
			OutputTokens: int(resp.Usage.CompletionTokens),
		},
	}, nil
}

// GenerateStream sends a prompt and returns a channel of streaming events.
func (c *Client) GenerateStream(ctx context.Context, prompt string, opts ...loom.Option) (<-chan loom.StreamEvent, error) {
	options := loom.ApplyOptions(opts...)
	params := c.buildParams(prompt, options)
	params.StreamOptions = openai.ChatCompletionStreamOptionsParam{
		IncludeUsage: openai.Bool(true),
	}

	stream := c.client.Chat.Completions.NewStreaming(ctx, params)
	ch := make(chan loom.StreamEvent)

	go func() {
		defer close(ch)
		var acc openai.ChatCompletionAccumulator

		for stream.Next() {
			chunk := stream.Current()
			acc.AddChunk(chunk)

			if len(chunk.Choices) > 0 && chunk.Choices[0].Delta.Content != "" {
				ch <- loom.StreamEvent{
					Delta: chunk.Choices[0].Delta.Content,
				}
			}
		}

		if err := stream.Err(); err != nil {
			ch <- loom.StreamEvent{Err: wrapError(err)}
			return
		}

		if len(acc.Choices) == 0 {
			ch <- loom.StreamEvent{Done: true, Response: &loom.Response{}}
			return
		}

		completion := acc.Choices[0]
		ch <- loom.StreamEvent{
			Done: true,
			Response: &loom.Response{
				Content:      completion.Message.Content,
				FinishReason: string(completion.FinishReason),
				Usage: loom.Usage{
					InputTokens:  int(acc.Usage.PromptTokens),
					OutputTokens: int(acc.Usage.CompletionTokens),
				},
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
