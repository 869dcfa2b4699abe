// Package anthropic adapts the Anthropic SDK to the loom.Provider interface.
package anthropic

import (
	"context"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/textloom/loom"
)

const DefaultModel = "claude-sonnet-4-20250514"

// Client wraps the Anthropic SDK to implement loom.Provider.
type Client struct {
	client *anthropic.Client
	model  string
}

// New creates a new Anthropic client with the given API key.
func New(apiKey string, opts ...ClientOption) *Client {
	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	c := &Client{
		client: &client,
		model:  DefaultModel,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ClientOption configures the Anthropic client.
type ClientOption func(*Client)

// WithModel sets the default model for requests.
func WithModel(model string) ClientOption {
	return func(c *Client) {
		c.model = model
	}
}

func (c *Client) buildParams(prompt string, options *loom.Options) anthropic.MessageNewParams {
	model := c.model
	if options.Model != "" {
		model = options.Model
	}

	maxTokens := int64(4096)
	if options.MaxTokens > 0 {
		maxTokens = int64(options.MaxTokens)
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}
	if options.Temperature != nil {
		params.Temperature = anthropic.Float(*options.Temperature)
	}
	return params
}

// Generate sends a prompt and returns a complete response.
func (c *Client) Generate(ctx context.Context, prompt string, opts ...loom.Option) (*loom.Response, error) {
	options := loom.ApplyOptions(opts...)
	params := c.buildParams(prompt, options)

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return nil, wrapError(err)
	}

	content := ""
	for _, block := range resp.Content {
		if block.Type == "text" {
			content += block.Text
		}
	}

	return &loom.Response{
		Content:      content,
		FinishReason: string(resp.StopReason),
		Usage: loom.Usage{
			InputTokens:  int(resp.Usage.InputTokens),
			OutputTokens: int(resp.Usage.OutputTokens),
		},
	}, nil
}

// GenerateStream sends a prompt and returns a channel of streaming events.
func (c *Client) GenerateStream(ctx context.Context, prompt string, opts ...loom.Option) (<-chan loom.StreamEvent, error) {
	options := loom.ApplyOptions(opts...)
	params := c.buildParams(prompt, options)

	stream := c.client.Messages.NewStreaming(ctx, params)
	ch := make(chan loom.StreamEvent)

	go func() {
		defer close(ch)
		var acc anthropic.Message

		for stream.Next() {
			event := stream.Current()
			acc.Accumulate(event)

			if event.Type == "content_block_delta" {
				delta := event.AsContentBlockDelta()
				if textDelta := delta.Delta.AsTextDelta(); textDelta.Type == "text_delta" {
					ch <- loom.StreamEvent{
						Delta: textDelta.Text,
					}
				}
			}
		}

		if err := stream.Err(); err != nil {
			ch <- loom.StreamEvent{Err: wrapError(err)}
			return
		}

		content := ""
		for _, block := range acc.Content {
			if block.Type == "text" {
				content += block.Text
			}
		}

		ch <- loom.StreamEvent{
			Done: true,
			Response: &loom.Response{
				Content:      content,
				FinishReason: string(acc.StopReason),
				Usage: loom.Usage{
					InputTokens:  int(acc.Usage.InputTokens),
					OutputTokens: int(acc.Usage.OutputTokens),
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
