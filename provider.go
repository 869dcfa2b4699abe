package loom

import "context"

// Provider defines the interface to a remote text-generation backend.
type Provider interface {
	// Generate sends a prompt and returns a complete response.
	Generate(ctx context.Context, prompt string, opts ...Option) (*Response, error)

	// GenerateStream sends a prompt and returns a channel of streaming events.
	// The channel is closed when the stream is complete or an error occurs.
	// Callers should check StreamEvent.Err for any errors.
	GenerateStream(ctx context.Context, prompt string, opts ...Option) (<-chan StreamEvent, error)
}

// KeyVerifier is implemented by providers that can check whether their
// credentials are accepted by the backend.
type KeyVerifier interface {
	VerifyKey(ctx context.Context) error
}

// Response represents a complete response from a generation provider.
type Response struct {
	Content      string `json:"content,omitempty"`
	FinishReason string `json:"finishReason,omitempty"`
	Usage        Usage  `json:"usage"`
}

// Usage contains token usage information for a request.
type Usage struct {
	InputTokens  int `json:"inputTokens"`
	OutputTokens int `json:"outputTokens"`
}

// StreamEvent represents a single event in a streaming response.
type StreamEvent struct {
	// Delta contains the incremental content for this event.
	Delta string
	// Done indicates if this is the final event in the stream.
	Done bool
	// Response contains the final response data when Done is true.
	Response *Response
	// Err contains any error that occurred during streaming.
	Err error
}
