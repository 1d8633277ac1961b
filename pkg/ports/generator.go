package ports

import "context"

// Message is one turn of a chat completion request.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Completion is a request to the language model.
type Completion struct {
	Model       string
	Messages    []Message
	Temperature float64
	MaxTokens   int
}

// CompletionResult is the model's reply.
type CompletionResult struct {
	Content string
	Model   string
}

// Generator produces text completions.
type Generator interface {
	// Complete sends the conversation and returns the first choice's content.
	Complete(ctx context.Context, req Completion) (*CompletionResult, error)

	// Configured reports whether the generator has the credentials it needs.
	Configured() bool
}
