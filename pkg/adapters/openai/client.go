package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/aretw0/easel/pkg/ports"
)

// DefaultBaseURL is the public OpenAI API.
const DefaultBaseURL = "https://api.openai.com/v1"

// Client implements ports.Generator over the chat completions endpoint.
// The API key may be replaced at runtime; all methods are safe for
// concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client

	mu     sync.RWMutex
	apiKey string
}

// Option configures the Client.
type Option func(*Client)

// WithBaseURL points the client at a compatible endpoint.
func WithBaseURL(url string) Option {
	return func(c *Client) {
		if url != "" {
			c.baseURL = strings.TrimRight(url, "/")
		}
	}
}

// WithHTTPClient overrides http.DefaultClient.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// New creates a client. An empty apiKey leaves it unconfigured.
func New(apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		httpClient: http.DefaultClient,
		apiKey:     strings.TrimSpace(apiKey),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetAPIKey replaces the key used by later requests.
func (c *Client) SetAPIKey(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.apiKey = strings.TrimSpace(key)
}

// Configured reports whether an API key is set.
func (c *Client) Configured() bool {
	return c.key() != ""
}

func (c *Client) key() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.apiKey
}

type chatRequest struct {
	Model       string          `json:"model"`
	Messages    []ports.Message `json:"messages"`
	Temperature float64         `json:"temperature"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type errorBody struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// APIError is a non-2xx answer from the API.
type APIError struct {
	Status  int
	Type    string
	Message string
}

func (e *APIError) Error() string {
	if e.Type == "" {
		return fmt.Sprintf("API error (%d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("API error (%d): %s - %s", e.Status, e.Type, e.Message)
}

// Complete sends one chat completion and returns the first choice.
// A reply without choices yields empty content.
func (c *Client) Complete(ctx context.Context, req ports.Completion) (*ports.CompletionResult, error) {
	body, err := json.Marshal(chatRequest{
		Model:       req.Model,
		Messages:    req.Messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.key())

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode/100 != 2 {
		apiErr := &APIError{Status: resp.StatusCode, Message: strings.TrimSpace(string(data))}
		var eb errorBody
		if json.Unmarshal(data, &eb) == nil && eb.Error.Message != "" {
			apiErr.Type = eb.Error.Type
			apiErr.Message = eb.Error.Message
		}
		return nil, apiErr
	}

	var cr chatResponse
	if err := json.Unmarshal(data, &cr); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	out := &ports.CompletionResult{Model: cr.Model}
	if len(cr.Choices) > 0 {
		out.Content = cr.Choices[0].Message.Content
	}
	return out, nil
}
