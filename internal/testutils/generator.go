// Package testutils holds test doubles shared across package tests.
package testutils

import (
	"context"
	"sync"

	"github.com/aretw0/easel/pkg/ports"
)

// StubGenerator is a ports.Generator that replies with a fixed string.
// It also satisfies easel.KeyStore, so tests can toggle configuration.
type StubGenerator struct {
	mu     sync.Mutex
	reply  string
	err    error
	apiKey string
	calls  []ports.Completion
}

// NewStubGenerator returns a configured stub that answers every completion with reply.
func NewStubGenerator(reply string) *StubGenerator {
	return &StubGenerator{reply: reply, apiKey: "sk-test"}
}

// Complete records the request and returns the canned reply or error.
func (g *StubGenerator) Complete(_ context.Context, req ports.Completion) (*ports.CompletionResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, req)
	if g.err != nil {
		return nil, g.err
	}
	return &ports.CompletionResult{Content: g.reply, Model: req.Model}, nil
}

func (g *StubGenerator) Configured() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.apiKey != ""
}

func (g *StubGenerator) SetAPIKey(key string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.apiKey = key
}

// APIKey returns the last key set.
func (g *StubGenerator) APIKey() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.apiKey
}

// SetReply changes the canned reply.
func (g *StubGenerator) SetReply(reply string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.reply = reply
}

// Fail makes every following completion return err. A nil err restores replies.
func (g *StubGenerator) Fail(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.err = err
}

// LastPrompt returns the messages of the most recent completion, or nil.
func (g *StubGenerator) LastPrompt() []ports.Message {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.calls) == 0 {
		return nil
	}
	return g.calls[len(g.calls)-1].Messages
}

// Calls returns how many completions were requested.
func (g *StubGenerator) Calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.calls)
}
