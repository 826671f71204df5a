package mocks

import (
	"context"
	"errors"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/recipick/backend/internal/llm"
)

// ErrScriptExhausted is returned once a ScriptedClient has no responses left.
var ErrScriptExhausted = errors.New("scripted llm: no responses left")

// ScriptedResponse is one canned completion or failure.
type ScriptedResponse struct {
	Text string
	Err  error
}

// ScriptedClient replays responses in order, or delegates to Handler when set.
// Every call is recorded.
type ScriptedClient struct {
	mu        sync.Mutex
	responses []ScriptedResponse
	calls     [][]llm.Message

	Handler func(messages []llm.Message) (string, error)
}

// NewScriptedClient returns a client that answers with texts in order.
func NewScriptedClient(texts ...string) *ScriptedClient {
	c := &ScriptedClient{}
	for _, t := range texts {
		c.responses = append(c.responses, ScriptedResponse{Text: t})
	}
	return c
}

// Then appends a response.
func (c *ScriptedClient) Then(text string, err error) *ScriptedClient {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.responses = append(c.responses, ScriptedResponse{Text: text, Err: err})
	return c
}

func (c *ScriptedClient) Complete(ctx context.Context, messages []llm.Message) (string, error) {
	c.mu.Lock()
	c.calls = append(c.calls, append([]llm.Message(nil), messages...))
	handler := c.Handler
	var next *ScriptedResponse
	if handler == nil && len(c.responses) > 0 {
		next = &c.responses[0]
		c.responses = c.responses[1:]
	}
	c.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if handler != nil {
		return handler(messages)
	}
	if next == nil {
		return "", ErrScriptExhausted
	}
	return next.Text, next.Err
}

// Calls returns a copy of every message list received so far.
func (c *ScriptedClient) Calls() [][]llm.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([][]llm.Message(nil), c.calls...)
}

// CallCount returns the number of Complete calls.
func (c *ScriptedClient) CallCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.calls)
}

// MockLLMClient is a mock implementation of llm.Client
type MockLLMClient struct {
	mock.Mock
}

func (m *MockLLMClient) Complete(ctx context.Context, messages []llm.Message) (string, error) {
	args := m.Called(ctx, messages)
	return args.String(0), args.Error(1)
}
