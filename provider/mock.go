package provider

import (
	"context"
	"sync"
	"time"
)

func init() {
	Register("mock", func(cfg Config) (Client, error) {
		return NewMock(), nil
	})
}

// Mock is a test double for the Client interface. It returns canned
// responses, records every request it receives, and is safe for
// concurrent use.
type Mock struct {
	mu sync.Mutex

	// responses are returned in order, cycling when exhausted.
	responses []string
	next      int

	// err, when set, is returned from every Complete call.
	err error

	// completeFunc, when set, overrides the canned behavior entirely.
	completeFunc func(ctx context.Context, req Request) (*Response, error)

	// Calls records every request passed to Complete.
	Calls []Request

	closed bool
}

// MockOption configures a Mock.
type MockOption func(*Mock)

// WithResponses sets the canned response texts, returned in order and
// cycling when exhausted.
func WithResponses(responses ...string) MockOption {
	return func(m *Mock) { m.responses = responses }
}

// WithError makes every Complete call fail with err.
func WithError(err error) MockOption {
	return func(m *Mock) { m.err = err }
}

// WithCompleteFunc replaces Complete's behavior entirely.
func WithCompleteFunc(fn func(ctx context.Context, req Request) (*Response, error)) MockOption {
	return func(m *Mock) { m.completeFunc = fn }
}

// NewMock creates a Mock client. With no options it responds to every
// request with an empty JSON mapping in a fenced block.
func NewMock(opts ...MockOption) *Mock {
	m := &Mock{}
	for _, opt := range opts {
		opt(m)
	}
	if len(m.responses) == 0 {
		m.responses = []string{"```json\n{}\n```"}
	}
	return m
}

// Provider returns "mock".
func (m *Mock) Provider() string { return "mock" }

// Close marks the client closed.
func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Complete records the request and returns the next canned response.
func (m *Mock) Complete(ctx context.Context, req Request) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, NewError("mock", "complete", err, false)
	}

	m.mu.Lock()
	m.Calls = append(m.Calls, req)
	fn := m.completeFunc
	err := m.err
	var content string
	if fn == nil && err == nil {
		content = m.responses[m.next%len(m.responses)]
		m.next++
	}
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, req)
	}
	if err != nil {
		return nil, err
	}
	return &Response{
		Content:      content,
		Model:        req.Model,
		FinishReason: "STOP",
		Duration:     time.Millisecond,
	}, nil
}

// CallCount returns how many requests Complete has received.
func (m *Mock) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}
