// Package provider defines the interface for the LLM backends that
// produce file-mapping responses.
//
// This package keeps the rest of the tool agnostic about where a
// response comes from: the pipeline consumes plain response text, and a
// Client is only responsible for turning a prompt into that text. The
// Gemini REST backend is the production implementation; the mock backend
// serves tests and offline runs.
//
// # Usage
//
// Create a client using the registry:
//
//	client, err := provider.New("gemini", provider.Config{
//	    Model:  "gemini-2.5-pro",
//	    APIKey: os.Getenv("GEMINI_API_KEY"),
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	resp, err := client.Complete(ctx, provider.Request{Prompt: prompt})
//
// # Available Providers
//
//   - "gemini": Google Gemini via the generateContent REST API
//   - "mock": canned responses for tests and dry runs
package provider

import "context"

// Client is the interface all LLM backends implement.
// Implementations must be safe for concurrent use.
type Client interface {
	// Complete sends a request and returns the full response.
	// The context controls cancellation and timeouts.
	Complete(ctx context.Context, req Request) (*Response, error)

	// Provider returns the provider name (e.g., "gemini", "mock").
	Provider() string

	// Close releases any resources held by the client.
	Close() error
}
