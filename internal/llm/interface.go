// Package llm is the chat-completion layer behind advice narration.
package llm

import "context"

// Provider defines the interface for LLM providers
type Provider interface {
	Name() string
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)
}

// ChatRequest holds the request parameters
type ChatRequest struct {
	SystemPrompt string
	Messages     []Message
	MaxTokens    int
	Temperature  float64
	// JSONMode asks the provider to answer with a single JSON object.
	JSONMode bool
}

// Message represents a chat message
type Message struct {
	Role    string // "user" or "assistant"
	Content string
}

// ChatResponse holds the response from the LLM
type ChatResponse struct {
	Content      string
	Usage        Usage
	FinishReason string
}

// Usage tracks token consumption
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// DefaultMaxTokens applies when a request leaves MaxTokens unset.
const DefaultMaxTokens = 1024

// JSONInstruction is appended to the system prompt of providers without a native JSON mode.
const JSONInstruction = "Respond with a single JSON object and nothing else."

// MaxTokens returns n, or DefaultMaxTokens when n is not positive.
func MaxTokens(n int) int {
	if n <= 0 {
		return DefaultMaxTokens
	}
	return n
}
