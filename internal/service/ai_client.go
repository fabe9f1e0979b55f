package service

import (
	"context"
)

// ChatClient is the interface for chat-completion providers
type ChatClient interface {
	// ChatCompletion sends one request and returns the provider's answer.
	ChatCompletion(ctx context.Context, req ChatCompletionRequest) (*ChatCompletionResponse, error)
}

// Ensure OpenAIClient implements ChatClient
var _ ChatClient = (*OpenAIClient)(nil)
