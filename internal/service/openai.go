package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"estate-suggest/internal/config"
	"estate-suggest/internal/metrics"

	"go.uber.org/zap"
)

// maxResponseBytes caps how much of a provider response is read
const maxResponseBytes = 1 << 20

// OpenAIClient talks to an OpenAI-compatible chat-completion API (Mistral by default).
// It makes exactly one attempt per call.
type OpenAIClient struct {
	config     *config.MistralConfig
	httpClient *http.Client
	log        *zap.Logger
}

// NewOpenAIClient creates a client bounded by the configured timeout
func NewOpenAIClient(cfg *config.MistralConfig, log *zap.Logger) *OpenAIClient {
	return &OpenAIClient{
		config: cfg,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.Timeout) * time.Second,
		},
		log: log.With(zap.String("component", "chat_client")),
	}
}

// ChatCompletionRequest represents a chat completion request
type ChatCompletionRequest struct {
	Model          string          `json:"model"`
	Messages       []ChatMessage   `json:"messages"`
	Temperature    float64         `json:"temperature"`
	ResponseFormat *ResponseFormat `json:"response_format,omitempty"`
}

// ChatMessage represents a single message in the conversation
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ResponseFormat specifies the format of the response
type ResponseFormat struct {
	Type string `json:"type"` // "json_object" or "text"
}

// ChatCompletionResponse represents the API response.
// Message content is a pointer so an absent or null content can be told apart
// from an empty string.
type ChatCompletionResponse struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Created int64  `json:"created"`
	Model   string `json:"model"`
	Choices []ChatChoice `json:"choices"`
	Usage   struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// ChatChoice is one completion alternative
type ChatChoice struct {
	Index        int       `json:"index"`
	Message      ChatReply `json:"message"`
	FinishReason string    `json:"finish_reason"`
}

// ChatReply is the assistant message of a choice
type ChatReply struct {
	Role    string  `json:"role"`
	Content *string `json:"content"`
}

// FirstContent returns the first choice's message content, if any
func (r *ChatCompletionResponse) FirstContent() (string, bool) {
	if len(r.Choices) == 0 || r.Choices[0].Message.Content == nil {
		return "", false
	}
	return *r.Choices[0].Message.Content, true
}

// ChatCompletion performs a chat completion request.
// Non-2xx answers return *UpstreamError, transport failures return *NetworkError.
func (c *OpenAIClient) ChatCompletion(ctx context.Context, req ChatCompletionRequest) (*ChatCompletionResponse, error) {
	if req.Model == "" {
		req.Model = c.config.ChatModel
	}

	reqBody, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := c.config.APIBase + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.config.APIKey)

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		metrics.UpstreamDuration.WithLabelValues("network_error").Observe(time.Since(start).Seconds())
		return nil, &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
	metrics.UpstreamDuration.WithLabelValues(fmt.Sprintf("%d", resp.StatusCode)).Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, &NetworkError{Err: fmt.Errorf("failed to read response: %w", err)}
	}
	truncated := len(body) > maxResponseBytes
	if truncated {
		body = body[:maxResponseBytes]
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	if truncated {
		return nil, fmt.Errorf("response exceeds %d bytes", maxResponseBytes)
	}

	var result ChatCompletionResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	c.log.Debug("chat completion finished",
		zap.String("model", result.Model),
		zap.Int("choices", len(result.Choices)),
		zap.Int("total_tokens", result.Usage.TotalTokens),
		zap.Duration("took", time.Since(start)),
	)

	return &result, nil
}
