package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"estate-suggest/internal/config"
	"estate-suggest/internal/metrics"
	"estate-suggest/internal/model"

	"go.uber.org/zap"
)

// AuditSink records the outcome of each suggestion request.
type AuditSink interface {
	LogSuggestion(ctx context.Context, entry *model.SuggestionLog) error
}

const auditTimeout = 5 * time.Second

// SuggestService turns a free-text housing query into validated suggestions
type SuggestService struct {
	model  string
	client ChatClient
	filter QueryFilter
	audit  AuditSink
	log    *zap.Logger

	pending sync.WaitGroup // in-flight audit writes
}

// Option configures a SuggestService
type Option func(*SuggestService)

// WithAuditSink enables asynchronous audit records
func WithAuditSink(sink AuditSink) Option {
	return func(s *SuggestService) {
		s.audit = sink
	}
}

// NewSuggestService creates the service. A missing API key is reported here,
// before any request is processed, as a KindConfiguration error.
func NewSuggestService(cfg *config.MistralConfig, client ChatClient, filter QueryFilter, log *zap.Logger, opts ...Option) (*SuggestService, error) {
	if cfg == nil || strings.TrimSpace(cfg.APIKey) == "" {
		return nil, newSuggestError(KindConfiguration, "Mistral API key is missing", ErrMissingAPIKey)
	}
	if filter == nil {
		filter = NewKeywordFilter()
	}
	if log == nil {
		log = zap.NewNop()
	}

	s := &SuggestService{
		model:  cfg.ChatModel,
		client: client,
		filter: filter,
		log:    log.With(zap.String("component", "suggest_service")),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Suggest runs the filter, asks the model once and validates its answer.
// Every error it returns is a *SuggestError.
func (s *SuggestService) Suggest(ctx context.Context, prompt string) (*model.SuggestionResponse, error) {
	start := time.Now()

	resp, err := s.suggest(ctx, prompt)

	outcome := "success"
	count := 0
	if err != nil {
		outcome = KindOf(err).String()
	} else {
		count = len(resp.Suggestions)
		metrics.SuggestionsReturned.Observe(float64(count))
	}
	metrics.SuggestRequests.WithLabelValues(outcome).Inc()

	s.record(ctx, prompt, outcome, count, time.Since(start))

	return resp, err
}

func (s *SuggestService) suggest(ctx context.Context, prompt string) (*model.SuggestionResponse, error) {
	if !s.filter.Allow(prompt) {
		return nil, newSuggestError(KindInvalidQuery, "prompt does not look like a real estate query", nil)
	}

	chatResp, err := s.client.ChatCompletion(ctx, ChatCompletionRequest{
		Model: s.model,
		Messages: []ChatMessage{
			{Role: "system", Content: suggestionSystemPrompt},
			{Role: "user", Content: prompt},
		},
		Temperature:    suggestionTemperature,
		ResponseFormat: &ResponseFormat{Type: responseFormatJSON},
	})
	if err != nil {
		return nil, classifyClientError(err)
	}

	content, ok := chatResp.FirstContent()
	if !ok {
		content = emptyContent
	}

	return ParseSuggestions(content)
}

func classifyClientError(err error) *SuggestError {
	var upstream *UpstreamError
	if errors.As(err, &upstream) {
		return newSuggestError(KindUpstream, "provider returned an error status", err)
	}
	var network *NetworkError
	if errors.As(err, &network) {
		return newSuggestError(KindNetwork, "provider is unreachable", err)
	}
	return newSuggestError(KindUnknown, "unexpected provider response", err)
}

func (s *SuggestService) record(ctx context.Context, prompt, outcome string, count int, took time.Duration) {
	if s.audit == nil {
		return
	}
	entry := &model.SuggestionLog{
		RequestID:       RequestIDFromContext(ctx),
		Prompt:          prompt,
		Outcome:         outcome,
		SuggestionCount: count,
		ResponseTimeMs:  int(took.Milliseconds()),
	}

	// Log suggestion (non-blocking)
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		auditCtx, cancel := context.WithTimeout(context.Background(), auditTimeout)
		defer cancel()
		if err := s.audit.LogSuggestion(auditCtx, entry); err != nil {
			s.log.Warn("failed to write audit record",
				zap.String("request_id", entry.RequestID),
				zap.Error(err),
			)
		}
	}()
}

// Wait blocks until every started audit write has finished. Call it after the
// HTTP server has stopped and before closing the audit sink.
func (s *SuggestService) Wait() {
	s.pending.Wait()
}

type requestIDKey struct{}

// WithRequestID stores the request ID for audit records and log fields
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFromContext returns the stored request ID or ""
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
