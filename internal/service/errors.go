package service

import (
	"errors"
	"fmt"
)

// Kind classifies a suggestion failure. The HTTP layer picks status codes and
// user-facing text from the kind alone.
type Kind int

const (
	// KindUnknown covers failures that fit no other kind.
	KindUnknown Kind = iota
	// KindConfiguration means the provider credential is missing.
	KindConfiguration
	// KindInvalidQuery means the prompt did not pass the plausibility filter.
	KindInvalidQuery
	// KindUpstream means the provider answered with a non-2xx status.
	KindUpstream
	// KindNetwork means the provider could not be reached.
	KindNetwork
	// KindMalformedOutput means the model output failed parsing or schema validation.
	KindMalformedOutput
	// KindNoSuggestions means the model output had no suggestions key.
	KindNoSuggestions
)

func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindInvalidQuery:
		return "invalid_query"
	case KindUpstream:
		return "upstream"
	case KindNetwork:
		return "network"
	case KindMalformedOutput:
		return "malformed_output"
	case KindNoSuggestions:
		return "no_suggestions"
	default:
		return "unknown"
	}
}

// SuggestError is the only error type Suggest returns.
type SuggestError struct {
	Kind    Kind
	Message string // diagnostic text, never shown to end users
	Err     error

	// ArrayForObject is set on malformed output when a value that had to be an
	// object turned out to be an array.
	ArrayForObject bool
	// Violations lists schema violations for malformed output.
	Violations []string
}

func (e *SuggestError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *SuggestError) Unwrap() error {
	return e.Err
}

func newSuggestError(kind Kind, message string, err error) *SuggestError {
	return &SuggestError{Kind: kind, Message: message, Err: err}
}

// KindOf reports the kind of err, or KindUnknown when err is not a *SuggestError.
func KindOf(err error) Kind {
	var se *SuggestError
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindUnknown
}

// ErrMissingAPIKey is wrapped by configuration errors.
var ErrMissingAPIKey = errors.New("provider API key is not configured")

// UpstreamError is returned by the chat client when the provider answers with
// a non-2xx status. Body is kept for server-side diagnostics only.
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("API request failed with status %d: %s", e.StatusCode, e.Body)
}

// NetworkError is returned by the chat client when the request never produced
// a response: DNS, connection, timeout or cancellation.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("failed to send request: %v", e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}
