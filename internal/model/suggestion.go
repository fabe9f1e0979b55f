package model

import "time"

// Suggestion is one AI-proposed property
type Suggestion struct {
	ID          *int64  `json:"id,omitempty"`
	Address     string  `json:"address"`
	Description string  `json:"description"`
	Price       float64 `json:"price"` // rubles
	Area        float64 `json:"area"`  // square meters
	Rooms       int     `json:"rooms"` // 0 is a studio
	Floor       int     `json:"floor"`
	TotalFloors int     `json:"total_floors"`
	YearBuilt   int     `json:"year_built"`
}

// SuggestionResponse holds suggestions in the order the model produced them
type SuggestionResponse struct {
	Suggestions []Suggestion `json:"suggestions"`
}

// SuggestRequest is the body accepted from web and mobile callers
type SuggestRequest struct {
	Prompt string `json:"prompt" binding:"required"`
}

// SuggestResult is the success envelope
type SuggestResult struct {
	Success bool                `json:"success"`
	Data    *SuggestionResponse `json:"data"`
}

// SuggestFailure is the failure envelope
type SuggestFailure struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// SuggestionLog is one audit record of a suggestion request
type SuggestionLog struct {
	ID              int64     `json:"id" db:"id"`
	RequestID       string    `json:"request_id" db:"request_id"`
	Prompt          string    `json:"prompt" db:"prompt"`
	Outcome         string    `json:"outcome" db:"outcome"`
	SuggestionCount int       `json:"suggestion_count" db:"suggestion_count"`
	ResponseTimeMs  int       `json:"response_time_ms" db:"response_time_ms"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
}
