package server

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/mohammad-safakhou/wikichat/config"
	"github.com/mohammad-safakhou/wikichat/internal/chat"
)

// HTTPError is the error envelope returned by the server.
type HTTPError struct {
	Error string `json:"error"`
}

// ChatRequest is the POST /chat payload. Pointer fields distinguish an absent
// value from an explicit zero so server-side defaults can apply.
type ChatRequest struct {
	Query       string   `json:"query"`
	MaxTokens   *int     `json:"max_tokens"`
	Temperature *float64 `json:"temperature"`
	UseContext  *bool    `json:"use_context"`
}

// Pipeline validates the payload against the declared bounds and produces the
// pipeline request with defaults filled in. A validation error here means no
// external call has been made yet.
func (r ChatRequest) Pipeline(defaults config.ChatConfig) (chat.Request, error) {
	q := strings.TrimSpace(r.Query)
	if q == "" {
		return chat.Request{}, errors.New("query cannot be empty or just whitespace")
	}
	if utf8.RuneCountInString(q) > 2000 {
		return chat.Request{}, errors.New("query must be at most 2000 characters")
	}

	maxTokens := defaults.DefaultMaxTokens
	if r.MaxTokens != nil {
		maxTokens = *r.MaxTokens
	}
	if maxTokens < 1 || maxTokens > 2000 {
		return chat.Request{}, errors.New("max_tokens must be between 1 and 2000")
	}

	temperature := defaults.DefaultTemperature
	if r.Temperature != nil {
		temperature = *r.Temperature
	}
	if temperature < 0.0 || temperature > 1.0 {
		return chat.Request{}, errors.New("temperature must be between 0.0 and 1.0")
	}

	useContext := true
	if r.UseContext != nil {
		useContext = *r.UseContext
	}

	return chat.Request{
		Query:       q,
		MaxTokens:   maxTokens,
		Temperature: temperature,
		UseContext:  useContext,
	}, nil
}

// ChatResponse is the POST /chat reply. The shape is identical whether or not
// the interaction could be recorded.
type ChatResponse struct {
	Response  string    `json:"response"`
	Query     string    `json:"query"`
	Sources   []string  `json:"sources"`
	Timestamp time.Time `json:"timestamp"`
}

// HistoryItem is one stored interaction projected for the history endpoint.
type HistoryItem struct {
	ID        string    `json:"id"`
	Query     string    `json:"query"`
	Response  string    `json:"response"`
	Sources   []string  `json:"sources"`
	Timestamp time.Time `json:"timestamp"`
}

// HistoryResponse is a recency-ordered page of interactions plus total count.
type HistoryResponse struct {
	History []HistoryItem `json:"history"`
	Total   int           `json:"total"`
}

// ClearResponse reports a bulk history wipe.
type ClearResponse struct {
	Deleted int64  `json:"deleted"`
	Message string `json:"message"`
}

// HealthResponse reports storage reachability and the static capability set.
// Conversations is an int when storage answered and the string "unknown" when
// it did not.
type HealthResponse struct {
	Status         string          `json:"status"`
	Service        string          `json:"service"`
	Conversations  interface{}     `json:"total_conversations"`
	DatabaseStatus string          `json:"database_status"`
	Features       map[string]bool `json:"features"`
}
