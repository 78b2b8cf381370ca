package domain

import "time"

// Activity status values.
const (
	ActivitySuccess = "success"
	ActivityError   = "error"
)

// Activity is one recorded chat completion exchange.
type Activity struct {
	ID               string
	Timestamp        time.Time
	Provider         string
	Model            string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	ResponseTimeMs   float64
	Status           string
	ErrorCode        string
}
