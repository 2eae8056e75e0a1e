package model

import (
	"encoding/json"
	"time"
)

// UserRecord is an optional user profile attached to analyses. Users are
// never authenticated; the record exists to carry quiz defaults and to feed
// the totals in the database health report.
type UserRecord struct {
	ID            string          `json:"id"`
	Email         string          `json:"email,omitempty"`
	Username      string          `json:"username,omitempty"`
	Preferences   json.RawMessage `json:"preferences,omitempty"`
	MoodQuizData  json.RawMessage `json:"moodQuizData,omitempty"`
	TotalAnalyses int             `json:"totalAnalyses"`
	LastActive    time.Time       `json:"lastActive"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}
