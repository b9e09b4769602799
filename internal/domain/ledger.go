// Package domain holds the core ledger types shared across layers.
package domain

import "time"

// Balance is the singleton request balance. Available is always
// earned minus spent and never negative for committed state.
type Balance struct {
	RequestsAvailable int `json:"requests_available"`
	RequestsEarned    int `json:"requests_earned"`
	RequestsSpent     int `json:"requests_spent"`
}

// ExerciseLogEntry records one successful exercise completion.
type ExerciseLogEntry struct {
	ID              int64     `json:"id"`
	ExerciseType    string    `json:"exercise_type"`
	RepsCompleted   int       `json:"reps_completed"`
	RequestsAwarded int       `json:"requests_awarded"`
	CreatedAt       time.Time `json:"created_at"`
}

// RequestLogEntry records one deduction attempt. Blocked attempts are
// logged too; the request log is an audit trail of attempts, not successes.
type RequestLogEntry struct {
	ID               int64     `json:"id"`
	RequestsDeducted int       `json:"requests_deducted"`
	Blocked          bool      `json:"blocked"`
	CreatedAt        time.Time `json:"created_at"`
}
