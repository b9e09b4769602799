// Package exercise holds the static exercise registry and the pure
// completion validation rules.
package exercise

import "fmt"

// Config describes one exercise type: how many reps a completion
// requires and how many requests it awards.
type Config struct {
	Name            string
	DisplayName     string
	RepsRequired    int
	RequestsAwarded int
}

// registry is compiled-in configuration, not user-mutable at runtime.
var registry = map[string]Config{
	"jumping_jacks": {
		Name:            "jumping_jacks",
		DisplayName:     "Jumping Jacks",
		RepsRequired:    20,
		RequestsAwarded: 1,
	},
}

// Lookup returns the configuration for an exercise by name.
func Lookup(name string) (Config, bool) {
	cfg, ok := registry[name]
	return cfg, ok
}

// OutcomeCode classifies a completion validation result.
type OutcomeCode string

const (
	// CodeAccepted means the completion met the requirements.
	CodeAccepted OutcomeCode = "accepted"
	// CodeUnknownExercise means the exercise name is not in the registry.
	CodeUnknownExercise OutcomeCode = "unknown_exercise"
	// CodeInsufficientReps means fewer reps than the exercise requires.
	CodeInsufficientReps OutcomeCode = "insufficient_reps"
)

// Outcome is the result of validating an exercise completion.
// Required and Got are populated only for CodeInsufficientReps;
// RequestsAwarded only for CodeAccepted.
type Outcome struct {
	Code            OutcomeCode
	Message         string
	RequestsAwarded int
	Required        int
	Got             int
}

// Accepted reports whether the completion was accepted.
func (o Outcome) Accepted() bool {
	return o.Code == CodeAccepted
}

// ValidateCompletion checks a completion against the registry.
// Pure function, no side effects.
func ValidateCompletion(name string, reps int) Outcome {
	cfg, ok := Lookup(name)
	if !ok {
		return Outcome{
			Code:    CodeUnknownExercise,
			Message: fmt.Sprintf("Unknown exercise: %s", name),
		}
	}

	if reps < cfg.RepsRequired {
		return Outcome{
			Code:     CodeInsufficientReps,
			Message:  fmt.Sprintf("Need %d reps, got %d", cfg.RepsRequired, reps),
			Required: cfg.RepsRequired,
			Got:      reps,
		}
	}

	return Outcome{
		Code:            CodeAccepted,
		Message:         fmt.Sprintf("Completed %s!", cfg.DisplayName),
		RequestsAwarded: cfg.RequestsAwarded,
	}
}
