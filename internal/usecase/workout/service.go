// Package workout orchestrates exercise completions: validation against
// the registry, crediting the ledger and recording the completion.
package workout

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/vibercizing/vibercizing/internal/domain"
	"github.com/vibercizing/vibercizing/internal/domain/exercise"
	"github.com/vibercizing/vibercizing/internal/metrics"
)

// Service handles exercise completion events.
type Service struct {
	ledger Ledger
	logger *zap.Logger
}

// New creates a Service.
func New(ledger Ledger, logger *zap.Logger) *Service {
	return &Service{ledger: ledger, logger: logger}
}

// Award describes a granted completion.
type Award struct {
	Exercise string
	Requests int
	Message  string
}

// Result is the outcome of one completion attempt. Award and Balance
// are meaningful only when Outcome is accepted. The caller decides when
// to broadcast Balance so it can sequence its own messages first.
type Result struct {
	Outcome exercise.Outcome
	Award   Award
	Balance domain.Balance
}

// Complete validates a completion and, when accepted, credits the
// awarded requests and logs the exercise. Rejections cause no ledger
// mutation.
func (s *Service) Complete(ctx context.Context, exerciseName string, reps int) (Result, error) {
	outcome := exercise.ValidateCompletion(exerciseName, reps)
	if !outcome.Accepted() {
		s.logger.Debug("completion rejected",
			zap.String("exercise", exerciseName),
			zap.Int("reps", reps),
			zap.String("reason", string(outcome.Code)),
		)
		return Result{Outcome: outcome}, nil
	}

	if err := s.ledger.CreditRequests(ctx, outcome.RequestsAwarded); err != nil {
		return Result{}, fmt.Errorf("credit requests: %w", err)
	}
	if err := s.ledger.LogExercise(ctx, exerciseName, reps, outcome.RequestsAwarded); err != nil {
		return Result{}, fmt.Errorf("log exercise: %w", err)
	}

	balance, err := s.ledger.Balance(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("read balance after credit: %w", err)
	}

	metrics.RequestsEarnedTotal.Add(float64(outcome.RequestsAwarded))
	s.logger.Info("exercise completed",
		zap.String("exercise", exerciseName),
		zap.Int("reps", reps),
		zap.Int("requests_awarded", outcome.RequestsAwarded),
		zap.Int("requests_available", balance.RequestsAvailable),
	)

	return Result{
		Outcome: outcome,
		Award: Award{
			Exercise: exerciseName,
			Requests: outcome.RequestsAwarded,
			Message:  awardMessage(exerciseName, reps, outcome.RequestsAwarded),
		},
		Balance: balance,
	}, nil
}

func awardMessage(exerciseName string, reps, awarded int) string {
	return fmt.Sprintf("Nice! +%d request for %d %s",
		awarded, reps, strings.ReplaceAll(exerciseName, "_", " "))
}
