// Package ledger orchestrates balance, deduction, history and reset
// operations over the ledger store.
package ledger

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/vibercizing/vibercizing/internal/domain"
	"github.com/vibercizing/vibercizing/internal/metrics"
)

// Service handles single-shot ledger operations.
type Service struct {
	repo      Repository
	publisher Publisher
	logger    *zap.Logger
}

// New creates a Service. All dependencies are required; wiring happens
// once in main, a nil dependency is a startup-ordering bug.
func New(repo Repository, publisher Publisher, logger *zap.Logger) *Service {
	return &Service{repo: repo, publisher: publisher, logger: logger}
}

// DeductResult reports one deduction attempt. Refusal is a normal
// business outcome, not an error.
type DeductResult struct {
	Succeeded bool
	Balance   domain.Balance
}

// History bundles both audit logs, newest first.
type History struct {
	Exercises []domain.ExerciseLogEntry
	Requests  []domain.RequestLogEntry
}

// Balance returns the current balance.
func (s *Service) Balance(ctx context.Context) (domain.Balance, error) {
	balance, err := s.repo.Balance(ctx)
	if err != nil {
		return domain.Balance{}, fmt.Errorf("read balance: %w", err)
	}
	return balance, nil
}

// Deduct attempts to spend one request, then publishes the resulting
// balance to all subscribers regardless of outcome so observers stay
// converged on the true balance.
func (s *Service) Deduct(ctx context.Context) (DeductResult, error) {
	ok, err := s.repo.DebitOneRequest(ctx)
	if err != nil {
		return DeductResult{}, fmt.Errorf("debit request: %w", err)
	}

	balance, err := s.repo.Balance(ctx)
	if err != nil {
		return DeductResult{}, fmt.Errorf("read balance after debit: %w", err)
	}

	s.publisher.PublishBalance(balance)

	outcome := "ok"
	if !ok {
		outcome = "blocked"
		s.logger.Info("deduction blocked",
			zap.Int("requests_available", balance.RequestsAvailable),
		)
	}
	metrics.DeductAttemptsTotal.WithLabelValues(outcome).Inc()

	return DeductResult{Succeeded: ok, Balance: balance}, nil
}

// History returns both audit logs.
func (s *Service) History(ctx context.Context) (History, error) {
	exercises, err := s.repo.ExerciseHistory(ctx)
	if err != nil {
		return History{}, fmt.Errorf("exercise history: %w", err)
	}
	requests, err := s.repo.RequestHistory(ctx)
	if err != nil {
		return History{}, fmt.Errorf("request history: %w", err)
	}
	return History{Exercises: exercises, Requests: requests}, nil
}

// Reset zeroes the balance and deletes both logs.
func (s *Service) Reset(ctx context.Context) error {
	if err := s.repo.Reset(ctx); err != nil {
		return fmt.Errorf("reset ledger: %w", err)
	}
	s.logger.Info("ledger reset")
	return nil
}
