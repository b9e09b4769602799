package workout

import (
	"context"

	"github.com/vibercizing/vibercizing/internal/domain"
)

// Ledger is the subset of the ledger store a completion needs.
type Ledger interface {
	Balance(ctx context.Context) (domain.Balance, error)
	CreditRequests(ctx context.Context, amount int) error
	LogExercise(ctx context.Context, exerciseType string, reps, requestsAwarded int) error
}
