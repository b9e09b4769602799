package ledger

import (
	"context"

	"github.com/vibercizing/vibercizing/internal/domain"
)

// Repository defines the storage contract for the ledger.
type Repository interface {
	Balance(ctx context.Context) (domain.Balance, error)
	CreditRequests(ctx context.Context, amount int) error
	DebitOneRequest(ctx context.Context) (bool, error)
	LogExercise(ctx context.Context, exerciseType string, reps, requestsAwarded int) error
	ExerciseHistory(ctx context.Context) ([]domain.ExerciseLogEntry, error)
	RequestHistory(ctx context.Context) ([]domain.RequestLogEntry, error)
	Reset(ctx context.Context) error
}

// Publisher pushes balance snapshots to live subscribers.
type Publisher interface {
	PublishBalance(balance domain.Balance)
}
