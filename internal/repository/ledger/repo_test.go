package ledger

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestBalance_FreshStore(t *testing.T) {
	store := openTestStore(t)

	balance, err := store.Balance(context.Background())
	if err != nil {
		t.Fatalf("get balance: %v", err)
	}
	if balance.RequestsAvailable != 0 || balance.RequestsEarned != 0 || balance.RequestsSpent != 0 {
		t.Errorf("expected zero balance, got %+v", balance)
	}
}

func TestCreditAndDebit_Scenario(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.CreditRequests(ctx, 3); err != nil {
		t.Fatalf("credit: %v", err)
	}
	balance, err := store.Balance(ctx)
	if err != nil {
		t.Fatalf("get balance: %v", err)
	}
	if balance.RequestsAvailable != 3 || balance.RequestsEarned != 3 || balance.RequestsSpent != 0 {
		t.Fatalf("after credit(3): got %+v", balance)
	}

	for i := 0; i < 2; i++ {
		ok, err := store.DebitOneRequest(ctx)
		if err != nil {
			t.Fatalf("debit %d: %v", i+1, err)
		}
		if !ok {
			t.Fatalf("debit %d should succeed", i+1)
		}
	}

	ok, err := store.DebitOneRequest(ctx)
	if err != nil {
		t.Fatalf("third debit: %v", err)
	}
	if !ok {
		// available was 1 before this call, it must succeed
		t.Fatal("third debit should succeed")
	}

	ok, err = store.DebitOneRequest(ctx)
	if err != nil {
		t.Fatalf("fourth debit: %v", err)
	}
	if ok {
		t.Fatal("fourth debit should be refused")
	}

	balance, err = store.Balance(ctx)
	if err != nil {
		t.Fatalf("get balance: %v", err)
	}
	if balance.RequestsAvailable != 0 || balance.RequestsEarned != 3 || balance.RequestsSpent != 3 {
		t.Errorf("final balance: got %+v", balance)
	}
}

func TestCreditRequests_RejectsNonPositive(t *testing.T) {
	store := openTestStore(t)

	for _, amount := range []int{0, -1} {
		if err := store.CreditRequests(context.Background(), amount); err == nil {
			t.Errorf("expected error for credit(%d)", amount)
		}
	}
}

func TestDebitOneRequest_LogsEveryAttempt(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.CreditRequests(ctx, 1); err != nil {
		t.Fatalf("credit: %v", err)
	}

	// One success, two refusals: three attempts, three log rows.
	for i := 0; i < 3; i++ {
		if _, err := store.DebitOneRequest(ctx); err != nil {
			t.Fatalf("debit %d: %v", i+1, err)
		}
	}

	history, err := store.RequestHistory(ctx)
	if err != nil {
		t.Fatalf("request history: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("expected 3 request log entries, got %d", len(history))
	}

	blocked := 0
	for _, entry := range history {
		if entry.RequestsDeducted != 1 {
			t.Errorf("expected requests_deducted=1, got %d", entry.RequestsDeducted)
		}
		if entry.Blocked {
			blocked++
		}
	}
	if blocked != 2 {
		t.Errorf("expected 2 blocked attempts, got %d", blocked)
	}
}

func TestDebitOneRequest_ConcurrentRace(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.CreditRequests(ctx, 1); err != nil {
		t.Fatalf("credit: %v", err)
	}

	const attempts = 8
	results := make([]bool, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ok, err := store.DebitOneRequest(ctx)
			if err != nil {
				t.Errorf("debit: %v", err)
				return
			}
			results[i] = ok
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, ok := range results {
		if ok {
			succeeded++
		}
	}
	if succeeded != 1 {
		t.Errorf("expected exactly 1 successful debit against available=1, got %d", succeeded)
	}

	balance, err := store.Balance(ctx)
	if err != nil {
		t.Fatalf("get balance: %v", err)
	}
	if balance.RequestsSpent != 1 {
		t.Errorf("expected spent=1, got %d", balance.RequestsSpent)
	}
	if balance.RequestsSpent > balance.RequestsEarned {
		t.Errorf("spent exceeds earned: %+v", balance)
	}

	history, err := store.RequestHistory(ctx)
	if err != nil {
		t.Fatalf("request history: %v", err)
	}
	if len(history) != attempts {
		t.Errorf("expected %d attempts logged, got %d", attempts, len(history))
	}
}

func TestExerciseHistory_NewestFirst(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	for _, reps := range []int{20, 25, 30} {
		if err := store.LogExercise(ctx, "jumping_jacks", reps, 1); err != nil {
			t.Fatalf("log exercise: %v", err)
		}
	}

	history, err := store.ExerciseHistory(ctx)
	if err != nil {
		t.Fatalf("exercise history: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(history))
	}
	if history[0].RepsCompleted != 30 || history[2].RepsCompleted != 20 {
		t.Errorf("expected newest-first ordering, got reps %d,%d,%d",
			history[0].RepsCompleted, history[1].RepsCompleted, history[2].RepsCompleted)
	}
	for _, entry := range history {
		if entry.ExerciseType != "jumping_jacks" {
			t.Errorf("unexpected exercise type %q", entry.ExerciseType)
		}
		if entry.CreatedAt.IsZero() {
			t.Error("expected a populated created_at")
		}
	}
}

func TestReadsAreIdempotent(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.CreditRequests(ctx, 2); err != nil {
		t.Fatalf("credit: %v", err)
	}
	if err := store.LogExercise(ctx, "jumping_jacks", 20, 1); err != nil {
		t.Fatalf("log exercise: %v", err)
	}

	first, err := store.Balance(ctx)
	if err != nil {
		t.Fatalf("get balance: %v", err)
	}
	second, err := store.Balance(ctx)
	if err != nil {
		t.Fatalf("get balance: %v", err)
	}
	if first != second {
		t.Errorf("balance reads differ: %+v vs %+v", first, second)
	}

	h1, err := store.ExerciseHistory(ctx)
	if err != nil {
		t.Fatalf("exercise history: %v", err)
	}
	h2, err := store.ExerciseHistory(ctx)
	if err != nil {
		t.Fatalf("exercise history: %v", err)
	}
	if len(h1) != len(h2) {
		t.Errorf("history reads differ: %d vs %d entries", len(h1), len(h2))
	}
}

func TestReset(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.CreditRequests(ctx, 5); err != nil {
		t.Fatalf("credit: %v", err)
	}
	if err := store.LogExercise(ctx, "jumping_jacks", 20, 1); err != nil {
		t.Fatalf("log exercise: %v", err)
	}
	if _, err := store.DebitOneRequest(ctx); err != nil {
		t.Fatalf("debit: %v", err)
	}

	if err := store.Reset(ctx); err != nil {
		t.Fatalf("reset: %v", err)
	}

	balance, err := store.Balance(ctx)
	if err != nil {
		t.Fatalf("get balance: %v", err)
	}
	if balance.RequestsAvailable != 0 || balance.RequestsEarned != 0 || balance.RequestsSpent != 0 {
		t.Errorf("expected zero balance after reset, got %+v", balance)
	}

	exercises, err := store.ExerciseHistory(ctx)
	if err != nil {
		t.Fatalf("exercise history: %v", err)
	}
	if len(exercises) != 0 {
		t.Errorf("expected empty exercise history after reset, got %d entries", len(exercises))
	}
	requests, err := store.RequestHistory(ctx)
	if err != nil {
		t.Fatalf("request history: %v", err)
	}
	if len(requests) != 0 {
		t.Errorf("expected empty request history after reset, got %d entries", len(requests))
	}
}

func TestOpen_RequiresPath(t *testing.T) {
	if _, err := Open("  "); err == nil {
		t.Fatal("expected error for empty storage path")
	}
}
