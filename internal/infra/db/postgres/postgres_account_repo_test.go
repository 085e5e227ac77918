//go:build integration

package postgres

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"

	"sodai-platform/internal/domain"
	"sodai-platform/internal/domain/model"
)

func TestAccountRepo_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode.")
	}

	ctx := context.Background()
	repo := NewAccountRepo(testPool)

	t.Run("should save and find an account", func(t *testing.T) {
		cleanup(t)
		acc, _ := model.NewAccount(uuid.NewString(), "Ayşe Yılmaz")
		acc.Credits = 10

		if err := repo.Save(ctx, nil, acc); err != nil {
			t.Fatalf("Failed to save account: %v", err)
		}

		found, err := repo.FindByID(ctx, nil, acc.ID)
		if err != nil {
			t.Fatalf("FindByID failed: %v", err)
		}
		if found.FullName != "Ayşe Yılmaz" || found.Credits != 10 {
			t.Fatalf("found wrong account: %+v", found)
		}
	})

	t.Run("save is an upsert on the account id", func(t *testing.T) {
		cleanup(t)
		acc, _ := model.NewAccount(uuid.NewString(), "Eski Ad")
		if err := repo.Save(ctx, nil, acc); err != nil {
			t.Fatalf("Failed to save account: %v", err)
		}

		acc.FullName = "Yeni Ad"
		if err := repo.Save(ctx, nil, acc); err != nil {
			t.Fatalf("Failed to re-save account: %v", err)
		}

		found, _ := repo.FindByID(ctx, nil, acc.ID)
		if found.FullName != "Yeni Ad" {
			t.Fatalf("expected updated name, got %q", found.FullName)
		}
	})

	t.Run("find missing account returns not found", func(t *testing.T) {
		cleanup(t)
		_, err := repo.FindByID(ctx, nil, uuid.NewString())
		if !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("deduct succeeds only while balance covers it", func(t *testing.T) {
		cleanup(t)
		acc, _ := model.NewAccount(uuid.NewString(), "Test")
		acc.Credits = 3
		if err := repo.Save(ctx, nil, acc); err != nil {
			t.Fatalf("Failed to save account: %v", err)
		}

		ok, err := repo.DeductCredits(ctx, nil, acc.ID, 2)
		if err != nil || !ok {
			t.Fatalf("expected deduction to succeed, ok=%v err=%v", ok, err)
		}
		ok, err = repo.DeductCredits(ctx, nil, acc.ID, 2)
		if err != nil {
			t.Fatalf("DeductCredits failed: %v", err)
		}
		if ok {
			t.Fatal("expected deduction past the balance to be denied")
		}

		found, _ := repo.FindByID(ctx, nil, acc.ID)
		if found.Credits != 1 {
			t.Fatalf("expected 1 credit left, got %d", found.Credits)
		}
	})

	t.Run("concurrent deductions never overdraw", func(t *testing.T) {
		cleanup(t)
		acc, _ := model.NewAccount(uuid.NewString(), "Test")
		acc.Credits = 5
		if err := repo.Save(ctx, nil, acc); err != nil {
			t.Fatalf("Failed to save account: %v", err)
		}

		var wg sync.WaitGroup
		var mu sync.Mutex
		granted := 0
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				ok, err := repo.DeductCredits(ctx, nil, acc.ID, 1)
				if err == nil && ok {
					mu.Lock()
					granted++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		if granted != 5 {
			t.Fatalf("expected exactly 5 deductions to win, got %d", granted)
		}
		found, _ := repo.FindByID(ctx, nil, acc.ID)
		if found.Credits != 0 {
			t.Fatalf("expected empty balance, got %d", found.Credits)
		}
	})

	t.Run("add credits to missing account returns not found", func(t *testing.T) {
		cleanup(t)
		err := repo.AddCredits(ctx, nil, uuid.NewString(), 100)
		if !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}
