package memory

import (
	"context"
	"errors"
	"testing"

	"proctor-quiz-service/internal/domain"
)

func TestAttemptStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewAttemptStore()

	if err := store.Save(ctx, domain.Attempt{ID: "a1", UserName: "Ada", Stage: domain.StageVerification}); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := store.Get(ctx, "a1")
	if err != nil || got.UserName != "Ada" {
		t.Fatalf("expected attempt, got %+v %v", got, err)
	}

	if err := store.Delete(ctx, "a1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Get(ctx, "a1"); !errors.Is(err, domain.ErrAttemptNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := store.Delete(ctx, "a1"); !errors.Is(err, domain.ErrAttemptNotFound) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
	if store.Len() != 0 {
		t.Fatalf("expected empty store")
	}
}
