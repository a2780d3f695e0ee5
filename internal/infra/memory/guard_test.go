package memory

import (
	"context"
	"errors"
	"testing"

	"scamslayer-service/internal/domain"
)

func TestCompletionGuard(t *testing.T) {
	g := NewCompletionGuard()
	release, err := g.Acquire(context.Background(), "u1:1")
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if _, err := g.Acquire(context.Background(), "u1:1"); !errors.Is(err, domain.ErrCompletionInFlight) {
		t.Fatalf("expected in flight, got %v", err)
	}
	if _, err := g.Acquire(context.Background(), "u1:2"); err != nil {
		t.Fatalf("other key should be free: %v", err)
	}

	release()
	release()
	if _, err := g.Acquire(context.Background(), "u1:1"); err != nil {
		t.Fatalf("expected key released: %v", err)
	}
}
