package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"

	"scamslayer-service/internal/domain"
)

func TestCompletionGuardSharedAcrossInstances(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	ctx := context.Background()
	a := NewCompletionGuard(newClient(mr), time.Minute)
	b := NewCompletionGuard(newClient(mr), time.Minute)

	release, err := a.Acquire(ctx, "u1:1")
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if _, err := b.Acquire(ctx, "u1:1"); !errors.Is(err, domain.ErrCompletionInFlight) {
		t.Fatalf("expected in flight from second instance, got %v", err)
	}

	release()
	if mr.Exists("completion:lock:u1:1") {
		t.Fatalf("expected lock released")
	}
	if _, err := b.Acquire(ctx, "u1:1"); err != nil {
		t.Fatalf("expected lock free after release: %v", err)
	}
}

func TestCompletionGuardExpires(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	g := NewCompletionGuard(newClient(mr), time.Second)
	if _, err := g.Acquire(context.Background(), "u1:2"); err != nil {
		t.Fatalf("acquire: %v", err)
	}
	mr.FastForward(2 * time.Second)
	if _, err := g.Acquire(context.Background(), "u1:2"); err != nil {
		t.Fatalf("expected expired lock to be reacquired: %v", err)
	}
}
