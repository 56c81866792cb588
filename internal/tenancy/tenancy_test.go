package tenancy

import (
	"context"
	"testing"
)

func TestWithCoachIDAndCoachIDFromContext(t *testing.T) {
	ctx := context.Background()
	ctx = WithCoachID(ctx, "coach-123")

	got, ok := CoachIDFromContext(ctx)
	if !ok {
		t.Fatalf("expected coach id to be present")
	}
	if got != "coach-123" {
		t.Fatalf("expected coach-123, got %s", got)
	}
}

func TestCoachIDFromContext_EmptyOrMissing(t *testing.T) {
	ctx := context.Background()
	if _, ok := CoachIDFromContext(ctx); ok {
		t.Fatalf("expected missing coach id to return false")
	}

	ctx = context.WithValue(ctx, coachKey, 42)
	if _, ok := CoachIDFromContext(ctx); ok {
		t.Fatalf("expected non-string coach id to return false")
	}

	ctx = WithCoachID(context.Background(), "")
	if _, ok := CoachIDFromContext(ctx); ok {
		t.Fatalf("expected empty coach id to return false")
	}
}
