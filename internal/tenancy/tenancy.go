package tenancy

import "context"

type ctxKey string

const coachKey ctxKey = "coachdesk.coach_id"

// WithCoachID stores the acting coach id in context.
func WithCoachID(ctx context.Context, coachID string) context.Context {
	return context.WithValue(ctx, coachKey, coachID)
}

// CoachIDFromContext extracts the coach id if present.
func CoachIDFromContext(ctx context.Context) (string, bool) {
	val := ctx.Value(coachKey)
	if val == nil {
		return "", false
	}
	coachID, ok := val.(string)
	return coachID, ok && coachID != ""
}
