package httpx

import "context"

type ctxKey string

// CtxKeyUserID holds the ID of the authenticated principal a request acts
// on behalf of.
const CtxKeyUserID ctxKey = "user_id"

// ContextWithUserID attaches the acting user's ID to the context.
func ContextWithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, CtxKeyUserID, userID)
}

// UserIDFromContext returns the acting user's ID, or "" when absent.
func UserIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(CtxKeyUserID).(string); ok {
		return v
	}
	return ""
}
