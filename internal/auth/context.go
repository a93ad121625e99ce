package auth

import "context"

type contextKey struct{}

var userIDContextKey contextKey

// ContextWithUserID marks the request context as authenticated for userID.
func ContextWithUserID(ctx context.Context, userID int) context.Context {
	return context.WithValue(ctx, userIDContextKey, userID)
}

// UserIDFromContext returns the id of the logged-in user, if any.
func UserIDFromContext(ctx context.Context) (int, bool) {
	userID, ok := ctx.Value(userIDContextKey).(int)
	return userID, ok
}
