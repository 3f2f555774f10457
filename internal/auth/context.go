package auth

import (
	"context"
	"net/http"
)

type ctxKey struct{}

// UserHeader carries the signed-in user handle from the identity provider
// in front of the API.
const UserHeader = "X-User-ID"

func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, ctxKey{}, userID)
}

// GetUserID returns the user handle placed on ctx, or "" for guests.
func GetUserID(ctx context.Context) string {
	if val, ok := ctx.Value(ctxKey{}).(string); ok {
		return val
	}
	return ""
}

// UserFromRequest reads the handle from the context first, then the header.
func UserFromRequest(r *http.Request) string {
	if id := GetUserID(r.Context()); id != "" {
		return id
	}
	return r.Header.Get(UserHeader)
}
