package auth

import "context"

type contextKey struct{}

// AuthContext identifies the caller of a request. UserID is the subject of
// the bearer token issued by the identity provider.
type AuthContext struct {
	UserID string
	Email  string
	Name   string
}

func WithAuth(ctx context.Context, ac AuthContext) context.Context {
	return context.WithValue(ctx, contextKey{}, ac)
}

func FromContext(ctx context.Context) (AuthContext, bool) {
	ac, ok := ctx.Value(contextKey{}).(AuthContext)
	return ac, ok
}

func UserID(ctx context.Context) string {
	ac, ok := FromContext(ctx)
	if !ok {
		return ""
	}
	return ac.UserID
}

// DisplayName falls back from the name claim to the email address.
func DisplayName(ctx context.Context) string {
	ac, ok := FromContext(ctx)
	if !ok {
		return ""
	}
	if ac.Name != "" {
		return ac.Name
	}
	return ac.Email
}
