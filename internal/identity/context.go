package identity

import "context"

type contextKey string

const accessTokenKey contextKey = "accessToken"

// WithAccessToken stores the caller's bearer token in ctx.
func WithAccessToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, accessTokenKey, token)
}

// AccessToken returns the caller's bearer token, "" when none was sent.
func AccessToken(ctx context.Context) string {
	v, _ := ctx.Value(accessTokenKey).(string)
	return v
}
