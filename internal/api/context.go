package api

import (
	"context"
)

// Caller is the travel API user behind a request.
type Caller struct {
	UserID       int64
	AccessToken  string
	RefreshToken string
	// Verified is set when the access token signature was checked locally.
	Verified bool
}

type ctxKey string

const ctxKeyCaller ctxKey = "caller"

func WithCaller(ctx context.Context, c *Caller) context.Context {
	return context.WithValue(ctx, ctxKeyCaller, c)
}

func CallerFromContext(ctx context.Context) *Caller {
	v := ctx.Value(ctxKeyCaller)
	if v == nil {
		return nil
	}
	c, _ := v.(*Caller)
	return c
}
