// Package authctx carries authenticated claims through a request context.
//
//	ctx = authctx.Set(ctx, claims)
//	claims, ok := authctx.Get[*auth.Claims](ctx)
package authctx

import (
	"context"
	"errors"
)

type contextKey struct{}

var claimsKey = contextKey{}

// ErrNoClaims is returned when the context carries no claims of the asked type.
var ErrNoClaims = errors.New("authctx: no claims in context")

// Set stores claims in ctx.
func Set(ctx context.Context, claims any) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

// Get returns the claims stored in ctx if they have type T.
func Get[T any](ctx context.Context) (T, bool) {
	claims, ok := ctx.Value(claimsKey).(T)
	return claims, ok
}

// GetOrError is Get returning ErrNoClaims instead of a boolean.
func GetOrError[T any](ctx context.Context) (T, error) {
	claims, ok := Get[T](ctx)
	if !ok {
		return claims, ErrNoClaims
	}
	return claims, nil
}
