package auth

import (
	"context"

	"github.com/colefield/tablefinder/internal/model"
)

type contextKey struct{}

// WithSession attaches the request's session to the context.
func WithSession(ctx context.Context, sess *model.Session) context.Context {
	return context.WithValue(ctx, contextKey{}, sess)
}

// SessionFromContext returns the session loaded by the session
// middleware, or nil when none exists.
func SessionFromContext(ctx context.Context) *model.Session {
	sess, _ := ctx.Value(contextKey{}).(*model.Session)
	return sess
}

func IsAdmin(ctx context.Context) bool {
	sess := SessionFromContext(ctx)
	return sess != nil && sess.IsAdmin
}
