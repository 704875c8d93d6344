// Package reqctx carries per-request correlation fields through the call
// graph. The fields travel inside the context.Context itself, so they stay
// attached to the work no matter which goroutine picks it up — including
// detached audit writes that outlive the request.
package reqctx

import (
	"context"

	"github.com/google/uuid"
)

// Default principals for operations with no authenticated user.
const (
	UserAnonymous = "anonymous"
	UserSystem    = "system"
)

type ctxKey struct{}

// Context holds the correlation fields for one inbound request. It is
// immutable once stored; derive a new one with a copy if a field must change.
type Context struct {
	RequestID string
	SessionID string
	IPAddress string
	UserAgent string
	UserID    string
}

// With returns a context carrying rc. An empty UserID defaults to anonymous.
func With(ctx context.Context, rc Context) context.Context {
	if rc.UserID == "" {
		rc.UserID = UserAnonymous
	}
	return context.WithValue(ctx, ctxKey{}, rc)
}

// From returns the request context carried by ctx. When none was established
// (background jobs that skipped System, tests) it returns anonymous defaults
// rather than failing.
func From(ctx context.Context) Context {
	if rc, ok := ctx.Value(ctxKey{}).(Context); ok {
		return rc
	}
	return Context{UserID: UserAnonymous}
}

// WithUser returns ctx with the carried UserID replaced. Used once
// authentication resolves the principal, after the carrier was established.
func WithUser(ctx context.Context, userID string) context.Context {
	rc := From(ctx)
	rc.UserID = userID
	return With(ctx, rc)
}

// System returns a background context for operations not triggered by an
// inbound request (scheduler, CLI). operation names the initiator and becomes
// the user agent of any audit entries produced.
func System(operation string) context.Context {
	return With(context.Background(), Context{
		RequestID: uuid.NewString(),
		SessionID: uuid.NewString(),
		IPAddress: "127.0.0.1",
		UserAgent: operation,
		UserID:    UserSystem,
	})
}

// Detach returns a context that keeps the carried correlation fields but is
// no longer cancelled with the request. Fire-and-forget work (audit writes)
// runs under a detached context so a client disconnect cannot abort a write
// that is already in flight.
func Detach(ctx context.Context) context.Context {
	return context.WithoutCancel(ctx)
}
