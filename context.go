package custodian

import "context"

type contextKey int

const ctxKeyActor contextKey = iota

// WithActor returns a context carrying the acting user. The HTTP layer
// populates this from the host's authentication middleware.
func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, ctxKeyActor, actor)
}

// ActorFromContext extracts the acting user from the context.
func ActorFromContext(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(ctxKeyActor).(Actor)
	return a, ok
}
