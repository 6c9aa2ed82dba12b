package shared

import "context"

// Actor identifies the caller of a service operation. It is resolved
// once per request and travels down through context.
type Actor struct {
	UserID   int64
	Username string
}

type actorContextKey struct{}

// ContextWithActor stores the caller identity in the context.
func ContextWithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

// ActorFromContext extracts the caller identity, reporting whether one
// was set.
func ActorFromContext(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(Actor)
	return actor, ok
}
