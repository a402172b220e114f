package activity

import (
	"context"
	"strings"
)

// Actor identifies who triggered a mutation.
type Actor struct {
	ActorID  string
	UserID   string
	TenantID string
}

type actorKey struct{}

// WithActor attaches actor to ctx so emitted events carry it.
func WithActor(ctx context.Context, actor Actor) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	actor.ActorID = strings.TrimSpace(actor.ActorID)
	actor.UserID = strings.TrimSpace(actor.UserID)
	actor.TenantID = strings.TrimSpace(actor.TenantID)
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFromContext returns the actor stored by WithActor.
func ActorFromContext(ctx context.Context) (Actor, bool) {
	if ctx == nil {
		return Actor{}, false
	}
	actor, ok := ctx.Value(actorKey{}).(Actor)
	return actor, ok
}
