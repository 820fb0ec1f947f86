package auth

import "context"

// Actor is the authenticated caller of a workflow or query operation.
type Actor struct {
	EmployeeID string
	IsAdmin    bool
}

// Authenticated fails with ErrUnauthenticated when no identity is present.
func (a Actor) Authenticated() error {
	if a.EmployeeID == "" {
		return ErrUnauthenticated
	}
	return nil
}

// RequireAdmin fails with ErrUnauthenticated or ErrAdminRequired.
func (a Actor) RequireAdmin() error {
	if err := a.Authenticated(); err != nil {
		return err
	}
	if !a.IsAdmin {
		return ErrAdminRequired
	}
	return nil
}

// CanView reports whether the actor may read data owned by employeeID.
func (a Actor) CanView(employeeID string) bool {
	return a.IsAdmin || (a.EmployeeID != "" && a.EmployeeID == employeeID)
}

type actorKey struct{}

// WithActor stores the actor in ctx.
func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFromContext returns the zero Actor when none was stored.
func ActorFromContext(ctx context.Context) Actor {
	actor, _ := ctx.Value(actorKey{}).(Actor)
	return actor
}
