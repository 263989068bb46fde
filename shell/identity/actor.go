package identity

import (
	"context"
	"fmt"

	"github.com/AntonStoeckl/bike-loan-engine-go/core"
)

// Role is the coarse permission set of an actor.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleBorrower Role = "borrower"
)

// IsValid reports whether r is a known role.
func (r Role) IsValid() bool {
	return r == RoleAdmin || r == RoleBorrower
}

// Actor is whoever issues a command. System drivers like the sweeps act as System().
type Actor struct {
	ID   core.BorrowerIDString
	Role Role
}

// System returns the admin actor used by scheduled drivers.
func System() Actor {
	return Actor{ID: "system", Role: RoleAdmin}
}

// IsAdmin reports whether the actor has the admin role.
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// RequireAdmin fails unless the actor is an admin.
func RequireAdmin(actor Actor) error {
	if actor.IsAdmin() {
		return nil
	}

	return fmt.Errorf("%w: %q is not an admin", core.ErrNotAuthorized, actor.ID)
}

// RequireBorrower fails unless the actor is the borrower who owns the loan.
func RequireBorrower(actor Actor, borrowerID core.BorrowerIDString) error {
	if actor.ID != "" && actor.ID == borrowerID {
		return nil
	}

	return fmt.Errorf("%w: %q does not own the loan", core.ErrNotAuthorized, actor.ID)
}

// RequireBorrowerOrAdmin fails unless the actor owns the loan or is an admin.
func RequireBorrowerOrAdmin(actor Actor, borrowerID core.BorrowerIDString) error {
	if actor.IsAdmin() {
		return nil
	}

	return RequireBorrower(actor, borrowerID)
}

type ctxKey string

const actorCtxKey ctxKey = "identity.actor"

// WithActor stores the actor in the context.
func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorCtxKey, actor)
}

// ActorFrom returns the actor stored by WithActor.
func ActorFrom(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(actorCtxKey).(Actor)
	return actor, ok
}
