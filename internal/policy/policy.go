// Package policy decides whether an actor may perform an action on a resource.
// Every service evaluates it explicitly before touching the store.
package policy

import (
	"review-catalog/internal/data/entity"
	"review-catalog/pkg/apperror"

	"github.com/google/uuid"
)

type Action string

const (
	ActionRead   Action = "read"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

type Kind string

const (
	KindCategory Kind = "category"
	KindGenre    Kind = "genre"
	KindTitle    Kind = "title"
	KindReview   Kind = "review"
	KindComment  Kind = "comment"
	KindUser     Kind = "user"
	KindProfile  Kind = "profile"
)

// Actor is the authenticated caller. A nil *Actor is anonymous.
type Actor struct {
	ID          uuid.UUID
	Role        entity.UserRole
	IsSuperuser bool
}

// Resource names the target. OwnerID is the author for reviews and comments
// and the profile owner for KindProfile; it is ignored otherwise.
type Resource struct {
	Kind    Kind
	OwnerID uuid.UUID
}

func On(kind Kind) Resource {
	return Resource{Kind: kind}
}

func Owned(kind Kind, ownerID uuid.UUID) Resource {
	return Resource{Kind: kind, OwnerID: ownerID}
}

type Decision int

const (
	Allow Decision = iota
	Unauthenticated
	Forbidden
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case Unauthenticated:
		return "unauthenticated"
	default:
		return "forbidden"
	}
}

func (a *Actor) isAdmin() bool {
	return a.IsSuperuser || a.Role == entity.RoleAdmin
}

func (a *Actor) isModerator() bool {
	return a.IsSuperuser || a.Role.AtLeast(entity.RoleModerator)
}

// Decide applies the rules in order; the first matching rule wins.
func Decide(actor *Actor, action Action, res Resource) Decision {
	switch res.Kind {
	case KindCategory, KindGenre, KindTitle:
		if action == ActionRead {
			return Allow
		}
		return adminOnly(actor)

	case KindReview, KindComment:
		if action == ActionRead {
			return Allow
		}
		if actor == nil {
			return Unauthenticated
		}
		if action == ActionCreate {
			return Allow
		}
		if actor.ID == res.OwnerID || actor.isModerator() {
			return Allow
		}
		return Forbidden

	case KindUser:
		return adminOnly(actor)

	case KindProfile:
		if actor == nil {
			return Unauthenticated
		}
		if action != ActionRead && action != ActionUpdate {
			return Forbidden
		}
		if actor.ID == res.OwnerID {
			return Allow
		}
		return Forbidden
	}

	return Forbidden
}

func adminOnly(actor *Actor) Decision {
	if actor == nil {
		return Unauthenticated
	}
	if actor.isAdmin() {
		return Allow
	}
	return Forbidden
}

// Can reports whether Decide allows the action.
func Can(actor *Actor, action Action, res Resource) bool {
	return Decide(actor, action, res) == Allow
}

// Check turns a denial into an authentication or permission error.
func Check(actor *Actor, action Action, res Resource) error {
	switch Decide(actor, action, res) {
	case Allow:
		return nil
	case Unauthenticated:
		return apperror.NewAuthenticationError("Authentication credentials were not provided", nil)
	default:
		return apperror.NewPermissionError("You do not have permission to perform this action", nil)
	}
}
