// Package access is the single authorization policy of the CRM. Every
// privileged entry point asks Can or Authorize instead of comparing roles.
package access

import (
	"github.com/jHLuno/telfera/app/models"
	"github.com/jHLuno/telfera/internal/pkg/apperr"
)

// Actor is the authenticated staff member performing an operation.
type Actor struct {
	UserID uint
	Name   string
	Role   string
}

type Resource string

const (
	ResourceLead  Resource = "lead"
	ResourceUser  Resource = "user"
	ResourceAudit Resource = "audit"
)

type Action string

const (
	ActionRead         Action = "read"
	ActionCreate       Action = "create"
	ActionUpdateStatus Action = "update_status"
	ActionAssign       Action = "assign"
	ActionDelete       Action = "delete"
	ActionManage       Action = "manage"
)

var staff = []string{models.ROLE_MANAGER, models.ROLE_ADMIN}
var adminOnly = []string{models.ROLE_ADMIN}

var policy = map[Resource]map[Action][]string{
	ResourceLead: {
		ActionRead:         staff,
		ActionCreate:       staff,
		ActionUpdateStatus: staff,
		ActionAssign:       staff,
		ActionDelete:       adminOnly,
	},
	ResourceUser: {
		// managers need the directory to pick an assignee
		ActionRead:   staff,
		ActionManage: adminOnly,
	},
	ResourceAudit: {
		ActionRead: adminOnly,
	},
}

// FromUser builds the actor for a loaded user account.
func FromUser(u *models.User) *Actor {
	if u == nil {
		return nil
	}
	return &Actor{UserID: u.ID, Name: u.Name, Role: u.Role}
}

// IsAdmin reports whether the actor carries the admin role
func (a *Actor) IsAdmin() bool {
	return a != nil && a.Role == models.ROLE_ADMIN
}

// ID returns a pointer to the actor's user id for audit rows, nil for anonymous callers.
func (a *Actor) ID() *uint {
	if a == nil {
		return nil
	}
	id := a.UserID
	return &id
}

// Can reports whether actor may perform action on resource.
// Unknown resources and actions are denied.
func Can(actor *Actor, action Action, resource Resource) bool {
	if actor == nil || actor.UserID == 0 {
		return false
	}
	roles, ok := policy[resource][action]
	if !ok {
		return false
	}
	for _, r := range roles {
		if r == actor.Role {
			return true
		}
	}
	return false
}

// Authorize turns a Can decision into an error. A missing actor is
// unauthenticated; a known actor without the right role is forbidden.
func Authorize(actor *Actor, action Action, resource Resource) error {
	if actor == nil || actor.UserID == 0 {
		return apperr.Unauthenticated("")
	}
	if !Can(actor, action, resource) {
		return apperr.Forbidden()
	}
	return nil
}
