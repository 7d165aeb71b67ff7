package access

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jHLuno/telfera/app/models"
	"github.com/jHLuno/telfera/internal/pkg/apperr"
)

func TestCan(t *testing.T) {
	manager := &Actor{UserID: 2, Role: models.ROLE_MANAGER}
	admin := &Actor{UserID: 1, Role: models.ROLE_ADMIN}
	unknownRole := &Actor{UserID: 3, Role: "intern"}

	tests := []struct {
		name     string
		actor    *Actor
		action   Action
		resource Resource
		want     bool
	}{
		{"manager reads leads", manager, ActionRead, ResourceLead, true},
		{"manager changes status", manager, ActionUpdateStatus, ResourceLead, true},
		{"manager assigns", manager, ActionAssign, ResourceLead, true},
		{"manager cannot delete", manager, ActionDelete, ResourceLead, false},
		{"admin deletes", admin, ActionDelete, ResourceLead, true},
		{"manager lists users", manager, ActionRead, ResourceUser, true},
		{"manager cannot manage users", manager, ActionManage, ResourceUser, false},
		{"admin manages users", admin, ActionManage, ResourceUser, true},
		{"manager cannot read audit", manager, ActionRead, ResourceAudit, false},
		{"unknown role", unknownRole, ActionRead, ResourceLead, false},
		{"anonymous", nil, ActionRead, ResourceLead, false},
		{"zero id", &Actor{Role: models.ROLE_ADMIN}, ActionRead, ResourceLead, false},
		{"unknown action", admin, Action("export"), ResourceLead, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Can(tt.actor, tt.action, tt.resource))
		})
	}
}

func TestAuthorize_DistinguishesKinds(t *testing.T) {
	manager := &Actor{UserID: 2, Role: models.ROLE_MANAGER}

	assert.NoError(t, Authorize(manager, ActionUpdateStatus, ResourceLead))
	assert.Equal(t, apperr.KindUnauthenticated, apperr.KindOf(Authorize(nil, ActionUpdateStatus, ResourceLead)))
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(Authorize(manager, ActionDelete, ResourceLead)))
}

func TestActorHelpers(t *testing.T) {
	var anonymous *Actor
	assert.Nil(t, anonymous.ID())
	assert.False(t, anonymous.IsAdmin())

	actor := FromUser(&models.User{ID: 7, Name: "Админ", Role: models.ROLE_ADMIN})
	assert.True(t, actor.IsAdmin())
	assert.Equal(t, uint(7), *actor.ID())
	assert.Nil(t, FromUser(nil))
}
