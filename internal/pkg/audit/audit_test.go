package audit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jHLuno/telfera/app/models"
	"github.com/jHLuno/telfera/app/repository"
	"github.com/jHLuno/telfera/internal/pkg/access"
	"github.com/jHLuno/telfera/internal/pkg/apperr"
	"github.com/jHLuno/telfera/internal/pkg/database"
)

type failingAuditRepo struct {
	repository.AuditRepository
}

func (failingAuditRepo) Create(*models.AuditLog) error {
	return errors.New("disk full")
}

func TestRecorder_Record(t *testing.T) {
	db, err := database.OpenMemory()
	require.NoError(t, err)
	repo := repository.NewAuditRepository(db)

	at := time.Date(2026, 4, 2, 10, 30, 0, 0, time.UTC)
	actor := uint(3)
	rec := NewRecorder(func() time.Time { return at })

	row, err := rec.Record(repo, Entry{
		Action:     models.AuditActionStatusChange,
		EntityType: models.AuditEntityLead,
		EntityID:   "lead-42",
		ActorID:    &actor,
		Details:    map[string]any{"oldStatus": "NEW", "newStatus": "CONTACTED"},
		IPAddress:  "10.0.0.1",
	})
	require.NoError(t, err)
	assert.NotZero(t, row.ID)

	stored, err := repo.ListByEntity(models.AuditEntityLead, "lead-42")
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, actor, *stored[0].UserID)
	assert.Equal(t, "CONTACTED", stored[0].DetailsMap()["newStatus"])
	assert.True(t, at.Equal(stored[0].CreatedAt))
}

func TestRecorder_AnonymousEntryHasNoActor(t *testing.T) {
	db, err := database.OpenMemory()
	require.NoError(t, err)
	repo := repository.NewAuditRepository(db)

	row, err := NewRecorder(nil).Record(repo, Entry{
		Action: models.AuditActionCreate, EntityType: models.AuditEntityLead, EntityID: "lead-1",
	})
	require.NoError(t, err)
	assert.Nil(t, row.UserID)
	assert.Equal(t, "{}", row.Details)
}

func TestRecorder_Errors(t *testing.T) {
	rec := NewRecorder(nil)

	_, err := rec.Record(failingAuditRepo{}, Entry{Action: models.AuditActionDelete})
	assert.Error(t, err)

	_, err = rec.Record(failingAuditRepo{}, Entry{
		Action: models.AuditActionDelete, EntityType: models.AuditEntityLead, EntityID: "lead-1",
	})
	assert.ErrorContains(t, err, "disk full")
}

func TestTrail_List(t *testing.T) {
	db, err := database.OpenMemory()
	require.NoError(t, err)
	repo := repository.NewAuditRepository(db)
	rec := NewRecorder(nil)
	for i := 0; i < 3; i++ {
		_, err := rec.Record(repo, Entry{Action: models.AuditActionLogin, EntityType: models.AuditEntityUser, EntityID: "1"})
		require.NoError(t, err)
	}

	trail := NewTrail(db)
	admin := &access.Actor{UserID: 1, Role: models.ROLE_ADMIN}

	page, err := trail.List(context.Background(), admin, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)
	assert.Len(t, page.Entries, 2)

	_, err = trail.List(context.Background(), &access.Actor{UserID: 2, Role: models.ROLE_MANAGER}, 1, 2)
	assert.True(t, apperr.IsKind(err, apperr.KindForbidden))
}
