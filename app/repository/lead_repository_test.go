package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/jHLuno/telfera/app/models"
	"github.com/jHLuno/telfera/app/repository"
	"github.com/jHLuno/telfera/internal/pkg/database"
)

func newRepos(t *testing.T) (*gorm.DB, *repository.Repositories) {
	t.Helper()
	db, err := database.OpenMemory()
	require.NoError(t, err)
	return db, repository.NewRepositories(db)
}

func seedLead(t *testing.T, repos *repository.Repositories, name string, created time.Time, mutate func(*models.Lead)) *models.Lead {
	t.Helper()
	lead := &models.Lead{
		ClientName:      name,
		ClientPhone:     "+77011234567",
		ProductInterest: "SHA8",
		Source:          models.LeadSourceWebsite,
		Status:          models.LeadStatusNew,
		CreatedAt:       created,
	}
	if mutate != nil {
		mutate(lead)
	}
	require.NoError(t, repos.Lead.Create(lead))
	return lead
}

func TestLeadRepository_ListFiltersAndOrder(t *testing.T) {
	_, repos := newRepos(t)
	base := time.Date(2026, 5, 10, 8, 0, 0, 0, time.UTC)

	manager, err := models.CreateUser("Менеджер", "m@telfera.kz", "secret42", models.ROLE_MANAGER)
	require.NoError(t, err)
	require.NoError(t, repos.User.Create(manager))

	seedLead(t, repos, "Первый", base, nil)
	seedLead(t, repos, "Второй", base.Add(time.Hour), func(l *models.Lead) {
		l.Status = models.LeadStatusContacted
		l.AssignedToID = &manager.ID
	})
	seedLead(t, repos, "Третий", base.Add(2*time.Hour), func(l *models.Lead) {
		l.Company = "КранСервис"
	})

	all, err := repos.Lead.List(repository.LeadFilter{}, 0, -1)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Третий", all[0].ClientName)
	assert.Equal(t, "Первый", all[2].ClientName)

	byStatus, err := repos.Lead.List(repository.LeadFilter{Status: models.LeadStatusContacted}, 0, -1)
	require.NoError(t, err)
	require.Len(t, byStatus, 1)
	require.NotNil(t, byStatus[0].AssignedTo)
	assert.Equal(t, manager.ID, byStatus[0].AssignedTo.ID)

	unassigned, err := repos.Lead.Count(repository.LeadFilter{Unassigned: true})
	require.NoError(t, err)
	assert.Equal(t, int64(2), unassigned)

	search, err := repos.Lead.List(repository.LeadFilter{Search: "Кран"}, 0, -1)
	require.NoError(t, err)
	require.Len(t, search, 1)
	assert.Equal(t, "Третий", search[0].ClientName)

	page, err := repos.Lead.List(repository.LeadFilter{}, 1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "Второй", page[0].ClientName)
}

func TestLeadRepository_SearchIsLiteral(t *testing.T) {
	_, repos := newRepos(t)
	base := time.Date(2026, 5, 10, 8, 0, 0, 0, time.UTC)

	seedLead(t, repos, "Скидка 100%", base, nil)
	seedLead(t, repos, "Кран_Сервис", base.Add(time.Hour), nil)
	seedLead(t, repos, "Склад\\Алматы", base.Add(2*time.Hour), nil)
	seedLead(t, repos, "Внимание!", base.Add(3*time.Hour), nil)
	seedLead(t, repos, "Обычный", base.Add(4*time.Hour), nil)

	tests := []struct {
		search string
		want   []string
	}{
		{"%", []string{"Скидка 100%"}},
		{"_", []string{"Кран_Сервис"}},
		{"\\", []string{"Склад\\Алматы"}},
		{"!", []string{"Внимание!"}},
		{"100%", []string{"Скидка 100%"}},
		{"Кран_С", []string{"Кран_Сервис"}},
		{"а%о", nil},
	}

	for _, tt := range tests {
		t.Run(tt.search, func(t *testing.T) {
			leads, err := repos.Lead.List(repository.LeadFilter{Search: tt.search}, 0, -1)
			require.NoError(t, err)
			var names []string
			for _, l := range leads {
				names = append(names, l.ClientName)
			}
			assert.Equal(t, tt.want, names)
		})
	}
}

func TestLeadRepository_LatestAndStats(t *testing.T) {
	_, repos := newRepos(t)

	_, err := repos.Lead.Latest()
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))

	day1 := time.Date(2026, 5, 10, 8, 0, 0, 0, time.UTC)
	day2 := day1.Add(24 * time.Hour)
	seedLead(t, repos, "Первый", day1, nil)
	seedLead(t, repos, "Второй", day2, func(l *models.Lead) { l.Status = models.LeadStatusWon })
	seedLead(t, repos, "Третий", day2.Add(time.Hour), nil)

	latest, err := repos.Lead.Latest()
	require.NoError(t, err)
	assert.Equal(t, "Третий", latest.ClientName)

	counts, err := repos.Lead.CountByStatus()
	require.NoError(t, err)
	got := map[models.LeadStatus]int64{}
	for _, c := range counts {
		got[c.Status] = c.Count
	}
	assert.Equal(t, map[models.LeadStatus]int64{models.LeadStatusNew: 2, models.LeadStatusWon: 1}, got)

	since, err := repos.Lead.CountSince(day2)
	require.NoError(t, err)
	assert.Equal(t, int64(2), since)

	daily, err := repos.Lead.GetDailyStats(day1.Add(-time.Hour), day2.Add(2*time.Hour))
	require.NoError(t, err)
	require.Len(t, daily, 2)
	assert.Equal(t, "2026-05-10", daily[0].Date)
	assert.Equal(t, 1, daily[0].Count)
	assert.Equal(t, 2, daily[1].Count)
}

func TestLeadRepository_UpdateAndDelete(t *testing.T) {
	_, repos := newRepos(t)
	lead := seedLead(t, repos, "Первый", time.Now().UTC(), nil)

	lead.Status = models.LeadStatusQualified
	require.NoError(t, repos.Lead.Update(lead))

	reloaded, err := repos.Lead.GetByID(lead.ID)
	require.NoError(t, err)
	assert.Equal(t, models.LeadStatusQualified, reloaded.Status)

	require.NoError(t, repos.Lead.Delete(lead.ID))
	assert.True(t, errors.Is(repos.Lead.Delete(lead.ID), gorm.ErrRecordNotFound))

	_, err = repos.Lead.GetByID(lead.ID)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestTransaction_RollsBackOnError(t *testing.T) {
	db, repos := newRepos(t)
	boom := errors.New("audit write failed")

	err := repository.Transaction(context.Background(), db, func(tx *repository.Repositories) error {
		require.NoError(t, tx.Lead.Create(&models.Lead{ClientName: "Откат", ClientPhone: "+77011234567"}))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	n, err := repos.Lead.Count(repository.LeadFilter{})
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestAuditRepository_TimelineOrder(t *testing.T) {
	_, repos := newRepos(t)
	base := time.Date(2026, 5, 10, 8, 0, 0, 0, time.UTC)

	for i, action := range []string{models.AuditActionCreate, models.AuditActionStatusChange, models.AuditActionAssign} {
		require.NoError(t, repos.Audit.Create(&models.AuditLog{
			Action:     action,
			EntityType: models.AuditEntityLead,
			EntityID:   "lead-1",
			CreatedAt:  base.Add(time.Duration(i) * time.Minute),
		}))
	}
	require.NoError(t, repos.Audit.Create(&models.AuditLog{
		Action: models.AuditActionCreate, EntityType: models.AuditEntityLead, EntityID: "lead-2", CreatedAt: base,
	}))

	timeline, err := repos.Audit.ListByEntity(models.AuditEntityLead, "lead-1")
	require.NoError(t, err)
	require.Len(t, timeline, 3)
	assert.Equal(t, models.AuditActionCreate, timeline[0].Action)
	assert.Equal(t, models.AuditActionAssign, timeline[2].Action)

	total, err := repos.Audit.Count()
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)

	recent, err := repos.Audit.List(0, 2)
	require.NoError(t, err)
	assert.Len(t, recent, 2)
}
