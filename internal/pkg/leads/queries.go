package leads

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/jHLuno/telfera/app/models"
	"github.com/jHLuno/telfera/app/repository"
	"github.com/jHLuno/telfera/internal/pkg/access"
	"github.com/jHLuno/telfera/internal/pkg/apperr"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
	// StatsDays is the length of the daily series in GetStats
	StatsDays = 30
)

// LeadPage is one page of a filtered lead listing.
type LeadPage struct {
	Leads      []models.Lead `json:"leads"`
	Total      int64         `json:"total"`
	Page       int           `json:"page"`
	Limit      int           `json:"limit"`
	TotalPages int           `json:"totalPages"`
}

// NormalizePage clamps paging input: page starts at 1, limit falls back to
// DefaultPageSize and never exceeds MaxPageSize.
func NormalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	return page, limit
}

// GetLeads returns every lead matching filter, newest first.
func (s *Service) GetLeads(ctx context.Context, actor *access.Actor, filter repository.LeadFilter) ([]models.Lead, error) {
	if err := access.Authorize(actor, access.ActionRead, access.ResourceLead); err != nil {
		return nil, err
	}
	leads, err := s.readRepos(ctx).Lead.List(filter, 0, -1)
	if err != nil {
		return nil, s.fail("list leads", err)
	}
	return leads, nil
}

func (s *Service) GetLeadsPage(ctx context.Context, actor *access.Actor, filter repository.LeadFilter, page, limit int) (*LeadPage, error) {
	if err := access.Authorize(actor, access.ActionRead, access.ResourceLead); err != nil {
		return nil, err
	}
	page, limit = NormalizePage(page, limit)

	repos := s.readRepos(ctx)
	total, err := repos.Lead.Count(filter)
	if err != nil {
		return nil, s.fail("count leads", err)
	}
	leads, err := repos.Lead.List(filter, (page-1)*limit, limit)
	if err != nil {
		return nil, s.fail("list leads", err)
	}
	if leads == nil {
		leads = []models.Lead{}
	}

	return &LeadPage{
		Leads:      leads,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: int((total + int64(limit) - 1) / int64(limit)),
	}, nil
}

func (s *Service) GetLeadByID(ctx context.Context, actor *access.Actor, id string) (*models.Lead, error) {
	if err := access.Authorize(actor, access.ActionRead, access.ResourceLead); err != nil {
		return nil, err
	}
	lead, err := loadLead(s.readRepos(ctx), id)
	if err != nil {
		return nil, s.fail("get lead", err, "lead_id", id)
	}
	return lead, nil
}

// GetLatestLead returns the newest lead, or nil when there are none.
func (s *Service) GetLatestLead(ctx context.Context, actor *access.Actor) (*models.Lead, error) {
	if err := access.Authorize(actor, access.ActionRead, access.ResourceLead); err != nil {
		return nil, err
	}
	lead, err := s.readRepos(ctx).Lead.Latest()
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, s.fail("get latest lead", err)
	}
	return lead, nil
}

// GetHistory returns the audit trail of one lead, oldest first.
func (s *Service) GetHistory(ctx context.Context, actor *access.Actor, leadID string) ([]models.AuditLog, error) {
	if err := access.Authorize(actor, access.ActionRead, access.ResourceLead); err != nil {
		return nil, err
	}
	entries, err := s.readRepos(ctx).Audit.ListByEntity(models.AuditEntityLead, leadID)
	if err != nil {
		return nil, s.fail("get lead history", err, "lead_id", leadID)
	}
	if len(entries) == 0 {
		// deleted leads keep their history, unknown ids have none
		return nil, apperr.NotFound("Заявка не найдена")
	}
	return entries, nil
}

// GetStats returns the dashboard summary, served from the cache when one is configured.
func (s *Service) GetStats(ctx context.Context, actor *access.Actor) (*models.LeadStats, error) {
	if err := access.Authorize(actor, access.ActionRead, access.ResourceLead); err != nil {
		return nil, err
	}

	load := func() (*models.LeadStats, error) { return s.computeStats(ctx) }
	var (
		stats *models.LeadStats
		err   error
	)
	if s.cache != nil {
		stats, err = s.cache.LeadStats(ctx, load)
	} else {
		stats, err = load()
	}
	if err != nil {
		return nil, s.fail("get lead stats", err)
	}
	return stats, nil
}

func (s *Service) computeStats(ctx context.Context) (*models.LeadStats, error) {
	repos := s.readRepos(ctx)
	now := s.now()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	stats := &models.LeadStats{}
	var err error
	if stats.Total, err = repos.Lead.Count(repository.LeadFilter{}); err != nil {
		return nil, err
	}
	if stats.Today, err = repos.Lead.CountSince(startOfDay); err != nil {
		return nil, err
	}
	if stats.Unassigned, err = repos.Lead.Count(repository.LeadFilter{Unassigned: true}); err != nil {
		return nil, err
	}
	if stats.ByStatus, err = repos.Lead.CountByStatus(); err != nil {
		return nil, err
	}
	if stats.Daily, err = repos.Lead.GetDailyStats(startOfDay.AddDate(0, 0, -(StatsDays-1)), now); err != nil {
		return nil, err
	}
	return stats, nil
}
