package audit

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/jHLuno/telfera/app/models"
	"github.com/jHLuno/telfera/app/repository"
	"github.com/jHLuno/telfera/internal/pkg/access"
	"github.com/jHLuno/telfera/internal/pkg/apperr"
)

const (
	defaultTrailLimit = 50
	maxTrailLimit     = 200
)

// Page is one page of the global audit trail, newest first.
type Page struct {
	Entries []models.AuditLog `json:"entries"`
	Total   int64             `json:"total"`
	Page    int               `json:"page"`
	Limit   int               `json:"limit"`
}

// Trail reads the audit log for administrators.
type Trail struct {
	db *gorm.DB
}

func NewTrail(db *gorm.DB) *Trail {
	return &Trail{db: db}
}

func (t *Trail) List(ctx context.Context, actor *access.Actor, page, limit int) (*Page, error) {
	if err := access.Authorize(actor, access.ActionRead, access.ResourceAudit); err != nil {
		return nil, err
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultTrailLimit
	}
	if limit > maxTrailLimit {
		limit = maxTrailLimit
	}

	repo := repository.NewAuditRepository(t.db.WithContext(ctx))
	total, err := repo.Count()
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("failed to count audit entries: %w", err))
	}
	entries, err := repo.List((page-1)*limit, limit)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("failed to list audit entries: %w", err))
	}
	if entries == nil {
		entries = []models.AuditLog{}
	}
	return &Page{Entries: entries, Total: total, Page: page, Limit: limit}, nil
}
