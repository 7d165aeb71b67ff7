package repository

import (
	"github.com/jHLuno/telfera/app/models"
	"gorm.io/gorm"
)

// auditRepository implements the AuditRepository interface
type auditRepository struct {
	db *gorm.DB
}

// NewAuditRepository creates a new audit repository instance
func NewAuditRepository(db *gorm.DB) AuditRepository {
	return &auditRepository{db: db}
}

// Create appends an entry to the audit trail
func (r *auditRepository) Create(entry *models.AuditLog) error {
	return r.db.Create(entry).Error
}

// ListByEntity returns the timeline of one entity, oldest first
func (r *auditRepository) ListByEntity(entityType, entityID string) ([]models.AuditLog, error) {
	var entries []models.AuditLog
	err := r.db.Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&entries).Error
	return entries, err
}

// List returns the most recent entries across all entities
func (r *auditRepository) List(offset, limit int) ([]models.AuditLog, error) {
	var entries []models.AuditLog
	err := r.db.Order("created_at DESC").Order("id DESC").Offset(offset).Limit(limit).Find(&entries).Error
	return entries, err
}

// Count returns the total number of audit entries
func (r *auditRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.AuditLog{}).Count(&count).Error
	return count, err
}
