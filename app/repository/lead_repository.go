package repository

import (
	"fmt"
	"strings"
	"time"

	"github.com/jHLuno/telfera/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// leadRepository implements the LeadRepository interface
type leadRepository struct {
	db *gorm.DB
}

// NewLeadRepository creates a new lead repository instance
func NewLeadRepository(db *gorm.DB) LeadRepository {
	return &leadRepository{db: db}
}

// Create inserts a new lead
func (r *leadRepository) Create(lead *models.Lead) error {
	return r.db.Omit(clause.Associations).Create(lead).Error
}

// GetByID retrieves a lead with its assignee
func (r *leadRepository) GetByID(id string) (*models.Lead, error) {
	var lead models.Lead
	err := r.db.Preload("AssignedTo").Where("id = ?", id).First(&lead).Error
	if err != nil {
		return nil, err
	}
	return &lead, nil
}

// Update writes all columns of the lead. The assignee association is never upserted.
func (r *leadRepository) Update(lead *models.Lead) error {
	return r.db.Omit(clause.Associations).Save(lead).Error
}

// Delete hard deletes a lead
func (r *leadRepository) Delete(id string) error {
	res := r.db.Where("id = ?", id).Delete(&models.Lead{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// UnassignUser clears the assignee of every lead held by userID
func (r *leadRepository) UnassignUser(userID uint) (int64, error) {
	res := r.db.Model(&models.Lead{}).Where("assigned_to_id = ?", userID).Update("assigned_to_id", nil)
	return res.RowsAffected, res.Error
}

// List returns leads newest first. A negative limit returns every match.
func (r *leadRepository) List(filter LeadFilter, offset, limit int) ([]models.Lead, error) {
	var leads []models.Lead
	err := r.filtered(filter).
		Preload("AssignedTo").
		Order("created_at DESC").
		Order("id DESC").
		Offset(offset).
		Limit(limit).
		Find(&leads).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list leads: %w", err)
	}
	return leads, nil
}

// Count returns the number of leads matching the filter
func (r *leadRepository) Count(filter LeadFilter) (int64, error) {
	var count int64
	err := r.filtered(filter).Count(&count).Error
	return count, err
}

// Latest returns the most recently created lead, or gorm.ErrRecordNotFound
func (r *leadRepository) Latest() (*models.Lead, error) {
	var lead models.Lead
	err := r.db.Preload("AssignedTo").Order("created_at DESC").Order("id DESC").First(&lead).Error
	if err != nil {
		return nil, err
	}
	return &lead, nil
}

// CountByStatus groups the pipeline by status
func (r *leadRepository) CountByStatus() ([]models.StatusCount, error) {
	var rows []models.StatusCount
	err := r.db.Model(&models.Lead{}).
		Select("status, COUNT(*) as count").
		Group("status").
		Order("status").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count leads by status: %w", err)
	}
	return rows, nil
}

// CountSince returns the number of leads created at or after since
func (r *leadRepository) CountSince(since time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&models.Lead{}).Where("created_at >= ?", since).Count(&count).Error
	return count, err
}

// GetDailyStats returns daily lead counts for a date range
func (r *leadRepository) GetDailyStats(startDate, endDate time.Time) ([]models.DailyStats, error) {
	var results []struct {
		Date  string `json:"date"`
		Count int64  `json:"count"`
	}

	// MySQL formats the date, SQLite stores timestamps as text with the date first
	dateExpr := "DATE_FORMAT(created_at, '%Y-%m-%d')"
	if r.db.Dialector.Name() == "sqlite" {
		dateExpr = "substr(created_at, 1, 10)"
	}

	err := r.db.Model(&models.Lead{}).
		Select(dateExpr+" as date, COUNT(*) as count").
		Where("created_at BETWEEN ? AND ?", startDate, endDate).
		Group(dateExpr).
		Order("date").
		Find(&results).Error

	if err != nil {
		return nil, fmt.Errorf("failed to get daily lead stats: %w", err)
	}

	dailyStats := make([]models.DailyStats, len(results))
	for i, result := range results {
		dailyStats[i] = models.DailyStats{
			Date:  result.Date,
			Count: int(result.Count),
		}
	}
	return dailyStats, nil
}

// likeEscaper makes a search term match literally under ESCAPE '!'.
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

func (r *leadRepository) filtered(filter LeadFilter) *gorm.DB {
	q := r.db.Model(&models.Lead{})
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Unassigned {
		q = q.Where("assigned_to_id IS NULL")
	} else if filter.AssignedToID != nil {
		q = q.Where("assigned_to_id = ?", *filter.AssignedToID)
	}
	if filter.Source != "" {
		q = q.Where("source = ?", filter.Source)
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		pattern := "%" + likeEscaper.Replace(s) + "%"
		q = q.Where("client_name LIKE ? ESCAPE '!' OR client_phone LIKE ? ESCAPE '!' OR client_email LIKE ? ESCAPE '!' OR company LIKE ? ESCAPE '!'",
			pattern, pattern, pattern, pattern)
	}
	if filter.From != nil {
		q = q.Where("created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		q = q.Where("created_at <= ?", *filter.To)
	}
	return q
}
