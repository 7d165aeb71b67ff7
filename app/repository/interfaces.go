package repository

import (
	"context"
	"time"

	"github.com/jHLuno/telfera/app/models"
	"gorm.io/gorm"
)

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	EmailTaken(email string) (bool, error)
	Update(user *models.User) error
	TouchLastLogin(id uint, at time.Time) error
	Delete(id uint) error
	List(offset, limit int) ([]models.User, error)
	Count() (int64, error)
}

// LeadFilter narrows lead listings. Zero values mean "no constraint".
type LeadFilter struct {
	Status       models.LeadStatus
	AssignedToID *uint
	Unassigned   bool
	Source       string
	Search       string
	From         *time.Time
	To           *time.Time
}

// LeadRepository defines the interface for lead persistence
type LeadRepository interface {
	Create(lead *models.Lead) error
	GetByID(id string) (*models.Lead, error)
	Update(lead *models.Lead) error
	Delete(id string) error
	UnassignUser(userID uint) (int64, error)
	List(filter LeadFilter, offset, limit int) ([]models.Lead, error)
	Count(filter LeadFilter) (int64, error)
	Latest() (*models.Lead, error)
	CountByStatus() ([]models.StatusCount, error)
	CountSince(since time.Time) (int64, error)
	GetDailyStats(startDate, endDate time.Time) ([]models.DailyStats, error)
}

// AuditRepository is append-only: there is no way to change or remove an entry.
type AuditRepository interface {
	Create(entry *models.AuditLog) error
	ListByEntity(entityType, entityID string) ([]models.AuditLog, error)
	List(offset, limit int) ([]models.AuditLog, error)
	Count() (int64, error)
}

// Repositories struct holds all repository instances
type Repositories struct {
	User  UserRepository
	Lead  LeadRepository
	Audit AuditRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:  NewUserRepository(db),
		Lead:  NewLeadRepository(db),
		Audit: NewAuditRepository(db),
	}
}

// Transaction runs fn against repositories bound to a single database
// transaction. Any error returned by fn rolls everything back.
func Transaction(ctx context.Context, db *gorm.DB, fn func(repos *Repositories) error) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepositories(tx))
	})
}
