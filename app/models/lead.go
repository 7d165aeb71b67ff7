package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	LeadSourceWebsite     = "website"
	LeadSourceContactForm = "contact_form"
	LeadSourceManual      = "manual"
)

// Lead is one captured sales inquiry.
type Lead struct {
	ID              string     `gorm:"primaryKey;type:varchar(36)" json:"id"`
	ClientName      string     `gorm:"type:varchar(100);not null" json:"client_name"`
	ClientPhone     string     `gorm:"type:varchar(20);not null;index" json:"client_phone"`
	ClientEmail     string     `gorm:"type:varchar(255)" json:"client_email,omitempty"`
	Company         string     `gorm:"type:varchar(200)" json:"company,omitempty"`
	ProductInterest string     `gorm:"type:varchar(100)" json:"product_interest"`
	Source          string     `gorm:"type:varchar(50);default:'website'" json:"source"`
	Notes           string     `gorm:"type:text" json:"notes,omitempty"`
	Status          LeadStatus `gorm:"type:varchar(20);not null;default:'NEW';index" json:"status"`
	AssignedToID    *uint      `gorm:"index" json:"assigned_to_id"`
	AssignedTo      *User      `gorm:"foreignKey:AssignedToID" json:"assigned_to,omitempty"`
	ContactedAt     *time.Time `json:"contacted_at"`
	ClosedAt        *time.Time `json:"closed_at"`
	CreatedAt       time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// BeforeCreate assigns a UUID if none was set by the caller
func (l *Lead) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	if l.Status == "" {
		l.Status = InitialLeadStatus
	}
	return nil
}

// ApplyStatus moves the lead to next and maintains the derived timestamps.
// ContactedAt is written once, the first time the lead leaves the initial
// status. ClosedAt records when the lead entered a terminal status; moves
// between terminal statuses keep it, reopening clears it.
func (l *Lead) ApplyStatus(next LeadStatus, now time.Time) {
	if next != InitialLeadStatus && l.ContactedAt == nil {
		t := now
		l.ContactedAt = &t
	}
	if next.IsTerminal() {
		if !l.Status.IsTerminal() || l.ClosedAt == nil {
			t := now
			l.ClosedAt = &t
		}
	} else {
		l.ClosedAt = nil
	}
	l.Status = next
}

// IsClosed reports whether the lead sits in a terminal status
func (l *Lead) IsClosed() bool {
	return l.Status.IsTerminal()
}
