package models

import (
	"encoding/json"
	"time"
)

const (
	AuditActionCreate       = "CREATE"
	AuditActionStatusChange = "STATUS_CHANGE"
	AuditActionAssign       = "ASSIGN"
	AuditActionUpdate       = "UPDATE"
	AuditActionDelete       = "DELETE"
	AuditActionLogin        = "LOGIN"
	AuditActionLogout       = "LOGOUT"
)

const (
	AuditEntityLead = "lead"
	AuditEntityUser = "user"
)

// AuditLog is an append-only record of one state-changing action.
// UserID is nil for anonymous actions such as public lead submissions.
type AuditLog struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Action     string    `gorm:"type:varchar(32);not null;index" json:"action"`
	EntityType string    `gorm:"type:varchar(32);not null;index:idx_audit_entity" json:"entity_type"`
	EntityID   string    `gorm:"type:varchar(36);not null;index:idx_audit_entity" json:"entity_id"`
	UserID     *uint     `gorm:"index" json:"user_id"`
	Details    string    `gorm:"type:text" json:"-"`
	IPAddress  string    `gorm:"type:varchar(45)" json:"ip_address,omitempty"`
	CreatedAt  time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

// DetailsMap decodes the JSON details payload. Broken payloads yield an empty map.
func (a *AuditLog) DetailsMap() map[string]any {
	out := map[string]any{}
	if a.Details == "" {
		return out
	}
	if err := json.Unmarshal([]byte(a.Details), &out); err != nil {
		return map[string]any{}
	}
	return out
}

// MarshalJSON exposes details as an object rather than an escaped string.
func (a AuditLog) MarshalJSON() ([]byte, error) {
	type plain AuditLog
	return json.Marshal(struct {
		plain
		Details map[string]any `json:"details"`
	}{
		plain:   plain(a),
		Details: a.DetailsMap(),
	})
}
