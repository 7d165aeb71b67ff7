// Package audit writes entries to the append-only audit trail.
//
// Record is meant to run inside the transaction of the mutation it
// describes: when it fails, the mutation must fail too.
package audit

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/jHLuno/telfera/app/models"
	"github.com/jHLuno/telfera/app/repository"
)

// Entry describes one state-changing action.
type Entry struct {
	Action     string
	EntityType string
	EntityID   string
	ActorID    *uint
	Details    map[string]any
	IPAddress  string
}

// Recorder stamps and persists entries.
type Recorder struct {
	now func() time.Time
}

func NewRecorder(now func() time.Time) *Recorder {
	if now == nil {
		now = time.Now
	}
	return &Recorder{now: now}
}

// Record appends e through repo and returns the stored row.
func (r *Recorder) Record(repo repository.AuditRepository, e Entry) (*models.AuditLog, error) {
	if e.Action == "" || e.EntityType == "" || e.EntityID == "" {
		return nil, fmt.Errorf("audit entry is missing action, entity type or entity id")
	}

	details := "{}"
	if len(e.Details) > 0 {
		raw, err := json.Marshal(e.Details)
		if err != nil {
			return nil, fmt.Errorf("failed to encode audit details: %w", err)
		}
		details = string(raw)
	}

	row := &models.AuditLog{
		Action:     e.Action,
		EntityType: e.EntityType,
		EntityID:   e.EntityID,
		UserID:     e.ActorID,
		Details:    details,
		IPAddress:  e.IPAddress,
		CreatedAt:  r.now(),
	}
	if err := repo.Create(row); err != nil {
		return nil, fmt.Errorf("failed to write audit entry %s %s/%s: %w", e.Action, e.EntityType, e.EntityID, err)
	}
	return row, nil
}
