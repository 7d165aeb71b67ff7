package leads

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/jHLuno/telfera/app/models"
	"github.com/jHLuno/telfera/app/repository"
	"github.com/jHLuno/telfera/internal/pkg/access"
	"github.com/jHLuno/telfera/internal/pkg/apperr"
	"github.com/jHLuno/telfera/internal/pkg/audit"
	"github.com/jHLuno/telfera/internal/pkg/metrics"
	"github.com/jHLuno/telfera/internal/pkg/ratelimit"
	"github.com/jHLuno/telfera/internal/pkg/validation"
)

// Submission outcomes reported to metrics.
const (
	resultCreated     = "created"
	resultRateLimited = "rate_limited"
	resultInvalid     = "invalid"
	resultFailed      = "failed"
)

// SubmitRequest is one anonymous submission from the public site.
type SubmitRequest struct {
	Submission validation.LeadSubmission
	// ClientID keys the rate limiter, usually the client IP
	ClientID  string
	IPAddress string
}

// StatusChange moves a lead to Status. Notes, when set, replaces the lead notes.
type StatusChange struct {
	LeadID string
	Status string
	Notes  *string
}

// Submit accepts a public lead. The rate limit is checked before any
// validation so a throttled client learns nothing about its payload.
func (s *Service) Submit(ctx context.Context, req SubmitRequest) (*models.Lead, error) {
	rl := s.limiter.Check(ctx, ratelimit.Key(ratelimit.ScopeLead, req.ClientID), ratelimit.LeadSubmission)
	if !rl.Allowed {
		metrics.RateLimitDenied(ratelimit.ScopeLead)
		metrics.LeadSubmitted(resultRateLimited)
		return nil, apperr.RateLimited(rl.ResetInSeconds())
	}

	lead, errs := validation.ValidateLeadSubmission(req.Submission)
	if errs.HasErrors() {
		metrics.LeadSubmitted(resultInvalid)
		return nil, apperr.Validation(errs)
	}
	if lead.Source == models.LeadSourceManual {
		lead.Source = models.LeadSourceWebsite
	}

	ip := req.IPAddress
	if ip == "" {
		ip = req.ClientID
	}

	if err := s.create(ctx, lead, nil, ip); err != nil {
		metrics.LeadSubmitted(resultFailed)
		return nil, s.fail("submit lead", err, "client", req.ClientID)
	}
	metrics.LeadSubmitted(resultCreated)

	log.Infow("[Leads] new lead submitted", "lead_id", lead.ID, "source", lead.Source)
	s.notifyCreated(*lead)
	return lead, nil
}

// Create records a lead entered by staff, e.g. from a phone call.
// Staff entries skip the rate limiter and do not trigger notifications.
func (s *Service) Create(ctx context.Context, actor *access.Actor, sub validation.LeadSubmission) (*models.Lead, error) {
	if err := access.Authorize(actor, access.ActionCreate, access.ResourceLead); err != nil {
		return nil, err
	}

	if strings.TrimSpace(sub.Source) == "" {
		sub.Source = models.LeadSourceManual
	}
	lead, errs := validation.ValidateLeadSubmission(sub)
	if errs.HasErrors() {
		return nil, apperr.Validation(errs)
	}

	if err := s.create(ctx, lead, actor, ""); err != nil {
		return nil, s.fail("create lead", err, "actor_id", actor.UserID)
	}
	return lead, nil
}

func (s *Service) create(ctx context.Context, lead *models.Lead, actor *access.Actor, ip string) error {
	lead.Status = models.InitialLeadStatus
	lead.CreatedAt = s.now()
	lead.UpdatedAt = lead.CreatedAt

	err := repository.Transaction(ctx, s.db, func(repos *repository.Repositories) error {
		if err := repos.Lead.Create(lead); err != nil {
			return err
		}
		_, err := s.audit.Record(repos.Audit, audit.Entry{
			Action:     models.AuditActionCreate,
			EntityType: models.AuditEntityLead,
			EntityID:   lead.ID,
			ActorID:    actor.ID(),
			IPAddress:  ip,
			Details: map[string]any{
				"clientName":      lead.ClientName,
				"clientPhone":     lead.ClientPhone,
				"productInterest": lead.ProductInterest,
				"source":          lead.Source,
			},
		})
		return err
	})
	if err != nil {
		return err
	}
	s.committed(ctx, models.AuditActionCreate)
	return nil
}

// ChangeStatus moves a lead to a new status. Any status may follow any
// other; reopening a closed lead clears its closing time.
func (s *Service) ChangeStatus(ctx context.Context, actor *access.Actor, change StatusChange) (*models.Lead, error) {
	if err := access.Authorize(actor, access.ActionUpdateStatus, access.ResourceLead); err != nil {
		return nil, err
	}

	next, ok := models.ParseLeadStatus(change.Status)
	if !ok {
		return nil, apperr.Field("status", "Недопустимый статус")
	}
	var notes string
	if change.Notes != nil {
		notes = strings.TrimSpace(*change.Notes)
		if errs := validation.ValidateNotes(notes); errs.HasErrors() {
			return nil, apperr.Validation(errs)
		}
	}

	var lead *models.Lead
	err := s.inTx(ctx, "change lead status", []any{"lead_id", change.LeadID, "actor_id", actor.UserID}, func(repos *repository.Repositories) error {
		var err error
		if lead, err = loadLead(repos, change.LeadID); err != nil {
			return err
		}

		previous := lead.Status
		lead.ApplyStatus(next, s.now())
		if change.Notes != nil {
			lead.Notes = notes
		}
		if err := repos.Lead.Update(lead); err != nil {
			return err
		}

		details := map[string]any{
			"oldStatus": string(previous),
			"newStatus": string(next),
		}
		if change.Notes != nil {
			details["notes"] = notes
		}
		_, err = s.audit.Record(repos.Audit, audit.Entry{
			Action:     models.AuditActionStatusChange,
			EntityType: models.AuditEntityLead,
			EntityID:   lead.ID,
			ActorID:    actor.ID(),
			Details:    details,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.committed(ctx, models.AuditActionStatusChange)
	metrics.LeadStatusChanged(string(next))
	return lead, nil
}

// Assign hands a lead to an active staff member. A nil userID removes the assignee.
func (s *Service) Assign(ctx context.Context, actor *access.Actor, leadID string, userID *uint) (*models.Lead, error) {
	if err := access.Authorize(actor, access.ActionAssign, access.ResourceLead); err != nil {
		return nil, err
	}

	var lead *models.Lead
	err := s.inTx(ctx, "assign lead", []any{"lead_id", leadID, "actor_id", actor.UserID}, func(repos *repository.Repositories) error {
		var err error
		if lead, err = loadLead(repos, leadID); err != nil {
			return err
		}

		var assignee *models.User
		if userID != nil {
			assignee, err = repos.User.GetByID(*userID)
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.Field("assignedToId", "Пользователь не найден")
			}
			if err != nil {
				return err
			}
			if !assignee.IsActive() {
				return apperr.Field("assignedToId", "Пользователь отключен")
			}
		}

		previous := lead.AssignedToID
		lead.AssignedToID = userID
		lead.AssignedTo = assignee
		if err := repos.Lead.Update(lead); err != nil {
			return err
		}

		_, err = s.audit.Record(repos.Audit, audit.Entry{
			Action:     models.AuditActionAssign,
			EntityType: models.AuditEntityLead,
			EntityID:   lead.ID,
			ActorID:    actor.ID(),
			Details: map[string]any{
				"assignedToId": userID,
				"previous":     previous,
			},
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.committed(ctx, models.AuditActionAssign)
	return lead, nil
}

// Delete removes a lead. The audit row keeps a snapshot of what was removed.
func (s *Service) Delete(ctx context.Context, actor *access.Actor, leadID string) error {
	if err := access.Authorize(actor, access.ActionDelete, access.ResourceLead); err != nil {
		return err
	}

	err := s.inTx(ctx, "delete lead", []any{"lead_id", leadID, "actor_id", actor.UserID}, func(repos *repository.Repositories) error {
		lead, err := loadLead(repos, leadID)
		if err != nil {
			return err
		}
		if err := repos.Lead.Delete(lead.ID); err != nil {
			return err
		}
		_, err = s.audit.Record(repos.Audit, audit.Entry{
			Action:     models.AuditActionDelete,
			EntityType: models.AuditEntityLead,
			EntityID:   lead.ID,
			ActorID:    actor.ID(),
			Details: map[string]any{
				"clientName":      lead.ClientName,
				"clientPhone":     lead.ClientPhone,
				"productInterest": lead.ProductInterest,
				"status":          string(lead.Status),
			},
		})
		return err
	})
	if err != nil {
		return err
	}

	s.committed(ctx, models.AuditActionDelete)
	log.Infow("[Leads] lead deleted", "lead_id", leadID, "actor_id", actor.UserID)
	return nil
}
