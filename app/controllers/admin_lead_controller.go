package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jHLuno/telfera/internal/pkg/apperr"
	"github.com/jHLuno/telfera/internal/pkg/audit"
	"github.com/jHLuno/telfera/internal/pkg/leads"
	"github.com/jHLuno/telfera/internal/pkg/usercontext"
	"github.com/jHLuno/telfera/internal/pkg/validation"
)

// AdminLeadController serves the staff JSON API over leads.
// Authorization is decided by the services; handlers only pass the actor on.
type AdminLeadController struct {
	leads *leads.Service
	trail *audit.Trail
}

func NewAdminLeadController(svc *leads.Service, trail *audit.Trail) *AdminLeadController {
	return &AdminLeadController{leads: svc, trail: trail}
}

type statusRequest struct {
	Status string  `json:"status"`
	Notes  *string `json:"notes"`
}

type assignRequest struct {
	AssignedToID *uint `json:"assignedToId"`
}

// HandleList returns one page of leads. Query: filters plus page and limit.
func (ac *AdminLeadController) HandleList(c *fiber.Ctx) error {
	filter, err := parseLeadFilter(c)
	if err != nil {
		return apperr.Respond(c, err)
	}
	page, err := ac.leads.GetLeadsPage(c.UserContext(), usercontext.GetActor(c), filter,
		c.QueryInt("page", 1), c.QueryInt("limit", leads.DefaultPageSize))
	if err != nil {
		return apperr.Respond(c, err)
	}
	return apperr.OK(c, fiber.StatusOK, page)
}

// HandleLatest returns the newest lead or null. Dashboards poll it.
func (ac *AdminLeadController) HandleLatest(c *fiber.Ctx) error {
	lead, err := ac.leads.GetLatestLead(c.UserContext(), usercontext.GetActor(c))
	if err != nil {
		return apperr.Respond(c, err)
	}
	return apperr.OK(c, fiber.StatusOK, lead)
}

func (ac *AdminLeadController) HandleStats(c *fiber.Ctx) error {
	stats, err := ac.leads.GetStats(c.UserContext(), usercontext.GetActor(c))
	if err != nil {
		return apperr.Respond(c, err)
	}
	return apperr.OK(c, fiber.StatusOK, stats)
}

func (ac *AdminLeadController) HandleGet(c *fiber.Ctx) error {
	lead, err := ac.leads.GetLeadByID(c.UserContext(), usercontext.GetActor(c), c.Params("id"))
	if err != nil {
		return apperr.Respond(c, err)
	}
	return apperr.OK(c, fiber.StatusOK, lead)
}

func (ac *AdminLeadController) HandleHistory(c *fiber.Ctx) error {
	entries, err := ac.leads.GetHistory(c.UserContext(), usercontext.GetActor(c), c.Params("id"))
	if err != nil {
		return apperr.Respond(c, err)
	}
	return apperr.OK(c, fiber.StatusOK, entries)
}

// HandleCreate records a lead taken over the phone
func (ac *AdminLeadController) HandleCreate(c *fiber.Ctx) error {
	var sub validation.LeadSubmission
	if err := parseBody(c, &sub); err != nil {
		return apperr.Respond(c, err)
	}
	lead, err := ac.leads.Create(c.UserContext(), usercontext.GetActor(c), sub)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return apperr.OK(c, fiber.StatusCreated, lead)
}

func (ac *AdminLeadController) HandleStatus(c *fiber.Ctx) error {
	var req statusRequest
	if err := parseBody(c, &req); err != nil {
		return apperr.Respond(c, err)
	}
	lead, err := ac.leads.ChangeStatus(c.UserContext(), usercontext.GetActor(c), leads.StatusChange{
		LeadID: c.Params("id"),
		Status: req.Status,
		Notes:  req.Notes,
	})
	if err != nil {
		return apperr.Respond(c, err)
	}
	return apperr.OK(c, fiber.StatusOK, lead)
}

func (ac *AdminLeadController) HandleAssign(c *fiber.Ctx) error {
	var req assignRequest
	if err := parseBody(c, &req); err != nil {
		return apperr.Respond(c, err)
	}
	lead, err := ac.leads.Assign(c.UserContext(), usercontext.GetActor(c), c.Params("id"), req.AssignedToID)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return apperr.OK(c, fiber.StatusOK, lead)
}

func (ac *AdminLeadController) HandleDelete(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := ac.leads.Delete(c.UserContext(), usercontext.GetActor(c), id); err != nil {
		return apperr.Respond(c, err)
	}
	return apperr.OK(c, fiber.StatusOK, fiber.Map{"id": id})
}

// HandleAuditTrail lists every audit entry, admins only
func (ac *AdminLeadController) HandleAuditTrail(c *fiber.Ctx) error {
	page, err := ac.trail.List(c.UserContext(), usercontext.GetActor(c), c.QueryInt("page", 1), c.QueryInt("limit", 0))
	if err != nil {
		return apperr.Respond(c, err)
	}
	return apperr.OK(c, fiber.StatusOK, page)
}
