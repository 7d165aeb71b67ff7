package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jHLuno/telfera/internal/pkg/apperr"
	"github.com/jHLuno/telfera/internal/pkg/usercontext"
	"github.com/jHLuno/telfera/internal/pkg/users"
)

// AdminUserController manages staff accounts
type AdminUserController struct {
	users *users.Service
}

func NewAdminUserController(svc *users.Service) *AdminUserController {
	return &AdminUserController{users: svc}
}

func (uc *AdminUserController) HandleList(c *fiber.Ctx) error {
	list, err := uc.users.List(c.UserContext(), usercontext.GetActor(c))
	if err != nil {
		return apperr.Respond(c, err)
	}
	return apperr.OK(c, fiber.StatusOK, list)
}

func (uc *AdminUserController) HandleCreate(c *fiber.Ctx) error {
	var in users.CreateInput
	if err := parseBody(c, &in); err != nil {
		return apperr.Respond(c, err)
	}
	user, err := uc.users.Create(c.UserContext(), usercontext.GetActor(c), in)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return apperr.OK(c, fiber.StatusCreated, user)
}

func (uc *AdminUserController) HandleUpdate(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return apperr.Respond(c, err)
	}
	var in users.UpdateInput
	if err := parseBody(c, &in); err != nil {
		return apperr.Respond(c, err)
	}
	user, err := uc.users.Update(c.UserContext(), usercontext.GetActor(c), id, in)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return apperr.OK(c, fiber.StatusOK, user)
}

func (uc *AdminUserController) HandleDelete(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return apperr.Respond(c, err)
	}
	if err := uc.users.Delete(c.UserContext(), usercontext.GetActor(c), id); err != nil {
		return apperr.Respond(c, err)
	}
	return apperr.OK(c, fiber.StatusOK, fiber.Map{"id": id})
}
