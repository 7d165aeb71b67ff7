package controllers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/jHLuno/telfera/internal/pkg/apperr"
	"github.com/jHLuno/telfera/internal/pkg/clientip"
	"github.com/jHLuno/telfera/internal/pkg/session"
	"github.com/jHLuno/telfera/internal/pkg/usercontext"
	"github.com/jHLuno/telfera/internal/pkg/users"
)

// AuthController handles staff login and logout
type AuthController struct {
	users *users.Service
}

func NewAuthController(svc *users.Service) *AuthController {
	return &AuthController{users: svc}
}

func (ac *AuthController) HandleLogin(c *fiber.Ctx) error {
	var req users.LoginRequest
	if err := parseBody(c, &req); err != nil {
		return apperr.Respond(c, err)
	}
	ip := clientip.FromCtx(c)
	req.ClientID = ip
	req.IPAddress = ip

	user, err := ac.users.Authenticate(c.UserContext(), req)
	if err != nil {
		return apperr.Respond(c, err)
	}

	if err := session.Login(c, user.ID, user.Name, user.Role); err != nil {
		log.Errorw("[Auth] failed to start session", "user_id", user.ID, "error", err)
		return apperr.Respond(c, apperr.Internal(err))
	}
	return apperr.OK(c, fiber.StatusOK, user)
}

func (ac *AuthController) HandleLogout(c *fiber.Ctx) error {
	actor := usercontext.GetActor(c)
	if err := ac.users.Logout(c.UserContext(), actor, clientip.FromCtx(c)); err != nil {
		// the session ends regardless
		log.Warnw("[Auth] logout audit failed", "error", err)
	}
	if err := session.Logout(c); err != nil {
		log.Errorw("[Auth] failed to destroy session", "error", err)
		return apperr.Respond(c, apperr.Internal(err))
	}
	return apperr.OK(c, fiber.StatusOK, nil)
}

// HandleMe returns the user behind the session
func (ac *AuthController) HandleMe(c *fiber.Ctx) error {
	return apperr.OK(c, fiber.StatusOK, usercontext.GetUserContext(c))
}
