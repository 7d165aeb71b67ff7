package usercontext

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jHLuno/telfera/internal/pkg/access"
)

// UserContext represents the complete user context for a request
type UserContext struct {
	UserID     uint   `json:"user_id"`
	Name       string `json:"name"`
	Role       string `json:"role"`
	IsLoggedIn bool   `json:"is_logged_in"`
}

// Actor converts the context into the actor passed to services.
// Anonymous visitors have no actor.
func (u UserContext) Actor() *access.Actor {
	if !u.IsLoggedIn || u.UserID == 0 {
		return nil
	}
	return &access.Actor{UserID: u.UserID, Name: u.Name, Role: u.Role}
}

// Set stores the user context for the rest of the request
func Set(c *fiber.Ctx, u UserContext) {
	c.Locals(KeyUserContext, u)
}

// GetUserContext retrieves the user context from fiber context
// Returns a default anonymous context if none is set
func GetUserContext(c *fiber.Ctx) UserContext {
	if ctx, ok := c.Locals(KeyUserContext).(UserContext); ok {
		return ctx
	}
	return UserContext{IsLoggedIn: false}
}

// IsLoggedIn checks if the current user is logged in
func IsLoggedIn(c *fiber.Ctx) bool {
	return GetUserContext(c).IsLoggedIn
}

// GetActor returns the acting staff member, nil for anonymous requests
func GetActor(c *fiber.Ctx) *access.Actor {
	return GetUserContext(c).Actor()
}
