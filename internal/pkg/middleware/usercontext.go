package middleware

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/jHLuno/telfera/app/models"
	"github.com/jHLuno/telfera/internal/pkg/session"
	"github.com/jHLuno/telfera/internal/pkg/usercontext"
)

// UserResolver loads the account behind a session id. users.Service implements it.
type UserResolver interface {
	Resolve(ctx context.Context, id uint) (*models.User, error)
}

// UserContextMiddleware sets up the user context for every request.
// The account is reloaded on each request so role changes and disabled
// accounts take effect without waiting for the session to expire.
func UserContextMiddleware(users UserResolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		anonymous := usercontext.UserContext{IsLoggedIn: false}

		userID := session.UserID(c)
		if userID == 0 {
			usercontext.Set(c, anonymous)
			return c.Next()
		}

		user, err := users.Resolve(c.UserContext(), userID)
		if err != nil {
			log.Errorw("[Middleware] failed to load session user", "user_id", userID, "error", err)
			usercontext.Set(c, anonymous)
			return c.Next()
		}
		if user == nil {
			// account deleted or disabled since login
			if err := session.Logout(c); err != nil {
				log.Warnw("[Middleware] failed to drop stale session", "user_id", userID, "error", err)
			}
			usercontext.Set(c, anonymous)
			return c.Next()
		}

		usercontext.Set(c, usercontext.UserContext{
			UserID:     user.ID,
			Name:       user.Name,
			Role:       user.Role,
			IsLoggedIn: true,
		})
		return c.Next()
	}
}
