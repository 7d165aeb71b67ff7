// Package flash carries one-shot messages across the redirect that follows
// a plain HTML form post.
package flash

import (
	"github.com/gofiber/fiber/v2"
	sflash "github.com/sujit-baniya/flash"

	"github.com/jHLuno/telfera/internal/pkg/apperr"
)

const (
	TypeSuccess = "success"
	TypeError   = "error"
)

// Success queues a success message
func Success(c *fiber.Ctx, message string) {
	sflash.WithSuccess(c, fiber.Map{
		"type":    TypeSuccess,
		"message": message,
	})
}

// Error queues an error message with the failing form fields, if any
func Error(c *fiber.Ctx, e *apperr.Error) {
	fm := fiber.Map{
		"type":    TypeError,
		"kind":    string(e.Kind),
		"message": e.Message,
	}
	for field, msgs := range e.Fields {
		if len(msgs) > 0 {
			fm["field_"+field] = msgs[0]
		}
	}
	sflash.WithError(c, fm)
}

// Get retrieves and consumes the pending message
func Get(c *fiber.Ctx) fiber.Map {
	return sflash.Get(c)
}
