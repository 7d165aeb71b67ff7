package controllers

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jHLuno/telfera/app/models"
	"github.com/jHLuno/telfera/app/repository"
	"github.com/jHLuno/telfera/internal/pkg/apperr"
	"github.com/jHLuno/telfera/internal/pkg/usercontext"
)

const dateLayout = "2006-01-02"

// parseUintParam reads a numeric route parameter
func parseUintParam(c *fiber.Ctx, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil || id == 0 {
		return 0, apperr.NotFound("")
	}
	return uint(id), nil
}

// parseBody decodes the request body. Malformed payloads are a validation error.
func parseBody(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return apperr.Field("body", "Некорректный формат запроса")
	}
	return nil
}

// parseLeadFilter reads the listing filters from the query string:
// status, assignedTo (user id, "me" or "none"), source, q, from, to (YYYY-MM-DD).
func parseLeadFilter(c *fiber.Ctx) (repository.LeadFilter, error) {
	var filter repository.LeadFilter
	errs := apperr.FieldErrors{}

	if raw := c.Query("status"); raw != "" {
		status, ok := models.ParseLeadStatus(raw)
		if !ok {
			errs.Add("status", "Недопустимый статус")
		}
		filter.Status = status
	}

	switch raw := strings.TrimSpace(c.Query("assignedTo")); raw {
	case "":
	case "none":
		filter.Unassigned = true
	case "me":
		id := usercontext.GetUserContext(c).UserID
		filter.AssignedToID = &id
	default:
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			errs.Add("assignedTo", "Некорректный пользователь")
		} else {
			uid := uint(id)
			filter.AssignedToID = &uid
		}
	}

	filter.Source = strings.TrimSpace(c.Query("source"))
	filter.Search = strings.TrimSpace(c.Query("q"))

	if raw := c.Query("from"); raw != "" {
		from, err := time.ParseInLocation(dateLayout, raw, time.Local)
		if err != nil {
			errs.Add("from", "Дата в формате ГГГГ-ММ-ДД")
		} else {
			filter.From = &from
		}
	}
	if raw := c.Query("to"); raw != "" {
		to, err := time.ParseInLocation(dateLayout, raw, time.Local)
		if err != nil {
			errs.Add("to", "Дата в формате ГГГГ-ММ-ДД")
		} else {
			// inclusive: up to the end of that day
			end := to.Add(24*time.Hour - time.Nanosecond)
			filter.To = &end
		}
	}

	if errs.HasErrors() {
		return filter, apperr.Validation(errs)
	}
	return filter, nil
}

// safeRedirect keeps form redirects on this site
func safeRedirect(target string) string {
	if !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") {
		return "/"
	}
	// browsers read a backslash as a slash, and control characters are stripped
	if strings.ContainsAny(target, "\\\t\r\n") {
		return "/"
	}
	u, err := url.Parse(target)
	if err != nil || u.Scheme != "" || u.Host != "" || u.User != nil {
		return "/"
	}
	return target
}
