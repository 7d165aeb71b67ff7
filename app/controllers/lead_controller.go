package controllers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/jHLuno/telfera/app/models"
	"github.com/jHLuno/telfera/internal/pkg/apperr"
	"github.com/jHLuno/telfera/internal/pkg/clientip"
	"github.com/jHLuno/telfera/internal/pkg/flash"
	"github.com/jHLuno/telfera/internal/pkg/hcaptcha"
	"github.com/jHLuno/telfera/internal/pkg/leads"
	"github.com/jHLuno/telfera/internal/pkg/metrics"
	"github.com/jHLuno/telfera/internal/pkg/ratelimit"
	"github.com/jHLuno/telfera/internal/pkg/validation"
)

const leadAcceptedMessage = "Спасибо! Заявка принята, мы свяжемся с вами в ближайшее время."

// LeadController handles the anonymous entry points of the public site
type LeadController struct {
	leads   *leads.Service
	captcha *hcaptcha.Verifier
	limiter ratelimit.Limiter
}

func NewLeadController(svc *leads.Service, captcha *hcaptcha.Verifier, limiter ratelimit.Limiter) *LeadController {
	return &LeadController{leads: svc, captcha: captcha, limiter: limiter}
}

// HandleSubmit accepts a JSON submission in either form shape
func (lc *LeadController) HandleSubmit(c *fiber.Ctx) error {
	var sub validation.LeadSubmission
	if err := parseBody(c, &sub); err != nil {
		return apperr.Respond(c, err)
	}

	ip := clientip.FromCtx(c)
	lead, err := lc.leads.Submit(c.UserContext(), leads.SubmitRequest{
		Submission: sub,
		ClientID:   ip,
		IPAddress:  ip,
	})
	if err != nil {
		return apperr.Respond(c, err)
	}
	return apperr.OK(c, fiber.StatusCreated, lead)
}

// HandleContactForm accepts the plain HTML contact form and answers with a
// redirect carrying a flash message.
func (lc *LeadController) HandleContactForm(c *fiber.Ctx) error {
	back := safeRedirect(c.FormValue("redirect", "/"))
	ip := clientip.FromCtx(c)

	if lc.captcha.Enabled() {
		if lc.limiter != nil {
			rl := lc.limiter.Check(c.UserContext(), ratelimit.Key(ratelimit.ScopeCaptcha, ip), ratelimit.CaptchaAttempts)
			if !rl.Allowed {
				metrics.RateLimitDenied(ratelimit.ScopeCaptcha)
				flash.Error(c, apperr.RateLimited(rl.ResetInSeconds()))
				return c.Redirect(back, fiber.StatusSeeOther)
			}
		}

		ok, err := lc.captcha.Verify(c.UserContext(), c.FormValue("h-captcha-response"))
		if !ok {
			log.Infow("[Leads] captcha rejected", "client", ip, "error", err)
			flash.Error(c, apperr.Field("captcha", "Подтвердите, что вы не робот"))
			return c.Redirect(back, fiber.StatusSeeOther)
		}
	}

	var sub validation.LeadSubmission
	if err := c.BodyParser(&sub); err != nil {
		flash.Error(c, apperr.Field("body", "Некорректный формат запроса"))
		return c.Redirect(back, fiber.StatusSeeOther)
	}
	if sub.Source == "" {
		sub.Source = models.LeadSourceContactForm
	}

	if _, err := lc.leads.Submit(c.UserContext(), leads.SubmitRequest{
		Submission: sub,
		ClientID:   ip,
		IPAddress:  ip,
	}); err != nil {
		flash.Error(c, apperr.As(err))
		return c.Redirect(back, fiber.StatusSeeOther)
	}

	flash.Success(c, leadAcceptedMessage)
	return c.Redirect(back, fiber.StatusSeeOther)
}

// HandleFlash hands the pending flash message to the site's script and clears it
func (lc *LeadController) HandleFlash(c *fiber.Ctx) error {
	msg := flash.Get(c)
	if msg == nil {
		msg = fiber.Map{}
	}
	return apperr.OK(c, fiber.StatusOK, msg)
}
