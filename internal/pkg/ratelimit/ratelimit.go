// Package ratelimit implements fixed-window request counting per client key.
//
// A fixed window resets its counter at the window boundary, so a client can
// pass up to 2×Limit requests in a short burst straddling two windows. This
// is accepted behavior.
package ratelimit

import (
	"context"
	"math"
	"time"
)

// Config is the budget of one key: Limit requests per Window.
type Config struct {
	Limit  int
	Window time.Duration
}

var (
	// LeadSubmission throttles the public lead form
	LeadSubmission = Config{Limit: 5, Window: 60 * time.Second}
	// CaptchaAttempts throttles contact form posts before the captcha
	// token is sent for verification
	CaptchaAttempts = Config{Limit: 10, Window: 60 * time.Second}
	// Login throttles password attempts
	Login = Config{Limit: 5, Window: 900 * time.Second}
	// API throttles the staff JSON API
	API = Config{Limit: 100, Window: 60 * time.Second}
)

const (
	ScopeLead    = "lead"
	ScopeCaptcha = "captcha"
	ScopeLogin   = "login"
	ScopeAPI     = "api"
)

// SweepInterval is how often expired in-memory entries are dropped.
const SweepInterval = 5 * time.Minute

// Result of one Check.
type Result struct {
	Allowed   bool
	Remaining int
	ResetIn   time.Duration
}

// ResetInSeconds rounds the time until the window resets up to whole seconds.
func (r Result) ResetInSeconds() int {
	if r.ResetIn <= 0 {
		return 0
	}
	return int(math.Ceil(r.ResetIn.Seconds()))
}

// Limiter counts requests per key. Check never fails: backend problems are
// handled inside the implementation.
type Limiter interface {
	Check(ctx context.Context, key string, cfg Config) Result
}

// Key builds the counter key for a scope and client identifier, e.g. "lead:10.0.0.1".
func Key(scope, identifier string) string {
	if identifier == "" {
		identifier = "unknown"
	}
	return scope + ":" + identifier
}
