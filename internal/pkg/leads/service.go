// Package leads owns every mutation and query of leads. Callers never write
// lead rows directly.
package leads

import (
	"context"
	"errors"
	"runtime/debug"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/jHLuno/telfera/app/models"
	"github.com/jHLuno/telfera/app/repository"
	"github.com/jHLuno/telfera/internal/pkg/apperr"
	"github.com/jHLuno/telfera/internal/pkg/audit"
	"github.com/jHLuno/telfera/internal/pkg/metrics"
	"github.com/jHLuno/telfera/internal/pkg/notify"
	"github.com/jHLuno/telfera/internal/pkg/ratelimit"
)

const defaultNotifyTimeout = 15 * time.Second

// StatsCache holds views derived from leads. statistics.Cache implements it.
type StatsCache interface {
	LeadStats(ctx context.Context, load func() (*models.LeadStats, error)) (*models.LeadStats, error)
	InvalidateLeads(ctx context.Context) error
}

// Config wires the service. Only DB is required.
type Config struct {
	DB       *gorm.DB
	Limiter  ratelimit.Limiter
	Cache    StatsCache
	Notifier notify.Notifier
	Now      func() time.Time
	// NotifyTimeout bounds one asynchronous notification
	NotifyTimeout time.Duration
}

type Service struct {
	db            *gorm.DB
	limiter       ratelimit.Limiter
	cache         StatsCache
	notifier      notify.Notifier
	now           func() time.Time
	audit         *audit.Recorder
	notifyTimeout time.Duration
}

func NewService(cfg Config) *Service {
	s := &Service{
		db:            cfg.DB,
		limiter:       cfg.Limiter,
		cache:         cfg.Cache,
		notifier:      cfg.Notifier,
		now:           cfg.Now,
		notifyTimeout: cfg.NotifyTimeout,
	}
	if s.limiter == nil {
		s.limiter = ratelimit.NewMemoryLimiter()
	}
	if s.notifier == nil {
		s.notifier = notify.Noop{}
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.notifyTimeout <= 0 {
		s.notifyTimeout = defaultNotifyTimeout
	}
	s.audit = audit.NewRecorder(s.now)
	return s
}

// readRepos returns repositories bound to ctx outside of any transaction.
func (s *Service) readRepos(ctx context.Context) *repository.Repositories {
	return repository.NewRepositories(s.db.WithContext(ctx))
}

// inTx runs fn in one transaction. Structured errors from fn pass through
// unchanged; anything else is logged and reported as an internal failure.
func (s *Service) inTx(ctx context.Context, op string, fields []any, fn func(repos *repository.Repositories) error) error {
	err := repository.Transaction(ctx, s.db, fn)
	if err == nil {
		return nil
	}
	return s.fail(op, err, fields...)
}

func (s *Service) fail(op string, err error, fields ...any) error {
	var e *apperr.Error
	if errors.As(err, &e) {
		return e
	}
	log.Errorw("[Leads] "+op+" failed", append(fields, "error", err)...)
	return apperr.Internal(err)
}

// loadLead maps a missing row to a not-found domain error.
func loadLead(repos *repository.Repositories, id string) (*models.Lead, error) {
	lead, err := repos.Lead.GetByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("Заявка не найдена")
	}
	return lead, err
}

// committed runs the side effects that follow a successful mutation.
func (s *Service) committed(ctx context.Context, actions ...string) {
	for _, a := range actions {
		metrics.AuditEntry(a)
	}
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateLeads(ctx); err != nil {
		log.Warnw("[Leads] cache invalidation failed", "error", err)
	}
}

// notifyCreated delivers the new-lead notification in the background with
// its own deadline, detached from the request.
func (s *Service) notifyCreated(lead models.Lead) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Errorw("[Leads] notifier panicked", "lead_id", lead.ID, "panic", r, "stack", string(debug.Stack()))
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), s.notifyTimeout)
		defer cancel()

		if err := s.notifier.LeadCreated(ctx, &lead); err != nil {
			log.Warnw("[Leads] new lead notification failed", "lead_id", lead.ID, "error", err)
		}
	}()
}
