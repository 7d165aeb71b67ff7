// Package users manages staff accounts and their logins.
package users

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/jHLuno/telfera/app/models"
	"github.com/jHLuno/telfera/app/repository"
	"github.com/jHLuno/telfera/internal/pkg/access"
	"github.com/jHLuno/telfera/internal/pkg/apperr"
	"github.com/jHLuno/telfera/internal/pkg/audit"
	"github.com/jHLuno/telfera/internal/pkg/metrics"
	"github.com/jHLuno/telfera/internal/pkg/ratelimit"
)

const invalidCredentials = "Неверный email или пароль"

// Invalidator drops cached lead views. Deleting a user releases leads.
type Invalidator interface {
	InvalidateLeads(ctx context.Context) error
}

type Config struct {
	DB      *gorm.DB
	Limiter ratelimit.Limiter
	Cache   Invalidator
	Now     func() time.Time
}

type Service struct {
	db      *gorm.DB
	limiter ratelimit.Limiter
	cache   Invalidator
	now     func() time.Time
	audit   *audit.Recorder
}

func NewService(cfg Config) *Service {
	s := &Service{db: cfg.DB, limiter: cfg.Limiter, cache: cfg.Cache, now: cfg.Now}
	if s.limiter == nil {
		s.limiter = ratelimit.NewMemoryLimiter()
	}
	if s.now == nil {
		s.now = time.Now
	}
	s.audit = audit.NewRecorder(s.now)
	return s
}

// LoginRequest carries credentials plus the client identity used for throttling.
type LoginRequest struct {
	Email     string `json:"email" form:"email"`
	Password  string `json:"password" form:"password"`
	ClientID  string `json:"-" form:"-"`
	IPAddress string `json:"-" form:"-"`
}

// CreateInput describes a new staff account.
type CreateInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// UpdateInput changes only the fields that are set.
type UpdateInput struct {
	Name     *string `json:"name"`
	Role     *string `json:"role"`
	Status   *string `json:"status"`
	Password *string `json:"password"`
}

// Authenticate checks credentials. Every attempt, successful or not, counts
// against the login budget of the client.
func (s *Service) Authenticate(ctx context.Context, req LoginRequest) (*models.User, error) {
	rl := s.limiter.Check(ctx, ratelimit.Key(ratelimit.ScopeLogin, req.ClientID), ratelimit.Login)
	if !rl.Allowed {
		metrics.RateLimitDenied(ratelimit.ScopeLogin)
		log.Warnw("[Users] login rate limit exceeded", "client", req.ClientID)
		return nil, apperr.RateLimited(rl.ResetInSeconds())
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		return nil, apperr.Unauthenticated(invalidCredentials)
	}

	var user *models.User
	err := repository.Transaction(ctx, s.db, func(repos *repository.Repositories) error {
		var err error
		user, err = repos.User.GetByEmail(email)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.Unauthenticated(invalidCredentials)
		}
		if err != nil {
			return err
		}
		if !user.CheckPassword(req.Password) || !user.IsActive() {
			return apperr.Unauthenticated(invalidCredentials)
		}

		now := s.now()
		if err := repos.User.TouchLastLogin(user.ID, now); err != nil {
			return err
		}
		user.LastLoginAt = &now

		_, err = s.audit.Record(repos.Audit, audit.Entry{
			Action:     models.AuditActionLogin,
			EntityType: models.AuditEntityUser,
			EntityID:   auditID(user.ID),
			ActorID:    &user.ID,
			IPAddress:  req.IPAddress,
		})
		return err
	})
	if err != nil {
		if apperr.IsKind(err, apperr.KindUnauthenticated) {
			log.Infow("[Users] failed login attempt", "email", email, "client", req.ClientID)
		}
		return nil, s.fail("authenticate", err, "email", email)
	}

	metrics.AuditEntry(models.AuditActionLogin)
	log.Infow("[Users] user logged in", "user_id", user.ID)
	return user, nil
}

// Logout records the end of a session.
func (s *Service) Logout(ctx context.Context, actor *access.Actor, ip string) error {
	if actor == nil {
		return nil
	}
	err := repository.Transaction(ctx, s.db, func(repos *repository.Repositories) error {
		_, err := s.audit.Record(repos.Audit, audit.Entry{
			Action:     models.AuditActionLogout,
			EntityType: models.AuditEntityUser,
			EntityID:   auditID(actor.UserID),
			ActorID:    actor.ID(),
			IPAddress:  ip,
		})
		return err
	})
	if err != nil {
		return s.fail("logout", err, "user_id", actor.UserID)
	}
	metrics.AuditEntry(models.AuditActionLogout)
	return nil
}

// Resolve loads the account behind a session. Deleted and disabled accounts
// resolve to nil so their sessions stop working immediately.
func (s *Service) Resolve(ctx context.Context, id uint) (*models.User, error) {
	user, err := repository.NewUserRepository(s.db.WithContext(ctx)).GetByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !user.IsActive() {
		return nil, nil
	}
	return user, nil
}

// List returns the staff directory.
func (s *Service) List(ctx context.Context, actor *access.Actor) ([]models.User, error) {
	if err := access.Authorize(actor, access.ActionRead, access.ResourceUser); err != nil {
		return nil, err
	}
	users, err := repository.NewUserRepository(s.db.WithContext(ctx)).List(0, -1)
	if err != nil {
		return nil, s.fail("list users", err)
	}
	return users, nil
}

func (s *Service) Create(ctx context.Context, actor *access.Actor, in CreateInput) (*models.User, error) {
	if err := access.Authorize(actor, access.ActionManage, access.ResourceUser); err != nil {
		return nil, err
	}
	return s.create(ctx, actor, in)
}

// Bootstrap creates an account without an acting user, for the command line.
func (s *Service) Bootstrap(ctx context.Context, in CreateInput) (*models.User, error) {
	return s.create(ctx, nil, in)
}

func (s *Service) create(ctx context.Context, actor *access.Actor, in CreateInput) (*models.User, error) {
	user, err := models.CreateUser(in.Name, in.Email, in.Password, in.Role)
	if err != nil {
		return nil, apperr.Validation(userFieldErrors(err))
	}

	err = repository.Transaction(ctx, s.db, func(repos *repository.Repositories) error {
		taken, err := repos.User.EmailTaken(user.Email)
		if err != nil {
			return err
		}
		if taken {
			return apperr.Field("email", "Пользователь с таким email уже существует")
		}
		if err := repos.User.Create(user); err != nil {
			return err
		}
		_, err = s.audit.Record(repos.Audit, audit.Entry{
			Action:     models.AuditActionCreate,
			EntityType: models.AuditEntityUser,
			EntityID:   auditID(user.ID),
			ActorID:    actor.ID(),
			Details:    map[string]any{"email": user.Email, "role": user.Role},
		})
		return err
	})
	if err != nil {
		return nil, s.fail("create user", err, "email", user.Email)
	}

	metrics.AuditEntry(models.AuditActionCreate)
	log.Infow("[Users] user created", "user_id", user.ID, "role", user.Role)
	return user, nil
}

// Update changes name, role, status or password. Admins cannot demote or
// disable their own account.
func (s *Service) Update(ctx context.Context, actor *access.Actor, id uint, in UpdateInput) (*models.User, error) {
	if err := access.Authorize(actor, access.ActionManage, access.ResourceUser); err != nil {
		return nil, err
	}

	self := actor.UserID == id
	if self && in.Role != nil && *in.Role != models.ROLE_ADMIN {
		return nil, apperr.Field("role", "Нельзя понизить собственную роль")
	}
	if self && in.Status != nil && *in.Status != models.STATUS_ACTIVE {
		return nil, apperr.Field("status", "Нельзя отключить собственную учетную запись")
	}

	var user *models.User
	err := repository.Transaction(ctx, s.db, func(repos *repository.Repositories) error {
		var err error
		user, err = repos.User.GetByID(id)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("Пользователь не найден")
		}
		if err != nil {
			return err
		}

		changes := map[string]any{}
		if in.Name != nil {
			user.Name = strings.TrimSpace(*in.Name)
			changes["name"] = user.Name
		}
		if in.Role != nil {
			changes["role"] = map[string]any{"old": user.Role, "new": *in.Role}
			user.Role = *in.Role
		}
		if in.Status != nil {
			changes["status"] = map[string]any{"old": user.Status, "new": *in.Status}
			user.Status = *in.Status
		}
		if in.Password != nil {
			if err := validator.New().Var(*in.Password, "min=6,max=72"); err != nil {
				return apperr.Field("password", "Пароль должен содержать от 6 до 72 символов")
			}
			if err := user.SetPassword(*in.Password); err != nil {
				return err
			}
			changes["password"] = "changed"
		}
		if err := user.Validate(); err != nil {
			return apperr.Validation(userFieldErrors(err))
		}
		if len(changes) == 0 {
			return nil
		}

		if err := repos.User.Update(user); err != nil {
			return err
		}
		_, err = s.audit.Record(repos.Audit, audit.Entry{
			Action:     models.AuditActionUpdate,
			EntityType: models.AuditEntityUser,
			EntityID:   auditID(user.ID),
			ActorID:    actor.ID(),
			Details:    changes,
		})
		return err
	})
	if err != nil {
		return nil, s.fail("update user", err, "user_id", id)
	}

	metrics.AuditEntry(models.AuditActionUpdate)
	return user, nil
}

// Delete removes an account and releases the leads assigned to it.
func (s *Service) Delete(ctx context.Context, actor *access.Actor, id uint) error {
	if err := access.Authorize(actor, access.ActionManage, access.ResourceUser); err != nil {
		return err
	}
	if actor.UserID == id {
		return apperr.Field("id", "Нельзя удалить собственную учетную запись")
	}

	err := repository.Transaction(ctx, s.db, func(repos *repository.Repositories) error {
		user, err := repos.User.GetByID(id)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("Пользователь не найден")
		}
		if err != nil {
			return err
		}
		released, err := repos.Lead.UnassignUser(id)
		if err != nil {
			return err
		}
		if err := repos.User.Delete(id); err != nil {
			return err
		}
		_, err = s.audit.Record(repos.Audit, audit.Entry{
			Action:     models.AuditActionDelete,
			EntityType: models.AuditEntityUser,
			EntityID:   auditID(id),
			ActorID:    actor.ID(),
			Details: map[string]any{
				"email":         user.Email,
				"role":          user.Role,
				"releasedLeads": released,
			},
		})
		return err
	})
	if err != nil {
		return s.fail("delete user", err, "user_id", id)
	}

	metrics.AuditEntry(models.AuditActionDelete)
	if s.cache != nil {
		if err := s.cache.InvalidateLeads(ctx); err != nil {
			log.Warnw("[Users] cache invalidation failed", "error", err)
		}
	}
	log.Infow("[Users] user deleted", "user_id", id, "actor_id", actor.UserID)
	return nil
}

func (s *Service) fail(op string, err error, fields ...any) error {
	var e *apperr.Error
	if errors.As(err, &e) {
		return e
	}
	log.Errorw("[Users] "+op+" failed", append(fields, "error", err)...)
	return apperr.Internal(err)
}
