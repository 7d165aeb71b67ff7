package session

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/gofiber/storage/redis"

	"github.com/jHLuno/telfera/internal/pkg/cache"
	"github.com/jHLuno/telfera/internal/pkg/env"
)

const (
	KeyUserID = "user_id"
	KeyName   = "user_name"
	KeyRole   = "user_role"
)

const Expiration = 8 * time.Hour

var sessionStore *session.Store

func baseConfig() session.Config {
	return session.Config{
		CookieHTTPOnly: true,
		CookieSecure:   !env.IsDev(),
		CookieSameSite: "Lax",
		Expiration:     Expiration,
		KeyLookup:      "cookie:telfera_session",
	}
}

// NewSessionStore keeps sessions in Redis when it is reachable and falls
// back to process memory otherwise.
func NewSessionStore() *session.Store {
	cfg := baseConfig()

	if cacheClient := cache.ClientIfAvailable(); cacheClient != nil {
		host := "localhost"
		port := 6379
		addr := cacheClient.Options().Addr
		if h, p, err := net.SplitHostPort(addr); err == nil {
			host = h
			if v, err := strconv.Atoi(p); err == nil {
				port = v
			}
		}

		// Create Redis storage for sessions using database 1 (cache uses DB 0)
		cfg.Storage = redis.New(redis.Config{
			Host:     host,
			Port:     port,
			Password: cacheClient.Options().Password,
			Database: 1,
			Reset:    false,
		})
	} else {
		log.Warn("[Session] redis unavailable, sessions are kept in memory")
	}

	sessionStore = session.New(cfg)
	return sessionStore
}

// NewMemoryStore returns an in-process store and makes it the active one.
func NewMemoryStore() *session.Store {
	sessionStore = session.New(baseConfig())
	return sessionStore
}

func GetSessionStore() *session.Store {
	return sessionStore
}

// Login starts a fresh session for the user. The session id is rotated.
func Login(c *fiber.Ctx, userID uint, name, role string) error {
	if sessionStore == nil {
		return fmt.Errorf("session store not initialized")
	}
	sess, err := sessionStore.Get(c)
	if err != nil {
		return fmt.Errorf("failed to get session: %w", err)
	}
	if err := sess.Regenerate(); err != nil {
		return fmt.Errorf("failed to rotate session: %w", err)
	}
	sess.Set(KeyUserID, userID)
	sess.Set(KeyName, name)
	sess.Set(KeyRole, role)
	return sess.Save()
}

// Logout destroys the current session.
func Logout(c *fiber.Ctx) error {
	if sessionStore == nil {
		return nil
	}
	sess, err := sessionStore.Get(c)
	if err != nil {
		return fmt.Errorf("failed to get session: %w", err)
	}
	return sess.Destroy()
}

// UserID returns the user stored in the session, 0 for anonymous visitors.
func UserID(c *fiber.Ctx) uint {
	if sessionStore == nil {
		return 0
	}
	sess, err := sessionStore.Get(c)
	if err != nil {
		return 0
	}
	if id, ok := sess.Get(KeyUserID).(uint); ok {
		return id
	}
	return 0
}

// SetSessionValue stores a key-value pair in the user's individual session
func SetSessionValue(c *fiber.Ctx, key string, value string) error {
	if sessionStore == nil {
		return fmt.Errorf("session store not initialized")
	}

	sess, err := sessionStore.Get(c)
	if err != nil {
		return fmt.Errorf("failed to get session: %v", err)
	}

	sess.Set(key, value)
	return sess.Save()
}

// GetSessionValue retrieves a value by key from the user's individual session
func GetSessionValue(c *fiber.Ctx, key string) string {
	if sessionStore == nil {
		return ""
	}

	sess, err := sessionStore.Get(c)
	if err != nil {
		return ""
	}

	if strValue, ok := sess.Get(key).(string); ok {
		return strValue
	}
	return ""
}
