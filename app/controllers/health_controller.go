package controllers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// HealthController reports whether the service can reach its backends.
// Redis is optional: without it the service runs degraded on in-memory state.
type HealthController struct {
	db    *gorm.DB
	redis *redis.Client
}

func NewHealthController(db *gorm.DB, redisClient *redis.Client) *HealthController {
	return &HealthController{db: db, redis: redisClient}
}

type healthStatus struct {
	Status   string    `json:"status"`
	Database string    `json:"database"`
	Cache    string    `json:"cache"`
	Time     time.Time `json:"time"`
}

func (hc *HealthController) HandleHealth(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	res := healthStatus{Status: "ok", Database: "ok", Cache: "disabled", Time: time.Now().UTC()}
	code := fiber.StatusOK

	if err := hc.pingDB(ctx); err != nil {
		log.Errorw("[Health] database unreachable", "error", err)
		res.Status, res.Database = "down", "down"
		code = fiber.StatusServiceUnavailable
	}

	if hc.redis != nil {
		res.Cache = "ok"
		if err := hc.redis.Ping(ctx).Err(); err != nil {
			log.Warnw("[Health] redis unreachable", "error", err)
			res.Cache = "down"
			if res.Status == "ok" {
				res.Status = "degraded"
			}
		}
	}

	return c.Status(code).JSON(res)
}

func (hc *HealthController) pingDB(ctx context.Context) error {
	sqlDB, err := hc.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
