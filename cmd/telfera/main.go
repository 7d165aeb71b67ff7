package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/spf13/cobra"

	"github.com/jHLuno/telfera/internal/pkg/audit"
	"github.com/jHLuno/telfera/internal/pkg/cache"
	"github.com/jHLuno/telfera/internal/pkg/database"
	"github.com/jHLuno/telfera/internal/pkg/env"
	"github.com/jHLuno/telfera/internal/pkg/hcaptcha"
	"github.com/jHLuno/telfera/internal/pkg/leads"
	"github.com/jHLuno/telfera/internal/pkg/notify"
	"github.com/jHLuno/telfera/internal/pkg/ratelimit"
	"github.com/jHLuno/telfera/internal/pkg/router"
	"github.com/jHLuno/telfera/internal/pkg/statistics"
	"github.com/jHLuno/telfera/internal/pkg/users"
)

// Version is set at build time via ldflags.
var Version = "dev"

const shutdownTimeout = 10 * time.Second

func main() {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "fatal: %v\n", r)
			os.Exit(2)
		}
	}()

	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "telfera",
		Short:         "Telfera.kz lead intake and CRM",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}

	cmd.AddCommand(serveCmd(), createUserCmd(), versionCmd())
	return cmd
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("telfera %s\n", Version)
		},
	}
}

func createUserCmd() *cobra.Command {
	var name, email, password, role string

	cmd := &cobra.Command{
		Use:   "create-user",
		Short: "Create a staff account without logging in",
		RunE: func(cmd *cobra.Command, args []string) error {
			env.SetupEnvFile()
			database.SetupDatabase()

			svc := users.NewService(users.Config{DB: database.GetDB()})
			user, err := svc.Bootstrap(cmd.Context(), users.CreateInput{
				Name:     name,
				Email:    email,
				Password: password,
				Role:     role,
			})
			if err != nil {
				return err
			}
			fmt.Printf("created %s user %s (id %d)\n", user.Role, user.Email, user.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&email, "email", "", "login email")
	cmd.Flags().StringVar(&password, "password", "", "initial password")
	cmd.Flags().StringVar(&role, "role", "admin", "manager or admin")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func serve(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	env.SetupEnvFile()
	database.SetupDatabase()
	cache.SetupCache()

	db := database.GetDB()
	redisClient := cache.ClientIfAvailable()

	var limiter ratelimit.Limiter
	if redisClient != nil && env.GetEnv("RATE_LIMIT_BACKEND", "memory") == "redis" {
		limiter = ratelimit.NewRedisLimiter(redisClient)
		log.Info("[RateLimit] using redis counters")
	} else {
		mem := ratelimit.NewMemoryLimiter()
		go mem.Run(ctx, ratelimit.SweepInterval)
		limiter = mem
		log.Info("[RateLimit] using in-memory counters")
	}

	stats := statistics.NewCache(redisClient)
	notifier := notify.FromEnv()
	if c, ok := notifier.(io.Closer); ok {
		defer func() {
			if err := c.Close(); err != nil {
				log.Warnw("[Notify] failed to close notification channels", "error", err.Error())
			}
		}()
	}

	leadSvc := leads.NewService(leads.Config{
		DB:       db,
		Limiter:  limiter,
		Cache:    stats,
		Notifier: notifier,
	})
	userSvc := users.NewService(users.Config{
		DB:      db,
		Limiter: limiter,
		Cache:   stats,
	})

	app := router.New(router.Dependencies{
		DB:       db,
		Redis:    redisClient,
		Leads:    leadSvc,
		Users:    userSvc,
		Trail:    audit.NewTrail(db),
		Captcha:  hcaptcha.FromEnv(),
		Limiter:  limiter,
		DocsFile: env.GetEnv("DOCS_FILE", "./docs/openapi.yml"),
	})

	addr := fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "0.0.0.0"), env.GetEnv("APP_PORT", "4000"))
	errCh := make(chan error, 1)
	go func() {
		log.Infof("[Server] listening on %s", addr)
		errCh <- app.Listen(addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("[Server] shutting down")
	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
