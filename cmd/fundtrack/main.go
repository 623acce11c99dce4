package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fundtrack/fundtrack/db"
	"github.com/fundtrack/fundtrack/internal/auth"
	"github.com/fundtrack/fundtrack/internal/cache"
	"github.com/fundtrack/fundtrack/internal/config"
	"github.com/fundtrack/fundtrack/internal/handlers"
	"github.com/fundtrack/fundtrack/internal/health"
	"github.com/fundtrack/fundtrack/internal/metrics"
	"github.com/fundtrack/fundtrack/internal/middleware"
	"github.com/fundtrack/fundtrack/internal/realtime"
	"github.com/fundtrack/fundtrack/internal/router"
	"github.com/fundtrack/fundtrack/internal/scheduler"
	"github.com/fundtrack/fundtrack/internal/services"
	"github.com/joho/godotenv"
	"github.com/juju/clock"
	"github.com/juju/errors"
	"github.com/juju/loggo"
	"golang.org/x/sync/errgroup"
)

var logger = loggo.GetLogger("fundtrack")

const shutdownTimeout = 10 * time.Second

func main() {
	if err := godotenv.Load(); err != nil {
		logger.Infof("no .env file loaded: %v", err)
	}

	cfg, err := config.Load()

	if err != nil {
		logger.Criticalf("invalid configuration: %v", err)
		os.Exit(1)
	}

	if err := loggo.ConfigureLoggers(cfg.LoggingConfig); err != nil {
		logger.Criticalf("invalid LOG_CONFIG %q: %v", cfg.LoggingConfig, err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logger.Criticalf("%s", errors.ErrorStack(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config) error {
	conn, err := db.ConnectDatabase(cfg.DatabaseDriver, cfg.DatabaseURL)

	if err != nil {
		return errors.Trace(err)
	}

	sqlDB, err := conn.DB()

	if err != nil {
		return errors.Trace(err)
	}

	defer sqlDB.Close()

	if err := db.MigrateDatabase(conn); err != nil {
		return errors.Trace(err)
	}

	checker := health.NewChecker(0).Register("database", health.DatabaseProbe(conn))

	redisClient := cache.Connect(ctx, cfg.RedisAddr)

	if redisClient != nil {
		defer redisClient.Close()
		checker.Register("redis", health.RedisProbe(redisClient))
	}

	tokens, err := auth.NewJWT(cfg.JWTSecret, cfg.TokenTTL, clock.WallClock)

	if err != nil {
		return errors.Trace(err)
	}

	m := metrics.New()
	hub := realtime.NewHub()

	notifications := services.NewNotificationService(conn, hub)
	identity := services.NewIdentityService(conn, tokens, notifications, cfg.DefaultCompanyName, m)
	projects := services.NewProjectService(conn, notifications, clock.WallClock, m)

	if alerter := services.NewWebhookAlerter(cfg.DiscordWebhookURL, cfg.SlackWebhookURL, clock.WallClock); alerter != nil {
		projects.WithAlerter(alerter)
	}

	sched := scheduler.New(ctx, clock.WallClock)
	defer sched.Stop()

	err = sched.Add(scheduler.Job{
		Name:     "deadline-reminders",
		Interval: cfg.ReminderInterval,
		Run: func(ctx context.Context) error {
			_, err := projects.SendDeadlineReminders(ctx, cfg.ReminderWindow)
			return errors.Trace(err)
		},
	})

	if err != nil {
		return errors.Trace(err)
	}

	opts := handlers.Options{
		Identity:       identity,
		Companies:      services.NewCompanyService(conn),
		Notifications:  notifications,
		Projects:       projects,
		Hub:            hub,
		Clock:          clock.WallClock,
		Health:         checker,
		Scheduler:      sched,
		ClientURL:      cfg.ClientURL,
		AllowedOrigins: cfg.AllowedOrigins,
		CookieDomain:   cfg.CookieDomain,
		CookieSecure:   cfg.CookieSecure,
		TokenTTL:       cfg.TokenTTL,
	}

	if cfg.GoogleEnabled() {
		opts.Google = auth.NewGoogleOAuth(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleCallbackURL)
	} else {
		logger.Warningf("GOOGLE_CLIENT_ID or GOOGLE_CLIENT_SECRET not set, Google sign-in is disabled")
	}

	engine := router.NewRouter(router.Dependencies{
		Handler:        handlers.New(opts),
		Auth:           middleware.AuthMiddleware(tokens, identity, cache.NewUserCache(redisClient, cfg.UserCacheTTL)),
		Metrics:        m,
		AllowedOrigins: cfg.AllowedOrigins,
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Infof("listening on %s", server.Addr)

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Annotate(err, "serving http")
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Infof("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		return errors.Annotate(server.Shutdown(shutdownCtx), "shutting down http server")
	})

	return g.Wait()
}
