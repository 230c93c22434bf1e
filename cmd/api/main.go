package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/realnickp/BackyardBobbys-sub000/internal/auth"
	"github.com/realnickp/BackyardBobbys-sub000/internal/automation"
	"github.com/realnickp/BackyardBobbys-sub000/internal/chat"
	"github.com/realnickp/BackyardBobbys-sub000/internal/events"
	"github.com/realnickp/BackyardBobbys-sub000/internal/funnel"
	apphttp "github.com/realnickp/BackyardBobbys-sub000/internal/http"
	"github.com/realnickp/BackyardBobbys-sub000/internal/http/router"
	"github.com/realnickp/BackyardBobbys-sub000/internal/leads"
	"github.com/realnickp/BackyardBobbys-sub000/internal/notify"
	"github.com/realnickp/BackyardBobbys-sub000/migrations"
	"github.com/realnickp/BackyardBobbys-sub000/platform/config"
	"github.com/realnickp/BackyardBobbys-sub000/platform/db"
	"github.com/realnickp/BackyardBobbys-sub000/platform/logger"
	"github.com/realnickp/BackyardBobbys-sub000/platform/validator"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, cfg, migrations.FS)
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	// Shared validator instance for dependency injection
	val := validator.New()

	// Outbound channels. Unconfigured channels fall back to noops so the
	// dispatcher can treat them uniformly.
	var smsSender notify.SMSSender = notify.NoopSMSSender{}
	if twilio := notify.NewTwilioSender(cfg, log); twilio != nil {
		smsSender = twilio
		log.Info("sms sender initialized", "provider", "twilio")
	} else {
		log.Warn("TWILIO_* not configured; SMS disabled")
	}

	var emailSender notify.EmailSender = notify.NoopEmailSender{}
	if cfg.GetEmailEnabled() {
		if brevo := notify.NewBrevoSender(cfg, log); brevo != nil {
			emailSender = brevo
			log.Info("email sender initialized", "provider", "brevo")
		} else if smtp := notify.NewSMTPSender(cfg, log); smtp != nil {
			emailSender = smtp
			log.Info("email sender initialized", "provider", "smtp")
		}
	} else {
		log.Warn("email not configured; email disabled")
	}

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	leadsModule := leads.NewModule(pool, eventBus, val, log)

	// Dispatcher logs every automated send on the lead's communication
	// timeline, so it shares the leads repository.
	dispatcher := notify.NewDispatcher(smsSender, emailSender, leadsModule.Repository(), log)

	// New leads get their welcome text off the request path; hot leads page
	// the owner the moment they land.
	leadAlerts := notify.NewLeadAlerts(dispatcher, cfg.GetAdminPhone(), log)
	leadAlerts.RegisterHandlers(eventBus)

	automationModule, err := automation.NewModule(ctx, pool, dispatcher, val, cfg, log)
	if err != nil {
		log.Error("failed to initialize automation module", "error", err)
		panic("failed to initialize automation module: " + err.Error())
	}

	authModule := auth.NewModule(pool, val, cfg)
	chatModule := chat.NewModule(ctx, leadsModule.Service(), val, cfg, log)

	modules := []apphttp.Module{
		authModule,
		leadsModule,
		automationModule,
		chatModule,
	}

	// The funnel keeps in-flight sessions in Redis; without it the classic
	// form and chat still work.
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; quote funnel disabled")
	} else {
		opts, err := redis.ParseURL(cfg.GetRedisURL())
		if err != nil {
			log.Error("failed to parse REDIS_URL", "error", err)
			panic("failed to parse REDIS_URL: " + err.Error())
		}
		redisClient := redis.NewClient(opts)
		defer redisClient.Close()
		modules = append(modules, funnel.NewModule(redisClient, leadsModule.Service(), val, cfg, log))
	}

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   db.NewPoolAdapter(pool),
		EventBus: eventBus,
		Modules:  modules,
	}

	engine := router.New(app)

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- engine.Run(cfg.HTTPAddr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
	case err := <-srvErr:
		if err != nil {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
