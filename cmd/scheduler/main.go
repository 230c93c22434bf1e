package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/realnickp/BackyardBobbys-sub000/internal/automation"
	leadrepo "github.com/realnickp/BackyardBobbys-sub000/internal/leads/repository"
	"github.com/realnickp/BackyardBobbys-sub000/internal/notify"
	"github.com/realnickp/BackyardBobbys-sub000/internal/scheduler"
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
	log.Info("starting scheduler", "env", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

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

	var smsSender notify.SMSSender = notify.NoopSMSSender{}
	if twilio := notify.NewTwilioSender(cfg, log); twilio != nil {
		smsSender = twilio
	}

	var emailSender notify.EmailSender = notify.NoopEmailSender{}
	if cfg.GetEmailEnabled() {
		if brevo := notify.NewBrevoSender(cfg, log); brevo != nil {
			emailSender = brevo
		} else if smtp := notify.NewSMTPSender(cfg, log); smtp != nil {
			emailSender = smtp
		}
	}

	val := validator.New()

	dispatcher := notify.NewDispatcher(smsSender, emailSender, leadrepo.New(pool), log)

	automationModule, err := automation.NewModule(ctx, pool, dispatcher, val, cfg, log)
	if err != nil {
		log.Error("failed to initialize automation module", "error", err)
		panic("failed to initialize automation module: " + err.Error())
	}

	client, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize scheduler client", "error", err)
		panic("failed to initialize scheduler client: " + err.Error())
	}
	defer func() { _ = client.Close() }()

	ticker := scheduler.NewAutomationDispatcher(client, cfg, log)
	go ticker.Run(ctx)

	worker, err := scheduler.NewWorker(cfg, automationModule.Evaluator(), log)
	if err != nil {
		log.Error("failed to initialize scheduler worker", "error", err)
		panic("failed to initialize scheduler worker: " + err.Error())
	}

	go func() {
		<-ctx.Done()
		log.Info("shutdown signal received, stopping worker")
		worker.Shutdown()
	}()

	if err := worker.Run(); err != nil {
		log.Error("scheduler worker stopped", "error", err)
		panic("scheduler worker stopped: " + err.Error())
	}
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return errors.New(name + ": invalid retry attempts")
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
