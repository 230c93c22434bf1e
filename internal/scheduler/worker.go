package scheduler

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/realnickp/BackyardBobbys-sub000/internal/automation/evaluator"
	"github.com/realnickp/BackyardBobbys-sub000/platform/config"
	"github.com/realnickp/BackyardBobbys-sub000/platform/logger"
)

type Worker struct {
	server    *asynq.Server
	mux       *asynq.ServeMux
	evaluator *evaluator.Evaluator
	log       *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, eval *evaluator.Evaluator, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server:    server,
		mux:       mux,
		evaluator: eval,
		log:       log,
	}

	mux.HandleFunc(TaskAutomationsRun, w.handleAutomationsRun)

	return w, nil
}

func (w *Worker) handleAutomationsRun(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseAutomationsRunPayload(task)
	if err != nil {
		return err
	}

	summary, err := w.evaluator.Run(ctx)
	if err != nil {
		w.log.Error("automation run failed", "triggeredBy", payload.TriggeredBy, "error", err)
		return err
	}

	for _, rule := range summary.Rules {
		if rule.Active {
			w.log.Info("automation rule evaluated",
				"rule", rule.Rule,
				"candidates", rule.Candidates,
				"sent", rule.Sent,
				"failed", rule.Failed,
				"skipped", rule.Skipped,
			)
		}
	}
	return nil
}

// Run blocks until the server stops.
func (w *Worker) Run() error {
	return w.server.Run(w.mux)
}

func (w *Worker) Shutdown() {
	w.server.Shutdown()
}
