package scheduler

import (
	"context"
	"time"

	"github.com/realnickp/BackyardBobbys-sub000/platform/config"
	"github.com/realnickp/BackyardBobbys-sub000/platform/logger"
)

// AutomationDispatcher enqueues an evaluator pass on a fixed interval. It is
// the only clock in the system: the worker just processes whatever lands on
// the queue, and the HTTP trigger exists for out-of-band runs.
type AutomationDispatcher struct {
	client   *Client
	interval time.Duration
	log      *logger.Logger
}

func NewAutomationDispatcher(client *Client, cfg config.AutomationConfig, log *logger.Logger) *AutomationDispatcher {
	interval := cfg.GetAutomationInterval()
	if interval <= 0 {
		interval = time.Hour
	}
	return &AutomationDispatcher{
		client:   client,
		interval: interval,
		log:      log,
	}
}

// Run blocks until ctx is cancelled. The first pass is enqueued immediately
// so a restart never stretches the gap between runs past one interval.
func (d *AutomationDispatcher) Run(ctx context.Context) {
	if d == nil || d.client == nil {
		return
	}

	if err := d.client.EnqueueAutomationsRun(ctx, "startup"); err != nil {
		d.log.Warn("automation enqueue failed", "error", err)
	}

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if err := d.client.EnqueueAutomationsRun(ctx, "interval"); err != nil {
			d.log.Warn("automation enqueue failed", "error", err)
		}
	}
}
