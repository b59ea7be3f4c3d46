package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"
)

type Job func(ctx context.Context) error

type namedJob struct {
	name string
	run  Job
}

// Ticker runs registered background jobs on one shared interval. Job errors
// are logged and do not stop the loop.
type Ticker struct {
	Logger   *zap.Logger
	Interval time.Duration

	jobs []namedJob
}

func NewTicker(logger *zap.Logger, interval time.Duration) *Ticker {
	return &Ticker{Logger: logger, Interval: interval}
}

func (t *Ticker) Register(name string, job Job) {
	t.jobs = append(t.jobs, namedJob{name: name, run: job})
}

func (t *Ticker) Run(ctx context.Context) {
	ticker := time.NewTicker(t.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, job := range t.jobs {
				if err := job.run(ctx); err != nil {
					t.Logger.Error("background job failed",
						zap.String("job", job.name), zap.Error(err))
				}
			}
		}
	}
}
