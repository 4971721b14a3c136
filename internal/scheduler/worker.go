package scheduler

import (
	"context"
	"fmt"

	"fieldvisits_backend/platform/config"
	"fieldvisits_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// MissedVisitMarker closes pending visits whose window has passed.
type MissedVisitMarker interface {
	MarkMissed(ctx context.Context, id uuid.UUID) (bool, error)
}

type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	marker MissedVisitMarker
	log    *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, marker MissedVisitMarker, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queueName(cfg): 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server: server,
		mux:    mux,
		marker: marker,
		log:    log,
	}

	mux.HandleFunc(TaskMissedVisitCheck, w.handleMissedVisitCheck)

	return w, nil
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}

func (w *Worker) handleMissedVisitCheck(ctx context.Context, task *asynq.Task) error {
	visitID, err := ParseMissedVisitCheckPayload(task)
	if err != nil {
		// a malformed payload never becomes valid
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}

	marked, err := w.marker.MarkMissed(ctx, visitID)
	if err != nil {
		return err
	}
	if marked {
		w.log.Info("visit marked as missed", "visitId", visitID)
	}
	return nil
}
