package queue

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"

	"ecommerce-backend/internal/config"
	"ecommerce-backend/internal/shared"
	"ecommerce-backend/pkg/logger"
)

type Scheduler struct {
	scheduler *asynq.Scheduler
	jobConfig config.JobConfig
}

func NewScheduler(redisAddress string, jobConfig config.JobConfig) *Scheduler {
	scheduler := asynq.NewScheduler(
		asynq.RedisClientOpt{Addr: redisAddress},
		&asynq.SchedulerOpts{
			Location: time.UTC,
			LogLevel: asynq.InfoLevel,
		},
	)

	return &Scheduler{
		scheduler: scheduler,
		jobConfig: jobConfig,
	}
}

// RegisterJobs registers every cron-scheduled task.
func (s *Scheduler) RegisterJobs() error {
	return s.registerReconcileOfferStatusesJob()
}

// ================================================
// JOB 1: Reconcile Offer Statuses (default: every 15 minutes)
// ================================================
// The sweep is a housekeeping optimization: read paths always check
// validity windows live, so the cadence only affects how quickly the
// stored status column catches up. Idempotent, safe to run anytime.
func (s *Scheduler) registerReconcileOfferStatusesJob() error {
	payload, err := json.Marshal(shared.ReconcileOfferStatusesPayload{})
	if err != nil {
		return err
	}

	task := asynq.NewTask(shared.TypeReconcileOfferStatuses, payload)

	_, err = s.scheduler.Register(
		s.jobConfig.ReconcileCronSpec,
		task,
		asynq.Queue(shared.QueueLow),
		asynq.MaxRetry(2),
		asynq.Timeout(5*time.Minute),
	)

	if err != nil {
		logger.Error("Failed to register ReconcileOfferStatuses job", err)
		return err
	}

	logger.Info("✓ Registered ReconcileOfferStatuses", map[string]interface{}{
		"cron": s.jobConfig.ReconcileCronSpec,
	})
	return nil
}

func (s *Scheduler) Start() error {
	return s.scheduler.Run()
}

func (s *Scheduler) Shutdown() {
	s.scheduler.Shutdown()
}
