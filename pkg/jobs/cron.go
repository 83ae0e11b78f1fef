package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jordanlanch/salescrm/pkg/logger"
	"github.com/jordanlanch/salescrm/pkg/models"
	"github.com/jordanlanch/salescrm/pkg/store"
	"github.com/robfig/cron/v3"
)

const (
	DemoResetJob     = "demo_reset"
	OverdueDigestJob = "overdue_digest"
)

// Recorder counts job executions.
type Recorder interface {
	RecordJobRun(job string, err error)
}

// Notifier delivers an owner's overdue activities.
type Notifier interface {
	NotifyOverdue(ctx context.Context, ownerID string, overdue []models.Activity) error
}

// Job is one scheduled task.
type Job struct {
	Name     string
	Schedule string
	Timeout  time.Duration
	Run      func(ctx context.Context) error
}

// Schedules configures the built-in jobs. An empty schedule disables a job.
type Schedules struct {
	DemoReset string
	Digest    string

	// Demo is reset to the bundled dataset for DemoOwner. Nil outside demo mode.
	Demo      *store.Memory
	DemoOwner string

	DigestOwners []string
	// Notifier receives each digest. Nil only logs them.
	Notifier Notifier
}

// CronManager manages scheduled jobs
type CronManager struct {
	cron     *cron.Cron
	monitor  *Monitor
	recorder Recorder
	logger   logger.Logger
	jobs     map[string]Job
}

// NewCronManager creates a new cron manager. recorder may be nil.
func NewCronManager(monitor *Monitor, recorder Recorder, log logger.Logger) *CronManager {
	if log == nil {
		log = logger.Discard()
	}

	return &CronManager{
		cron:     cron.New(),
		monitor:  monitor,
		recorder: recorder,
		logger:   log.With("component", "jobs"),
		jobs:     make(map[string]Job),
	}
}

// Add registers job on its schedule.
func (cm *CronManager) Add(job Job) error {
	if _, exists := cm.jobs[job.Name]; exists {
		return fmt.Errorf("job %q already registered", job.Name)
	}
	if job.Timeout <= 0 {
		job.Timeout = time.Minute
	}

	if _, err := cm.cron.AddFunc(job.Schedule, func() { _ = cm.run(context.Background(), job) }); err != nil {
		return fmt.Errorf("invalid schedule for %s: %w", job.Name, err)
	}
	cm.jobs[job.Name] = job
	return nil
}

// SetupJobs configures the built-in jobs
func (cm *CronManager) SetupJobs(s Schedules) error {
	cm.logger.Info("Setting up cron jobs...")

	if s.Demo != nil && s.DemoReset != "" {
		err := cm.Add(Job{
			Name:     DemoResetJob,
			Schedule: s.DemoReset,
			Timeout:  30 * time.Second,
			Run: func(ctx context.Context) error {
				return cm.monitor.ResetDemo(ctx, s.Demo, s.DemoOwner)
			},
		})
		if err != nil {
			return err
		}
	}

	if s.Digest != "" && len(s.DigestOwners) > 0 {
		err := cm.Add(Job{
			Name:     OverdueDigestJob,
			Schedule: s.Digest,
			Timeout:  5 * time.Minute,
			Run: func(ctx context.Context) error {
				digests, err := cm.monitor.OverdueDigest(ctx, s.DigestOwners)
				if err != nil {
					return err
				}
				var errs []error
				for _, d := range digests {
					cm.logger.Info("📋 Overdue activities", "owner", d.OwnerID, "count", len(d.Overdue))
					if s.Notifier == nil {
						continue
					}
					if err := s.Notifier.NotifyOverdue(ctx, d.OwnerID, d.Overdue); err != nil {
						errs = append(errs, fmt.Errorf("notify %s: %w", d.OwnerID, err))
					}
				}
				return errors.Join(errs...)
			},
		})
		if err != nil {
			return err
		}
	}

	cm.logger.Info("✅ Cron jobs configured successfully", "jobs", len(cm.jobs))
	return nil
}

// Jobs returns the names of the registered jobs.
func (cm *CronManager) Jobs() []string {
	names := make([]string, 0, len(cm.jobs))
	for name := range cm.jobs {
		names = append(names, name)
	}
	return names
}

// RunNow executes a registered job immediately, outside its schedule.
func (cm *CronManager) RunNow(ctx context.Context, name string) error {
	job, ok := cm.jobs[name]
	if !ok {
		return fmt.Errorf("unknown job %q", name)
	}
	return cm.run(ctx, job)
}

func (cm *CronManager) run(ctx context.Context, job Job) error {
	cm.logger.Info("🕐 Running job", "job", job.Name)
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, job.Timeout)
	defer cancel()

	err := job.Run(ctx)
	if cm.recorder != nil {
		cm.recorder.RecordJobRun(job.Name, err)
	}
	if err != nil {
		cm.logger.Error("❌ Job failed", "job", job.Name, "error", err)
		return err
	}

	cm.logger.Info("✅ Job completed", "job", job.Name, "duration", time.Since(start))
	return nil
}

// Start starts the cron scheduler
func (cm *CronManager) Start() {
	cm.logger.Info("🚀 Starting cron scheduler...")
	cm.cron.Start()
}

// Stop stops the cron scheduler and waits for running jobs to finish.
func (cm *CronManager) Stop() {
	cm.logger.Info("🛑 Stopping cron scheduler...")
	<-cm.cron.Stop().Done()
}
