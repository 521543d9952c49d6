package timescheduler

import (
	"fmt"
	"time"

	"github.com/arkade-os/tgpay/internal/core/ports"
	"github.com/go-co-op/gocron"
	log "github.com/sirupsen/logrus"
)

type Option func(*service)

// WithWaitForSchedule delays the first run of every task by one interval.
func WithWaitForSchedule() Option {
	return func(s *service) {
		s.waitForSchedule = true
	}
}

type service struct {
	scheduler       *gocron.Scheduler
	waitForSchedule bool
}

func NewScheduler(opts ...Option) ports.SchedulerService {
	svc := &service{
		scheduler: gocron.NewScheduler(time.UTC),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

func (s *service) Start() {
	s.scheduler.StartAsync()
}

func (s *service) Stop() {
	s.scheduler.Stop()
}

func (s *service) ScheduleEvery(interval time.Duration, task func()) error {
	if interval <= 0 {
		return fmt.Errorf("interval must be positive")
	}

	job := s.scheduler.Every(interval).SingletonMode()
	if s.waitForSchedule {
		job = job.WaitForSchedule()
	}
	if _, err := job.Do(task); err != nil {
		return err
	}

	log.Debugf("scheduled task every %s", interval)
	return nil
}
