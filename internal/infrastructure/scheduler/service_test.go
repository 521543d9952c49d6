package scheduler_test

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/arkade-os/tgpay/internal/core/ports"
	timescheduler "github.com/arkade-os/tgpay/internal/infrastructure/scheduler/gocron"
	"github.com/stretchr/testify/require"
)

type service struct {
	name      string
	scheduler ports.SchedulerService
}

func TestScheduleEvery(t *testing.T) {
	t.Parallel()

	svcs := servicesToTest()

	for _, svc := range svcs {
		t.Run(svc.name, func(t *testing.T) {
			var calls atomic.Int32
			err := svc.scheduler.ScheduleEvery(100*time.Millisecond, func() {
				calls.Add(1)
			})
			require.NoError(t, err)

			svc.scheduler.Start()
			require.Eventually(t, func() bool {
				return calls.Load() >= 3
			}, 3*time.Second, 20*time.Millisecond)

			svc.scheduler.Stop()
			stoppedAt := calls.Load()
			time.Sleep(300 * time.Millisecond)
			require.LessOrEqual(t, calls.Load(), stoppedAt+1)
		})
	}
}

func TestScheduleEverySkipsOverlappingRuns(t *testing.T) {
	t.Parallel()

	scheduler := timescheduler.NewScheduler()
	var running, overlaps atomic.Int32
	err := scheduler.ScheduleEvery(50*time.Millisecond, func() {
		if running.Add(1) > 1 {
			overlaps.Add(1)
		}
		time.Sleep(200 * time.Millisecond)
		running.Add(-1)
	})
	require.NoError(t, err)

	scheduler.Start()
	time.Sleep(time.Second)
	scheduler.Stop()

	require.Zero(t, overlaps.Load())
}

func TestScheduleEveryInvalidInterval(t *testing.T) {
	scheduler := timescheduler.NewScheduler()
	require.Error(t, scheduler.ScheduleEvery(0, func() {}))
}

func servicesToTest() []service {
	return []service{
		{"gocron", timescheduler.NewScheduler()},
		{"gocron_wait_for_schedule", timescheduler.NewScheduler(timescheduler.WithWaitForSchedule())},
	}
}
