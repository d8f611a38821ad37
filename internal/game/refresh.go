package game

import (
	"context"
	"time"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"
)

// StartRefresher reloads s every interval until the returned scheduler is
// shut down. A zero interval returns a nil scheduler.
func StartRefresher(ctx context.Context, s *Service, interval time.Duration) (gocron.Scheduler, error) {
	if interval <= 0 {
		return nil, nil
	}

	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	_, err = sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			loadCtx, cancel := context.WithTimeout(ctx, interval)
			defer cancel()
			if err := s.Load(loadCtx); err != nil {
				s.logger.Warn("scheduled refresh failed", zap.Error(err))
				return
			}
			s.logger.Debug("scheduled refresh done")
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithName("refresh"),
	)
	if err != nil {
		sched.Shutdown()
		return nil, err
	}

	sched.Start()
	return sched, nil
}
