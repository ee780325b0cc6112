package alert

import (
	"context"
	"log"

	"github.com/adhocore/gronx/pkg/tasker"
)

// RunScheduler runs the alert scan once immediately and then on the
// configured cron expression until ctx is cancelled.
func RunScheduler(ctx context.Context, svc *Service) {
	if err := svc.Run(ctx); err != nil {
		log.Printf("Initial alert scan failed: %v", err)
	}

	taskr := tasker.New(tasker.Option{
		Tz: svc.cfg.Poller.Timezone,
	}).WithContext(ctx)

	taskr.Task(svc.cfg.Alert.Cron, func(ctx context.Context) (int, error) {
		if err := svc.Run(ctx); err != nil {
			log.Printf("Scheduled alert scan failed: %v", err)
			return 1, err
		}
		return 0, nil
	}, false)

	taskr.Run()
}
