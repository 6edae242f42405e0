package helper

import (
	"context"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/gofiber/fiber/v2/log"
)

// AbandonIdleFunc bỏ các giỏ không hoạt động lâu hơn idleFor, trả về số giỏ
type AbandonIdleFunc func(ctx context.Context, idleFor time.Duration) (int, error)

var cartScheduler gocron.Scheduler

func runCartCleanup(abandon AbandonIdleFunc, idleFor time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	n, err := abandon(ctx, idleFor)
	if err != nil {
		log.Errorw("[CRON] abandon idle carts failed", "error", err)
		return
	}
	if n > 0 {
		log.Infow("[CRON] abandoned idle carts", "count", n, "idle_for", idleFor.String())
	}
}

// StartCartCleanupScheduler chạy mỗi ngày lúc 00:10 ICT
func StartCartCleanupScheduler(abandon AbandonIdleFunc, idleDays int) error {
	s, err := gocron.NewScheduler(
		gocron.WithLocation(time.FixedZone("ICT", 7*3600)),
	)
	if err != nil {
		return err
	}

	idleFor := time.Duration(idleDays) * 24 * time.Hour
	_, err = s.NewJob(
		gocron.DailyJob(
			1,
			gocron.NewAtTimes(
				gocron.NewAtTime(0, 10, 0),
			),
		),
		gocron.NewTask(runCartCleanup, abandon, idleFor),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return err
	}

	cartScheduler = s
	s.Start()
	log.Infow("cart cleanup scheduler started", "at", "00:10 ICT", "idle_days", idleDays)
	return nil
}

func StopCartCleanupScheduler() {
	if cartScheduler != nil {
		if err := cartScheduler.Shutdown(); err != nil {
			log.Warnw("cart cleanup scheduler shutdown", "error", err)
		}
	}
}
