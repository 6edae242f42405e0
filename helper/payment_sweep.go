package helper

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/robfig/cron/v3"
)

// FlagStaleFunc đánh dấu review các đơn chuyển khoản chưa có IPN sau olderThan
type FlagStaleFunc func(ctx context.Context, olderThan time.Duration) (int, error)

var scheduler *cron.Cron

func StartPaymentSweepScheduler(flag FlagStaleFunc, olderThan time.Duration) error {
	scheduler = cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cron.DefaultLogger),
	))

	// Chạy mỗi 15 phút
	_, err := scheduler.AddFunc("*/15 * * * *", func() {
		sweepStalePayments(flag, olderThan)
	})
	if err != nil {
		return err
	}

	scheduler.Start()
	log.Infow("payment sweep scheduler started", "every", "15m", "older_than", olderThan.String())
	return nil
}

func sweepStalePayments(flag FlagStaleFunc, olderThan time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	n, err := flag(ctx, olderThan)
	if err != nil {
		log.Errorw("[CRON] stale payment sweep failed", "error", err)
		return
	}
	if n > 0 {
		log.Warnw("[CRON] orders flagged for payment review", "count", n)
	}
}

// Dừng scheduler khi tắt server
func StopPaymentSweepScheduler() {
	if scheduler != nil {
		<-scheduler.Stop().Done()
	}
}
