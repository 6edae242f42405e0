package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront/config"
	"storefront/database"
	"storefront/events"
	"storefront/gateway"
	"storefront/handler"
	"storefront/helper"
	"storefront/locker"
	"storefront/middleware"
	"storefront/model"
	"storefront/repository"
	"storefront/repository/memstore"
	"storefront/router"
	"storefront/service"
	"storefront/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
)

func main() {
	settings, err := config.Load()
	if err != nil {
		log.Fatalw("invalid configuration", "error", err)
	}

	store, err := openStore(settings)
	if err != nil {
		log.Fatalw("open store failed", "driver", settings.StoreDriver, "error", err)
	}

	var (
		locks      locker.Locker = locker.NewKeyedMutex()
		publishers events.Multi
		rdb        *redis.Client
	)
	if settings.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: settings.RedisAddr})
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		err := rdb.Ping(ctx).Err()
		cancel()
		if err != nil {
			log.Fatalw("redis unreachable", "addr", settings.RedisAddr, "error", err)
		}
		defer rdb.Close()
		locks = locker.NewRedisLocker(rdb, 10*time.Second)
		publishers = append(publishers, events.NewRedisPublisher(rdb))
	} else {
		log.Warn("REDIS_ADDR not set: using in-process locks, single replica only")
	}
	if settings.RabbitMQURL != "" {
		rabbit, err := events.NewRabbitPublisher(settings.RabbitMQURL)
		if err != nil {
			log.Fatalw("rabbitmq unreachable", "error", err)
		}
		defer rabbit.Close()
		publishers = append(publishers, rabbit)
	}
	var publisher events.Publisher = events.Nop{}
	if len(publishers) > 0 {
		publisher = publishers
	}

	vnpay := gateway.NewVNPay(model.VNPayConfig{
		TmnCode:    settings.VNPay.TmnCode,
		HashSecret: settings.VNPay.HashSecret,
		BaseURL:    settings.VNPay.BaseURL,
		ReturnURL:  settings.VNPay.ReturnURL,
		Locale:     settings.VNPay.Locale,
	})
	mailer := utils.NewMailer(settings)
	pricing := helper.NewPricingEngine(settings.ShippingFee)

	h := &handler.Handler{
		Cart:        service.NewCartService(store, locks, pricing),
		Orders:      service.NewOrderService(store, locks, pricing, publisher, mailer),
		Payments:    service.NewPaymentService(store, vnpay),
		Reconcile:   service.NewReconcileService(store, vnpay, locks, publisher, mailer, settings.IPNTimeout),
		FrontendURL: settings.FrontendURL,
		Redis:       rdb,
	}

	if err := helper.StartCartCleanupScheduler(h.Cart.AbandonIdle, settings.CartIdleDays); err != nil {
		log.Fatalw("start cart cleanup scheduler", "error", err)
	}
	defer helper.StopCartCleanupScheduler()
	if err := helper.StartPaymentSweepScheduler(h.Orders.FlagStalePayments, settings.PaymentReviewAfter); err != nil {
		log.Fatalw("start payment sweep scheduler", "error", err)
	}
	defer helper.StopPaymentSweepScheduler()

	app := fiber.New(fiber.Config{
		BodyLimit: 1 * 1024 * 1024,
	})
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.RequestContext())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     withDefault(settings.FrontendURL, "http://localhost:5173"),
		AllowMethods:     "GET,POST,PUT,DELETE,PATCH,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Authorization, Accept, Idempotency-Key",
		AllowCredentials: true,
		ExposeHeaders:    "Set-Cookie",
		MaxAge:           600,
	}))

	router.SetupRoutes(app, h, []byte(settings.JWTSecret))

	go func() {
		log.Infow("storefront listening", "port", settings.Port, "store", settings.StoreDriver, "ipn_url", settings.VNPay.IPNURL)
		if err := app.Listen(":" + settings.Port); err != nil {
			log.Errorw("server stopped", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Errorw("shutdown", "error", err)
	}
}

func openStore(s config.Settings) (repository.Store, error) {
	if s.StoreDriver == config.StoreDriverMemory {
		store := memstore.New()
		if err := database.SeedMemory(store); err != nil {
			return nil, err
		}
		log.Warn("STORE_DRIVER=memory: data is lost on restart")
		return store, nil
	}

	db, err := database.ConnectDB(s)
	if err != nil {
		return nil, err
	}
	return repository.NewGormStore(db), nil
}

func withDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
