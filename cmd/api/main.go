package main

import (
	"log"
	"time"

	config "github.com/anjiri1684/tutor_booking/configs"
	"github.com/anjiri1684/tutor_booking/database"
	"github.com/anjiri1684/tutor_booking/events"
	"github.com/anjiri1684/tutor_booking/handlers"
	"github.com/anjiri1684/tutor_booking/jobs"
	"github.com/anjiri1684/tutor_booking/metrics"
	"github.com/anjiri1684/tutor_booking/payments"
	"github.com/anjiri1684/tutor_booking/routes"
	"github.com/anjiri1684/tutor_booking/services"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/robfig/cron/v3"
	"gorm.io/driver/postgres"
)

func main() {
	cfg, err := config.LoadEngineConfig()
	if err != nil {
		log.Fatalf("🔥 Failed to load engine config: %v", err)
	}

	db, err := database.Connect(postgres.Open(cfg.DatabaseURL))
	if err != nil {
		log.Fatalf("🔥 Failed to connect to database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("🔥 Failed to migrate database: %v", err)
	}
	log.Println("✅ Database connected and migrated")

	metrics.Register()
	metrics.Serve(cfg.MetricsAddr)

	var publisher events.Publisher = events.NoopPublisher{}
	if cfg.AMQPURL != "" {
		p, err := events.NewAMQPPublisher(cfg.AMQPURL, cfg.EventExchange)
		if err != nil {
			log.Fatalf("🔥 Failed to connect to AMQP: %v", err)
		}
		defer p.Close()
		publisher = p
		log.Println("✅ Booking event publisher connected")
	}

	gateway := payments.NewHTTPGateway(payments.HTTPGatewayConfig{
		BaseURL:  cfg.GatewayBaseURL,
		APIKey:   cfg.GatewayAPIKey,
		Name:     cfg.GatewayProvider,
		Attempts: cfg.CaptureAttempts,
		Delay:    cfg.CaptureDelay,
	})

	currency := services.NewCurrencyService(&services.ExchangeRateAPISource{APIKey: cfg.ExchangeRateAPIKey}, cfg.RatesCacheTTL)
	pricing := services.NewPricingService(db, currency)
	registry := services.NewSlotRegistry(db, cfg.HoldTTL)
	ledger := services.NewEnrollmentService(db)
	reservations := services.NewReservationService(db, registry, ledger, gateway, publisher)
	bookings := services.NewBookingService(db, pricing, registry, reservations, gateway)

	c := cron.New()
	c.AddFunc("* * * * *", jobs.ExpireStaleHolds(reservations))
	c.Start()
	log.Println("✅ Hold expiry sweep scheduled")

	app := fiber.New(fiber.Config{
		AppName:       "Tutor Booking Engine",
		CaseSensitive: true,
		StrictRouting: true,
		ReadTimeout:   15 * time.Second,
		WriteTimeout:  15 * time.Second,
		IdleTimeout:   60 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}

			log.Printf("[ERROR] %v | Path: %s | Method: %s", err, c.Path(), c.Method())
			return c.Status(code).JSON(fiber.Map{
				"status":  "error",
				"code":    code,
				"message": err.Error(),
			})
		},
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins:  "*",
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization",
		AllowMethods:  "GET, POST, PUT, PATCH, DELETE, OPTIONS",
		ExposeHeaders: "Content-Length, Authorization",
		MaxAge:        86400,
	}))

	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		TimeFormat: "2006-01-02 15:04:05",
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	routes.PublicRoutes(app, handlers.NewSlotHandler(db), handlers.NewCurrencyHandler(currency))
	routes.BookingRoutes(app, handlers.NewBookingHandler(bookings, reservations))
	routes.PaymentRoutes(app, handlers.NewPaymentHandler(db, reservations))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	log.Printf("✅ Server is running on %s", cfg.ListenAddr)
	if err := app.Listen(cfg.ListenAddr); err != nil {
		log.Fatalf("🔥 Server failed to start: %v", err)
	}
}
