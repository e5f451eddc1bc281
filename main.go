package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"nightlife-platform/handlers"
	"nightlife-platform/middleware"
	"nightlife-platform/models"
	"nightlife-platform/services"
	"nightlife-platform/utils"
	"nightlife-platform/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}

	app := fiber.New(fiber.Config{
		BodyLimit: 25 * 1024 * 1024, // flyers and cover photos
	})

	// 🔐 GLOBAL: Only Gateway requests allowed — no exceptions
	app.Use(middleware.GatewayAuthMiddleware())

	allowedOriginsEnv := os.Getenv("ALLOWED_ORIGINS")
	if allowedOriginsEnv == "" {
		log.Println("⚠️  ALLOWED_ORIGINS environment variable not set, using default: http://localhost:3000")
		allowedOriginsEnv = "http://localhost:3000"
	}
	allowedOriginsList := strings.Split(allowedOriginsEnv, ",")
	for i, origin := range allowedOriginsList {
		allowedOriginsList[i] = strings.TrimSpace(origin)
	}
	allowedOriginsString := strings.Join(allowedOriginsList, ",")

	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOriginsString,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH,HEAD",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, User-Agent, Cache-Control, X-User-ID, X-User-Roles, X-Service-Token",
		ExposeHeaders:    "Content-Length, Content-Type, Authorization, X-Request-ID",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}

	// TranslateError lets unique-constraint violations surface as
	// gorm.ErrDuplicatedKey — the referral ledger's idempotency path and the
	// push endpoint re-registration both depend on it.
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	if err := db.AutoMigrate(
		&models.UserProfile{},
		&models.Follow{},
		&models.Venue{},
		&models.Promotion{},
		&models.Event{},
		&models.Ticket{},
		&models.VIPReservation{},
		&models.ReferralEvent{},
		&models.PromoterStats{},
		&models.PushSubscription{},
	); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	if os.Getenv("CLOUDFLARE_ACCOUNT_ID") != "" {
		if err := utils.InitR2(); err != nil {
			log.Fatal("failed to initialize R2 client:", err)
		}
	} else {
		log.Println("⚠️  R2 not configured — uploads stored locally under ./uploads")
	}
	if err := utils.EnsureUploadDir(); err != nil {
		log.Fatal("failed to ensure upload dir:", err)
	}

	paymentServiceURL := os.Getenv("PAYMENT_SERVICE_URL")
	if paymentServiceURL == "" {
		log.Fatal("PAYMENT_SERVICE_URL environment variable not set")
	}
	paymentServiceToken := os.Getenv("PAYMENT_SERVICE_TOKEN")
	emailServiceURL := os.Getenv("EMAIL_SERVICE_URL")
	if emailServiceURL == "" {
		log.Fatal("EMAIL_SERVICE_URL environment variable not set")
	}
	emailServiceToken := os.Getenv("EMAIL_SERVICE_TOKEN")

	paymentClient := services.NewPaymentServiceClient(paymentServiceURL, paymentServiceToken)
	emailClient := services.NewEmailServiceClient(emailServiceURL, emailServiceToken)

	referralService := services.NewReferralService(db)
	cancellationService := services.NewCancellationService(db, paymentClient, emailClient)
	venueService := services.NewVenueService(db)
	eventService := services.NewEventService(db)
	ticketService := services.NewTicketService(db, referralService)
	socialService := services.NewSocialService(db)
	pushService := services.NewPushService(db)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reminderWorker := workers.NewReminderWorker(db, pushService)
	go reminderWorker.Start(ctx, 10*time.Minute)

	eventService.StartPublishScheduler()

	handlers.SetupVenueRoutes(app, venueService, socialService)
	handlers.SetupEventRoutes(app, eventService, cancellationService)
	handlers.SetupTicketRoutes(app, ticketService)
	handlers.SetupReferralRoutes(app, referralService)
	handlers.SetupPushRoutes(app, pushService)

	app.Static("/uploads", "./uploads")

	go func() {
		if err := app.Listen(":5400"); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Println("✅ Server running on http://localhost:5400")
	log.Println("✅ Event publish scheduler running (every 1m)")
	log.Println("✅ Event reminder worker running (every 10m)")
	log.Println("✅ GatewayAuthMiddleware enforced globally — all requests must come from Gateway")
	log.Printf("✅ CORS configured for origins: %s", allowedOriginsString)

	<-ctx.Done()
	log.Println("Shutting down server...")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
	log.Println("Server stopped.")
}
