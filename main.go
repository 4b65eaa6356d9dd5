package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"

	"github.com/trattorialuna/restaurant-backend/database"
	"github.com/trattorialuna/restaurant-backend/internal/config"
	"github.com/trattorialuna/restaurant-backend/internal/conversation"
	"github.com/trattorialuna/restaurant-backend/internal/handlers"
	"github.com/trattorialuna/restaurant-backend/internal/jobs"
	"github.com/trattorialuna/restaurant-backend/internal/models"
	"github.com/trattorialuna/restaurant-backend/internal/notify"
	"github.com/trattorialuna/restaurant-backend/internal/routes"
	"github.com/trattorialuna/restaurant-backend/internal/services"
	"github.com/trattorialuna/restaurant-backend/internal/session"
	"github.com/trattorialuna/restaurant-backend/internal/storage"
)

func main() {
	// Load .env file for local development
	if err := godotenv.Load(".env"); err != nil {
		log.Println("⚠️  No .env file found - using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Invalid configuration:", err)
	}

	// Initialize storage
	var store storage.Store
	if cfg.UseMemoryStore {
		log.Println("⚠️  Using in-memory storage (not for production!)")
		store = storage.NewMemoryStore()
	} else {
		log.Println("📦 Connecting to PostgreSQL database...")
		if err := database.Connect(); err != nil {
			log.Fatal(err)
		}

		log.Println("🔄 Running database migrations...")
		if err := database.DB.AutoMigrate(&models.Order{}, &models.Counter{}); err != nil {
			log.Fatal("Failed to migrate database:", err)
		}

		store = storage.NewDatabaseStore(database.DB)
		log.Println("✅ Using PostgreSQL database storage")
	}

	// Initialize the outbound transport
	var notifier notify.Notifier
	twilioNotifier, err := notify.NewTwilioNotifier(cfg.CallTimeout)
	if err != nil {
		log.Printf("⚠️  Twilio not configured - outbound messages will be logged only: %v", err)
	} else {
		notifier = twilioNotifier
		log.Println("✅ Twilio notifier initialized")
	}

	// Session store for in-flight conversations
	var sessions session.Store
	if cfg.SessionBackend == "redis" {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.CallTimeout)
		redisStore, err := session.NewRedisStore(ctx, cfg.RedisAddr, cfg.SessionTTL)
		cancel()
		if err != nil {
			log.Fatal("Failed to initialize Redis session store:", err)
		}
		sessions = redisStore
		log.Println("✅ Using Redis session storage")
	} else {
		sessions = session.NewMemoryStore(cfg.SessionTTL)
		log.Println("✅ Using in-memory session storage")
	}

	// Wire services
	catalog := notify.NewCatalog(cfg.RestaurantName)
	orderService := services.NewOrderService(store, notifier, catalog, cfg.CallTimeout)
	engine := conversation.NewEngine(cfg, sessions, store)

	// Start the pre-pickup reminder sweep
	reminderJob := jobs.NewReminderJob(cfg, store, notifier, catalog)
	if notifier != nil {
		if err := reminderJob.Start(); err != nil {
			log.Fatal("Failed to start reminder sweep:", err)
		}
	} else {
		log.Println("⚠️  Reminder sweep disabled - no notifier configured")
	}

	// Create fiber app
	app := fiber.New(fiber.Config{
		AppName: "Trattoria Luna Backend v1.0.0",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))

	// Health endpoints
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"service": "Trattoria Luna Backend",
			"version": "1.0.0",
			"status":  "healthy",
			"storage": storageType(cfg),
			"whatsapp": fiber.Map{
				"configured": notifier != nil,
			},
		})
	})
	app.Get("/health", func(c *fiber.Ctx) error {
		status := "healthy"
		statusCode := fiber.StatusOK
		if !cfg.UseMemoryStore && database.DB != nil {
			sqlDB, err := database.DB.DB()
			if err != nil || sqlDB.Ping() != nil {
				status = "unhealthy"
				statusCode = fiber.StatusServiceUnavailable
			}
		}
		return c.Status(statusCode).JSON(fiber.Map{
			"status": status,
			"services": fiber.Map{
				"database": status == "healthy",
				"twilio":   notifier != nil,
			},
		})
	})

	whatsappHandler := handlers.NewWhatsAppHandler(engine, notifier)
	orderHandler := handlers.NewOrderHandler(orderService, cfg)
	routes.SetupRoutes(app, whatsappHandler, orderHandler)

	// Handle graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		log.Println("\n🛑 Gracefully shutting down...")
		reminderJob.Stop()
		_ = app.Shutdown()
	}()

	log.Println("========================================")
	log.Printf("🚀 %s backend starting on port %s", cfg.RestaurantName, cfg.Port)
	log.Printf("📊 Storage: %s", storageType(cfg))
	log.Printf("🕐 Business hours: %v", cfg.BusinessHours)
	log.Printf("⏰ Reminder lead: %s (sweep every %s)", cfg.ReminderLead, cfg.SweepInterval)
	log.Println("========================================")

	log.Fatal(app.Listen(":" + cfg.Port))
}

func storageType(cfg *config.Config) string {
	if cfg.UseMemoryStore {
		return "In-Memory (Testing)"
	}
	return "PostgreSQL Database"
}
