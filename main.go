package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"

	"github.com/jidokhae/jidokhae-backend/database"
	"github.com/jidokhae/jidokhae-backend/internal/jobs"
	"github.com/jidokhae/jidokhae-backend/internal/models"
	"github.com/jidokhae/jidokhae-backend/internal/queue"
	"github.com/jidokhae/jidokhae-backend/internal/routes"
	"github.com/jidokhae/jidokhae-backend/internal/services"
	"github.com/jidokhae/jidokhae-backend/internal/storage"
)

func main() {
	// Load .env file for local development
	if os.Getenv("INSTANCE_CONNECTION_NAME") == "" {
		if err := godotenv.Load(".env"); err != nil {
			log.Println("No .env file found - using environment variables")
		}
	}

	if os.Getenv("JWT_SECRET") == "" {
		log.Fatal("JWT_SECRET must be set")
	}

	// Initialize storage
	var store storage.Store

	if os.Getenv("USE_MEMORY_STORE") == "true" {
		log.Println("Using in-memory storage (not for production!)")
		store = storage.NewMemoryStore()
	} else {
		log.Println("Connecting to PostgreSQL database...")
		database.Connect()

		log.Println("Running database migrations...")
		err := database.DB.AutoMigrate(
			&models.User{},
			&models.Meeting{},
			&models.Registration{},
			&models.WaitlistEntry{},
			&models.PhoneOTP{},
			&models.NotificationLog{},
		)
		if err != nil {
			log.Fatal("Failed to migrate database:", err)
		}

		store = storage.NewDatabaseStore(database.DB)
		log.Println("Using PostgreSQL database storage")
	}
	storage.SetStore(store)

	// SMS sender: Twilio when configured, mock otherwise
	var sms services.SMSSender
	twilioService, err := services.NewTwilioService()
	if err != nil {
		log.Printf("Twilio not configured (%v) - using mock SMS sender", err)
		sms = services.MockSMSSender{}
	} else {
		sms = twilioService
		log.Println("Twilio service initialized")
	}

	// Optional event publishing
	var publisher *queue.Publisher
	if amqpURL := os.Getenv("AMQP_URL"); amqpURL != "" {
		publisher, err = queue.NewPublisher(amqpURL)
		if err != nil {
			log.Fatal("Failed to connect to RabbitMQ:", err)
		}
		defer publisher.Close()
		log.Println("RabbitMQ publisher initialized")
	}

	// Initialize services
	notifier := services.NewNotificationService(sms, store)
	otpService := services.NewOTPService(store, sms)
	waitlistService := services.NewWaitlistService(store, notifier, publisher)
	notifyOnCancel := os.Getenv("WAITLIST_NOTIFY_ON_CANCEL") != "false"
	registrationService := services.NewRegistrationService(store, notifier, waitlistService, publisher, notifyOnCancel)
	reminderService := services.NewReminderService(store, notifier)

	// In-process sweeps for deployments without an external cron trigger
	var sweepJob *jobs.SweepJob
	if os.Getenv("RUN_INTERNAL_JOBS") == "true" {
		sweepJob = jobs.NewSweepJob(waitlistService, reminderService)
		sweepJob.Start()
	}

	// Create fiber app
	app := fiber.New(fiber.Config{
		AppName: "Jidokhae Backend v1.0.0",
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

	// Middleware
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))

	// Health check endpoint with database status
	app.Get("/health", func(c *fiber.Ctx) error {
		status := "healthy"
		statusCode := 200

		if os.Getenv("USE_MEMORY_STORE") != "true" && database.DB != nil {
			sqlDB, err := database.DB.DB()
			if err != nil || sqlDB.Ping() != nil {
				status = "unhealthy"
				statusCode = 503
			}
		}

		return c.Status(statusCode).JSON(fiber.Map{
			"status": status,
			"services": fiber.Map{
				"database": status == "healthy",
				"sms":      twilioService != nil,
			},
		})
	})

	routes.SetupRoutes(app, store, otpService, waitlistService, registrationService, reminderService)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	// Handle graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		log.Println("Gracefully shutting down...")
		if sweepJob != nil {
			sweepJob.Stop()
		}
		_ = app.Shutdown()
	}()

	log.Printf("Jidokhae Backend starting on port %s", port)
	log.Fatal(app.Listen(":" + port))
}
