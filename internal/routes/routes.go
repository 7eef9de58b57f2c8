package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jidokhae/jidokhae-backend/internal/handlers"
	"github.com/jidokhae/jidokhae-backend/internal/middleware"
	"github.com/jidokhae/jidokhae-backend/internal/services"
	"github.com/jidokhae/jidokhae-backend/internal/storage"
)

// SetupRoutes configures all API routes
func SetupRoutes(
	app *fiber.App,
	store storage.Store,
	otpService *services.OTPService,
	waitlistService *services.WaitlistService,
	registrationService *services.RegistrationService,
	reminderService *services.ReminderService,
) {
	healthHandler := handlers.NewHealthHandler("1.0.0")
	authHandler := handlers.NewAuthHandler(store, otpService)
	meetingHandler := handlers.NewMeetingHandler(store)
	registrationHandler := handlers.NewRegistrationHandler(registrationService)
	waitlistHandler := handlers.NewWaitlistHandler(waitlistService)
	cronHandler := handlers.NewCronHandler(waitlistService, reminderService)
	adminHandler := handlers.NewAdminHandler(store, registrationService)

	app.Get("/", healthHandler.Info)

	api := app.Group("/api")

	// Phone verification
	auth := api.Group("/auth/phone")
	auth.Post("/send-otp", authHandler.SendOTP)
	auth.Post("/verify-otp", authHandler.VerifyOTP)

	// Public meeting browsing
	meetings := api.Group("/meetings")
	meetings.Get("/", meetingHandler.List)
	meetings.Get("/:id", meetingHandler.Get)

	// Member actions
	registrations := api.Group("/registrations", middleware.RequireUser())
	registrations.Post("/", registrationHandler.Create)
	registrations.Post("/cancel", registrationHandler.Cancel)

	waitlists := api.Group("/waitlists", middleware.RequireUser())
	waitlists.Post("/register", waitlistHandler.Register)
	waitlists.Post("/cancel", waitlistHandler.Cancel)

	// Periodic sweeps, invoked by the external scheduler
	cron := api.Group("/cron", middleware.RequireCronSecret())
	cron.Get("/waitlist", cronHandler.Waitlist)
	cron.Get("/reminder", cronHandler.Reminder)
	cron.Get("/auto-complete", cronHandler.AutoComplete)

	// Admin
	admin := app.Group("/admin", middleware.RequireUser(), middleware.RequireAdmin())
	admin.Get("/transfers", adminHandler.ListPendingTransfers)
	admin.Post("/transfers/:id/confirm", adminHandler.ConfirmTransfer)
	admin.Post("/meetings", adminHandler.CreateMeeting)
	admin.Put("/meetings/:id", adminHandler.UpdateMeeting)
	admin.Get("/notifications", adminHandler.ListNotificationLogs)
}
