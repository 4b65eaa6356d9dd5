package routes

import (
	"log"
	"os"

	"github.com/gofiber/fiber/v2"

	"github.com/trattorialuna/restaurant-backend/internal/handlers"
	"github.com/trattorialuna/restaurant-backend/internal/middleware"
)

// SetupRoutes configures all API routes.
func SetupRoutes(app *fiber.App, whatsapp *handlers.WhatsAppHandler, orders *handlers.OrderHandler) {
	// Administrative surface
	api := app.Group("/api")
	group := api.Group("/orders")
	group.Get("/", orders.List)
	group.Post("/", orders.Create)
	group.Get("/stats", orders.Stats)
	group.Get("/:id", orders.Get)
	group.Put("/:id", orders.Update)
	group.Delete("/:id", orders.Delete)

	// WhatsApp webhook; signature validation is skipped in development so
	// tunneled requests get through.
	webhooks := app.Group("/webhook")
	if os.Getenv("ENVIRONMENT") == "development" || os.Getenv("DISABLE_WEBHOOK_VALIDATION") == "true" {
		webhooks.Post("/whatsapp", whatsapp.HandleWebhook)
		log.Println("⚠️  WhatsApp webhook validation DISABLED")
	} else {
		webhooks.Post("/whatsapp", middleware.ValidateTwilioSignature(), whatsapp.HandleWebhook)
	}

	// Development-only test endpoint
	app.Post("/test/whatsapp", whatsapp.HandleTestWebhook)
}
