package handlers

import (
	"context"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/trattorialuna/restaurant-backend/internal/conversation"
	"github.com/trattorialuna/restaurant-backend/internal/notify"
)

const retryText = "❌ Ups, algo ha fallado. Inténtalo de nuevo en un momento."

// WhatsAppHandler handles the Twilio WhatsApp webhook.
type WhatsAppHandler struct {
	engine   *conversation.Engine
	notifier notify.Notifier
}

// NewWhatsAppHandler creates a new WhatsApp handler. notifier may be nil
// when Twilio is not configured; replies are then only logged.
func NewWhatsAppHandler(engine *conversation.Engine, notifier notify.Notifier) *WhatsAppHandler {
	return &WhatsAppHandler{
		engine:   engine,
		notifier: notifier,
	}
}

// TwilioWebhookPayload represents an incoming WhatsApp message from Twilio.
type TwilioWebhookPayload struct {
	MessageSid string `form:"MessageSid"`
	AccountSid string `form:"AccountSid"`
	From       string `form:"From"` // "whatsapp:+34911222333"
	To         string `form:"To"`
	Body       string `form:"Body"`
	NumMedia   string `form:"NumMedia"`
}

// HandleWebhook processes one incoming WhatsApp message and sends the
// engine's reply back through the notifier.
func (h *WhatsAppHandler) HandleWebhook(c *fiber.Ctx) error {
	var payload TwilioWebhookPayload
	if err := c.BodyParser(&payload); err != nil {
		log.Printf("Error parsing webhook: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid webhook payload",
		})
	}

	// Status callbacks and media-only events carry no body.
	if payload.Body == "" || payload.From == "" {
		return c.SendStatus(fiber.StatusOK)
	}

	from := strings.TrimPrefix(payload.From, "whatsapp:")
	log.Printf("📱 WhatsApp message from %s: %s", from, payload.Body)

	reply, err := h.engine.HandleMessage(c.Context(), from, payload.Body)
	if err != nil {
		log.Printf("Error processing message from %s: %v", from, err)
		reply = retryText
	}

	if h.notifier != nil && reply != "" {
		if err := h.notifier.Send(context.Background(), from, reply); err != nil {
			log.Printf("❌ Failed to send WhatsApp reply to %s: %v", from, err)
		}
	} else if reply != "" {
		log.Printf("📤 Reply (not sent, Twilio not configured): %s", reply)
	}

	return c.SendStatus(fiber.StatusOK)
}

// TestWebhookPayload is the development payload used without Twilio.
type TestWebhookPayload struct {
	From    string `json:"from"`
	Message string `json:"message"`
}

// HandleTestWebhook processes a test message and returns the reply as JSON
// instead of sending it.
func (h *WhatsAppHandler) HandleTestWebhook(c *fiber.Ctx) error {
	var payload TestWebhookPayload
	if err := c.BodyParser(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid test payload",
		})
	}

	reply, err := h.engine.HandleMessage(c.Context(), payload.From, payload.Message)
	if err != nil {
		log.Printf("Error processing test message: %v", err)
		reply = retryText
	}

	return c.JSON(fiber.Map{
		"success":  true,
		"response": reply,
	})
}
