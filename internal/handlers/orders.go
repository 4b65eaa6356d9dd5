package handlers

import (
	"errors"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/trattorialuna/restaurant-backend/internal/config"
	"github.com/trattorialuna/restaurant-backend/internal/menu"
	"github.com/trattorialuna/restaurant-backend/internal/models"
	"github.com/trattorialuna/restaurant-backend/internal/services"
	"github.com/trattorialuna/restaurant-backend/internal/storage"
	"github.com/trattorialuna/restaurant-backend/internal/validate"
)

// OrderHandler exposes the administrative CRUD surface over orders.
type OrderHandler struct {
	orders   *services.OrderService
	cfg      *config.Config
	validate *validator.Validate
}

// NewOrderHandler creates a new order handler.
func NewOrderHandler(orders *services.OrderService, cfg *config.Config) *OrderHandler {
	return &OrderHandler{
		orders:   orders,
		cfg:      cfg,
		validate: validator.New(),
	}
}

// List returns orders, optionally filtered by reservation date and kind.
// An unparseable date filter is ignored, matching everything.
func (h *OrderHandler) List(c *fiber.Ctx) error {
	filter := models.OrderFilter{Kind: c.Query("kind")}
	if raw := c.Query("date"); raw != "" {
		if date, err := validate.DateFormat(raw); err == nil {
			filter.Date = date
		}
	}

	orders, err := h.orders.List(c.Context(), filter)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to retrieve orders",
		})
	}

	return c.JSON(fiber.Map{
		"orders": orders,
		"count":  len(orders),
	})
}

type createOrderRequest struct {
	Phone     string   `json:"phone" validate:"required"`
	Kind      string   `json:"kind" validate:"required,oneof=reservation takeaway"`
	Name      string   `json:"name" validate:"required"`
	Time      string   `json:"time" validate:"required"`
	Date      string   `json:"date" validate:"required_if=Kind reservation"`
	PartySize int      `json:"party_size" validate:"required_if=Kind reservation,omitempty,min=1"`
	Items     []string `json:"items"`
	Status    string   `json:"status"`
}

// Create persists an order entered from the admin side, with the same
// validation the conversation applies.
func (h *OrderHandler) Create(c *fiber.Ctx) error {
	var req createOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if err := h.validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	order := &models.Order{
		Phone:     req.Phone,
		Kind:      req.Kind,
		Name:      req.Name,
		Time:      req.Time,
		Date:      req.Date,
		PartySize: req.PartySize,
		Items:     req.Items,
		Status:    req.Status,
	}
	if order.Kind == models.KindTakeaway && order.Status == "" {
		order.Status = models.StatusPending
	}

	if err := validate.Order(order, h.cfg, time.Now()); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	created, err := h.orders.Create(c.Context(), order)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create order",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Order created",
		"order":   created,
	})
}

// Get retrieves one order by id.
func (h *OrderHandler) Get(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid order id",
		})
	}

	order, err := h.orders.Get(c.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Order not found",
		})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to retrieve order",
		})
	}
	return c.JSON(order)
}

// Update applies a partial correction. Fields that are present are checked
// with the intake rules (formats and business hours; past dates are allowed
// so old records stay editable). A status change notifies the customer.
func (h *OrderHandler) Update(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid order id",
		})
	}

	var upd models.OrderUpdate
	if err := c.BodyParser(&upd); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if upd.Name != nil {
		name, err := validate.Name(*upd.Name)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		upd.Name = &name
	}
	if upd.Time != nil {
		t, err := validate.TimeOfDay(*upd.Time, h.cfg.BusinessHours, time.Now(), false)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		upd.Time = &t
	}
	if upd.Date != nil {
		date, err := validate.DateFormat(*upd.Date)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		upd.Date = &date
	}
	if upd.PartySize != nil && (*upd.PartySize < 1 || *upd.PartySize > h.cfg.MaxPartySize) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid party size",
		})
	}

	updated, err := h.orders.Update(c.Context(), id, &upd)
	if errors.Is(err, storage.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Order not found",
		})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update order",
		})
	}

	return c.JSON(fiber.Map{
		"message": "Order updated",
		"order":   updated,
	})
}

// Delete cancels an order permanently, notifying the customer first.
func (h *OrderHandler) Delete(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid order id",
		})
	}

	err = h.orders.Delete(c.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Order not found",
		})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete order",
		})
	}

	return c.JSON(fiber.Map{
		"message": "Order deleted",
	})
}

// Stats aggregates counts by kind, units sold per product, and orders per
// business-hours slot, for the inspection panel.
func (h *OrderHandler) Stats(c *fiber.Ctx) error {
	orders, err := h.orders.List(c.Context(), models.OrderFilter{})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to retrieve orders",
		})
	}

	byKind := map[string]int{}
	products := map[string]int{}
	type slotCount struct {
		Reservations int `json:"reservations"`
		Takeaways    int `json:"takeaways"`
	}
	slots := map[string]*slotCount{}
	for _, r := range h.cfg.BusinessHours {
		slots[r.String()] = &slotCount{}
	}

	for _, o := range orders {
		byKind[o.Kind]++
		for _, item := range o.Items {
			name, qty := menu.ParseItem(item)
			products[name] += qty
		}
		if t, err := time.Parse(models.TimeLayout, o.Time); err == nil {
			for _, r := range h.cfg.BusinessHours {
				if !r.Contains(t) {
					continue
				}
				if o.IsReservation() {
					slots[r.String()].Reservations++
				} else {
					slots[r.String()].Takeaways++
				}
			}
		}
	}

	return c.JSON(fiber.Map{
		"by_kind":  byKind,
		"products": products,
		"by_slot":  slots,
		"total":    len(orders),
	})
}

func parseID(c *fiber.Ctx) (uint64, error) {
	return strconv.ParseUint(c.Params("id"), 10, 64)
}
