package notify

import (
	"fmt"
	"strings"

	"github.com/trattorialuna/restaurant-backend/internal/models"
)

// DefaultStatusTemplates maps a takeaway status to its customer message.
// Statuses missing from the table notify nothing. "{name}" is replaced with
// the customer's stored name.
var DefaultStatusTemplates = map[string]string{
	models.StatusPending:   "🕒 Hola {name}, tu pedido ha sido recibido. ¡Estamos preparando todo para ti!",
	models.StatusPreparing: "👨‍🍳 {name}, estamos cocinando tu pedido. ¡Ya casi está listo!",
	models.StatusReady:     "✅ ¡{name}, tu pedido ya está listo para recoger! 🍽️",
	models.StatusDelivered: "🚚 Pedido entregado, {name}. ¡Gracias por elegirnos! 😄",
}

// Catalog renders outbound message texts. The status table is replaceable
// per deployment so new statuses or locales need no code change.
type Catalog struct {
	statuses  map[string]string
	signature string
}

// NewCatalog builds a catalog with the default status table.
func NewCatalog(restaurant string) *Catalog {
	return NewCatalogWithStatuses(restaurant, DefaultStatusTemplates)
}

// NewCatalogWithStatuses builds a catalog with a custom status table.
func NewCatalogWithStatuses(restaurant string, statuses map[string]string) *Catalog {
	return &Catalog{
		statuses:  statuses,
		signature: fmt.Sprintf("\n\n– %s 🍝", restaurant),
	}
}

// Status renders the message for a status change, or ok=false when the
// status has no mapping.
func (c *Catalog) Status(status, name string) (string, bool) {
	tmpl, ok := c.statuses[status]
	if !ok {
		return "", false
	}
	return strings.ReplaceAll(tmpl, "{name}", name) + c.signature, true
}

// Cancellation renders the message sent when a record is deleted.
func (c *Catalog) Cancellation(kind string) string {
	if kind == models.KindReservation {
		return "🛑 Tu reserva ha sido cancelada." + c.signature
	}
	return "🛑 Tu pedido ha sido cancelado." + c.signature
}

// Reminder renders the pre-pickup reminder listing the cart.
func (c *Catalog) Reminder(name, pickupTime string, items []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🔔 Hola %s, tu pedido estará listo para recoger a las %s.\n", name, pickupTime)
	b.WriteString("🍽️ Productos:")
	for _, item := range items {
		b.WriteString("\n- " + item)
	}
	b.WriteString(c.signature)
	return b.String()
}

// Signature is appended to every outbound text.
func (c *Catalog) Signature() string {
	return c.signature
}
