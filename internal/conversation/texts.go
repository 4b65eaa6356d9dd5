package conversation

import (
	"fmt"
	"strings"

	"github.com/trattorialuna/restaurant-backend/internal/config"
	"github.com/trattorialuna/restaurant-backend/internal/menu"
	"github.com/trattorialuna/restaurant-backend/internal/models"
)

// Every prompt is self-contained: the channel has no widgets, so each text
// must let the customer continue (or restart) without any other context.

func hoursText(hours []config.HourRange) string {
	parts := make([]string, 0, len(hours))
	for _, r := range hours {
		parts = append(parts, r.String())
	}
	return strings.Join(parts, " y ")
}

func greetingText(restaurant string, hours []config.HourRange) string {
	return fmt.Sprintf("👋 ¡Hola! Bienvenido a %s 🍝\n"+
		"🕐 Nuestro horario es %s.\n\n"+
		"Escribe *reserva* para reservar mesa o *pedido* para encargar comida para llevar.\n"+
		"También puedes escribir *menú* para ver la carta o *cancelar* para anular una reserva o pedido.",
		restaurant, hoursText(hours))
}

const kindPromptText = "🤔 No te he entendido. Escribe *reserva* para reservar mesa o *pedido* para comida para llevar."

const namePromptText = "📝 ¡Perfecto! ¿A nombre de quién? Escribe tu nombre completo."

const nameInvalidText = "❌ El nombre solo puede contener letras y espacios. Inténtalo de nuevo."

const partyPromptText = "👥 ¿Para cuántas personas?"

func partyInvalidText(max int) string {
	return fmt.Sprintf("❌ Introduce un número de personas entre 1 y %d.", max)
}

const datePromptText = "📅 ¿Para qué día? Usa el formato DD-MM-YYYY."

const dateInvalidText = "❌ Fecha no válida. Usa el formato DD-MM-YYYY y que no sea anterior a hoy."

func timePromptText(hours []config.HourRange) string {
	return fmt.Sprintf("🕐 ¿A qué hora? (entre %s)", hoursText(hours))
}

func timeInvalidText(hours []config.HourRange) string {
	return fmt.Sprintf("❌ Hora no válida. Debe estar entre %s y no haber pasado ya.", hoursText(hours))
}

func itemsPromptText() string {
	return menu.Listing() + "\nEscribe los números de los platos separados por comas (ej: 1, 2, 2)."
}

func reservationConfirmText(o *models.Order) string {
	return fmt.Sprintf("✅ ¡Reserva confirmada, %s! Mesa para %d el %s a las %s.\nNº de reserva: %d.",
		o.Name, o.PartySize, o.Date, o.Time, o.ID)
}

func takeawayConfirmText(o *models.Order) string {
	var b strings.Builder
	fmt.Fprintf(&b, "✅ ¡Pedido nº %d recibido, %s! Estará listo para recoger a las %s.\n", o.ID, o.Name, o.Time)
	if len(o.Items) > 0 {
		b.WriteString("🍽️ Productos:\n")
		for _, item := range o.Items {
			b.WriteString("- " + item + "\n")
		}
	}
	b.WriteString("Te avisaremos un poco antes de la hora de recogida.")
	return b.String()
}

const nothingToCancelText = "🤷 No tienes reservas ni pedidos que se puedan cancelar."

func cancelListText(lines []string) string {
	return "Estas son tus reservas y pedidos:\n" + strings.Join(lines, "\n") +
		"\n\nEscribe el número del que quieras cancelar."
}

func cancelDoneText(kind string) string {
	if kind == models.KindReservation {
		return "🛑 Reserva cancelada correctamente."
	}
	return "🛑 Pedido cancelado correctamente."
}

const cancelInvalidText = "❌ Opción no válida. Escribe *cancelar* si quieres volver a intentarlo."

const fallbackText = "🤖 No te he entendido. Envía *hola* para empezar."
