package menu

import (
	"fmt"
	"strconv"
	"strings"
)

// Item is one dish on the card.
type Item struct {
	ID   int
	Name string
}

// Items is the card, in the order it is shown to the customer.
var Items = []Item{
	{1, "Spaghetti alla Carbonara"},
	{2, "Pasta al Pomodoro"},
	{3, "Fettuccine Alfredo"},
	{4, "Penne al Pesto con Pollo"},
	{5, "Pizza Margherita"},
	{6, "Pizza Prosciutto e Funghi"},
	{7, "Lasagna Tradicional"},
	{8, "Risotto ai Frutti di Mare"},
	{9, "Ensalada Caprese"},
	{10, "Saltimbocca alla Romana"},
}

// NameByID returns the dish name for a 1-based menu number.
func NameByID(id int) (string, bool) {
	if id < 1 || id > len(Items) {
		return "", false
	}
	return Items[id-1].Name, true
}

// Listing renders the numbered card text sent on "menú".
func Listing() string {
	var b strings.Builder
	b.WriteString("🍝 *Nuestra carta:*\n")
	for _, it := range Items {
		fmt.Fprintf(&b, "%d. %s\n", it.ID, it.Name)
	}
	return b.String()
}

// Pick is one aggregated selection from the card.
type Pick struct {
	ID       int
	Name     string
	Quantity int
}

// ParseSelection turns a comma-separated list of menu numbers ("1, 2, 2")
// into picks aggregated in first-mention order. Numbers that match no dish
// are dropped silently.
func ParseSelection(input string) []Pick {
	var picks []Pick
	index := map[int]int{} // menu id -> position in picks

	for _, tok := range strings.Split(input, ",") {
		id, err := strconv.Atoi(strings.TrimSpace(tok))
		if err != nil {
			continue
		}
		name, ok := NameByID(id)
		if !ok {
			continue
		}
		if pos, seen := index[id]; seen {
			picks[pos].Quantity++
			continue
		}
		index[id] = len(picks)
		picks = append(picks, Pick{ID: id, Name: name, Quantity: 1})
	}
	return picks
}

// FormatPicks renders picks as the "Name (xN)" descriptors stored on an
// order.
func FormatPicks(picks []Pick) []string {
	items := make([]string, 0, len(picks))
	for _, p := range picks {
		items = append(items, FormatItem(p.Name, p.Quantity))
	}
	return items
}

// FormatItem renders one cart line the way the kitchen reads it.
func FormatItem(name string, qty int) string {
	return fmt.Sprintf("%s (x%d)", name, qty)
}

// ParseItem splits a stored "Name (xN)" descriptor back into name and
// quantity. A descriptor without the suffix counts as one unit.
func ParseItem(s string) (string, int) {
	i := strings.LastIndex(s, " (x")
	if i < 0 || !strings.HasSuffix(s, ")") {
		return s, 1
	}
	qty, err := strconv.Atoi(s[i+3 : len(s)-1])
	if err != nil || qty < 1 {
		return s, 1
	}
	return s[:i], qty
}
