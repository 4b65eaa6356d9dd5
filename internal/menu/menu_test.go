package menu

import (
	"reflect"
	"strings"
	"testing"
)

func TestParseSelection(t *testing.T) {
	picks := ParseSelection("1, 2, 2")
	got := FormatPicks(picks)
	want := []string{"Spaghetti alla Carbonara (x1)", "Pasta al Pomodoro (x2)"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ParseSelection(\"1, 2, 2\") = %v, want %v", got, want)
	}
}

func TestParseSelectionDropsUnknown(t *testing.T) {
	picks := ParseSelection("1, 99, foo, 10")
	got := FormatPicks(picks)
	want := []string{"Spaghetti alla Carbonara (x1)", "Saltimbocca alla Romana (x1)"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestParseSelectionAllUnknown(t *testing.T) {
	if picks := ParseSelection("99, 0, abc"); len(picks) != 0 {
		t.Errorf("expected no picks, got %v", picks)
	}
}

func TestParseItem(t *testing.T) {
	name, qty := ParseItem("Pizza Margherita (x3)")
	if name != "Pizza Margherita" || qty != 3 {
		t.Errorf("got %q, %d", name, qty)
	}
	name, qty = ParseItem("Pizza Margherita")
	if name != "Pizza Margherita" || qty != 1 {
		t.Errorf("descriptor without suffix: got %q, %d", name, qty)
	}
}

func TestListingNumbersEveryDish(t *testing.T) {
	listing := Listing()
	for _, it := range Items {
		if !strings.Contains(listing, it.Name) {
			t.Errorf("listing missing %q", it.Name)
		}
	}
}
