// Package validate holds the pure input checks the conversation and the
// admin surface share. A failing check is always recoverable: the caller
// re-prompts, nothing is persisted.
package validate

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/trattorialuna/restaurant-backend/internal/config"
	"github.com/trattorialuna/restaurant-backend/internal/models"
)

var nameRe = regexp.MustCompile(`^[a-zA-ZáéíóúÁÉÍÓÚñÑüÜ ]+$`)

var titleCaser = cases.Title(language.Spanish)

// Name checks a customer name: letters (accents included) and spaces only.
// Returns the title-cased form that gets stored.
func Name(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" || !nameRe.MatchString(s) {
		return "", fmt.Errorf("name must contain only letters and spaces")
	}
	return titleCaser.String(strings.ToLower(s)), nil
}

// PartySize checks an integer party size in [1, max].
func PartySize(s string, max int) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("party size must be a number")
	}
	if n < 1 || n > max {
		return 0, fmt.Errorf("party size must be between 1 and %d", max)
	}
	return n, nil
}

// Date checks a DD-MM-YYYY date that is today or later. Returns the
// normalized form.
func Date(s string, now time.Time) (string, error) {
	d, err := time.ParseInLocation(models.DateLayout, strings.TrimSpace(s), now.Location())
	if err != nil {
		return "", fmt.Errorf("date must be DD-MM-YYYY")
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if d.Before(today) {
		return "", fmt.Errorf("date is in the past")
	}
	return d.Format(models.DateLayout), nil
}

// DateFormat checks only the DD-MM-YYYY shape, for administrative
// corrections of records whose date may already have passed.
func DateFormat(s string) (string, error) {
	d, err := time.Parse(models.DateLayout, strings.TrimSpace(s))
	if err != nil {
		return "", fmt.Errorf("date must be DD-MM-YYYY")
	}
	return d.Format(models.DateLayout), nil
}

// TimeOfDay checks an HH:MM time inside the business hours. When sameDay is
// true the time must additionally be strictly later than now. Returns the
// normalized form.
func TimeOfDay(s string, hours []config.HourRange, now time.Time, sameDay bool) (string, error) {
	t, err := time.Parse(models.TimeLayout, strings.TrimSpace(s))
	if err != nil {
		return "", fmt.Errorf("time must be HH:MM")
	}
	inHours := false
	for _, r := range hours {
		if r.Contains(t) {
			inHours = true
			break
		}
	}
	if !inHours {
		return "", fmt.Errorf("time outside business hours")
	}
	if sameDay {
		at := time.Date(now.Year(), now.Month(), now.Day(), t.Hour(), t.Minute(), 0, 0, now.Location())
		if !at.After(now) {
			return "", fmt.Errorf("time already passed today")
		}
	}
	return t.Format(models.TimeLayout), nil
}

// Order re-checks a persisted record with the same rules used during intake.
// Used by the admin surface before writing corrections.
func Order(o *models.Order, cfg *config.Config, now time.Time) error {
	if _, err := Name(o.Name); err != nil {
		return err
	}
	switch o.Kind {
	case models.KindReservation:
		date, err := Date(o.Date, now)
		if err != nil {
			return err
		}
		if o.PartySize < 1 || o.PartySize > cfg.MaxPartySize {
			return fmt.Errorf("party size must be between 1 and %d", cfg.MaxPartySize)
		}
		today := now.Format(models.DateLayout)
		if _, err := TimeOfDay(o.Time, cfg.BusinessHours, now, date == today); err != nil {
			return err
		}
	case models.KindTakeaway:
		if _, err := TimeOfDay(o.Time, cfg.BusinessHours, now, true); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown kind %q", o.Kind)
	}
	return nil
}
