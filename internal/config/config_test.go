package config

import (
	"testing"
	"time"
)

func TestParseHours(t *testing.T) {
	hours, err := ParseHours("13:00-16:00,20:00-23:00")
	if err != nil {
		t.Fatal(err)
	}
	if len(hours) != 2 {
		t.Fatalf("got %d ranges, want 2", len(hours))
	}
	if hours[0].Open != 13*60 || hours[0].Close != 16*60 {
		t.Errorf("first range = %+v", hours[0])
	}
	if hours[1].Open != 20*60 || hours[1].Close != 23*60 {
		t.Errorf("second range = %+v", hours[1])
	}
}

func TestParseHoursRejectsBadInput(t *testing.T) {
	for _, s := range []string{
		"",
		"13:00",
		"16:00-13:00",
		"13:00-13:00",
		"1pm-4pm",
	} {
		if _, err := ParseHours(s); err == nil {
			t.Errorf("ParseHours(%q) should fail", s)
		}
	}
}

func TestHourRangeContains(t *testing.T) {
	r := HourRange{Open: 13 * 60, Close: 16 * 60}
	at := func(h, m int) time.Time {
		return time.Date(2026, time.September, 1, h, m, 0, 0, time.Local)
	}

	if !r.Contains(at(13, 0)) {
		t.Error("opening minute is inside")
	}
	if !r.Contains(at(15, 59)) {
		t.Error("last minute is inside")
	}
	if r.Contains(at(16, 0)) {
		t.Error("closing minute is outside (half-open)")
	}
	if r.Contains(at(12, 59)) {
		t.Error("before opening is outside")
	}
}

func TestHourRangeString(t *testing.T) {
	r := HourRange{Open: 13 * 60, Close: 16 * 60}
	if got := r.String(); got != "13:00–16:00" {
		t.Errorf("got %q", got)
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ReminderLead != 20*time.Minute {
		t.Errorf("ReminderLead = %s", cfg.ReminderLead)
	}
	if cfg.ReminderTolerance != time.Minute {
		t.Errorf("ReminderTolerance = %s", cfg.ReminderTolerance)
	}
	if cfg.SweepInterval != time.Minute {
		t.Errorf("SweepInterval = %s", cfg.SweepInterval)
	}
	if cfg.MaxPartySize != 40 {
		t.Errorf("MaxPartySize = %d", cfg.MaxPartySize)
	}
	if len(cfg.BusinessHours) != 2 {
		t.Errorf("BusinessHours = %v", cfg.BusinessHours)
	}
	if cfg.SessionBackend != "memory" {
		t.Errorf("SessionBackend = %q", cfg.SessionBackend)
	}
}

func TestLoadRejectsBadBackend(t *testing.T) {
	t.Setenv("SESSION_BACKEND", "mongo")
	if _, err := Load(); err == nil {
		t.Fatal("invalid SESSION_BACKEND should fail")
	}
}
