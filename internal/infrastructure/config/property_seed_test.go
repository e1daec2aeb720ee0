package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadPropertySeed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "property.yaml")
	doc := `property:
  name: Villa Sayang
  calendar_url: https://www.airbnb.com/calendar/ical/123.ics?s=secret
  check_out_time: "10:00"
`
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatal(err)
	}

	p, err := LoadPropertySeed(path, "villa", "Asia/Makassar")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if p.Slug != "villa" || p.Timezone != "Asia/Makassar" {
		t.Errorf("defaults not applied: %+v", p)
	}
	if p.CheckInTime != "14:00" || p.CheckOutTime != "10:00" {
		t.Errorf("unexpected times %s/%s", p.CheckInTime, p.CheckOutTime)
	}
	if p.CalendarURL != "https://www.airbnb.com/calendar/ical/123.ics?s=secret" {
		t.Errorf("unexpected calendar url %q", p.CalendarURL)
	}
}

func TestLoadPropertySeedEmptyPath(t *testing.T) {
	p, err := LoadPropertySeed("", "villa", "UTC")
	if err != nil || p != nil {
		t.Fatalf("expected nil, nil; got %v, %v", p, err)
	}
}

func TestLoadPropertySeedRequiresName(t *testing.T) {
	path := filepath.Join(t.TempDir(), "property.yaml")
	if err := os.WriteFile(path, []byte("property:\n  slug: x\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadPropertySeed(path, "villa", "UTC"); err == nil {
		t.Fatal("expected error")
	}
}

func TestGetEnvAsDuration(t *testing.T) {
	t.Setenv("FEED_CACHE_TTL", "5m")
	if got := getEnvAsDuration("FEED_CACHE_TTL", 0); got.Minutes() != 5 {
		t.Errorf("expected 5m, got %s", got)
	}

	t.Setenv("FEED_CACHE_TTL", "soon")
	if got := getEnvAsDuration("FEED_CACHE_TTL", 42); got != 42 {
		t.Errorf("expected default, got %s", got)
	}
}
