package config

import (
	"testing"
)

func TestLoadConfigReadsEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("CORS_ORIGINS", "https://a.example.com, https://b.example.com")
	t.Setenv("PUBLIC_BASE_URL", "https://portal.example.com/")
	t.Setenv("MAIL_PROVIDER", "MailerSend")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "9090" {
		t.Errorf("unexpected port %s", cfg.Port)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://b.example.com" {
		t.Errorf("unexpected origins %v", cfg.CORSOrigins)
	}
	if cfg.PublicBaseURL != "https://portal.example.com" {
		t.Errorf("trailing slash not trimmed: %s", cfg.PublicBaseURL)
	}
	if cfg.MailProvider != MailProviderMailerSend {
		t.Errorf("unexpected provider %s", cfg.MailProvider)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{JWTSecret: "s", Timezone: "UTC", MailProvider: MailProviderDev}
	}

	if err := valid().Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}

	cases := map[string]func(c *Config){
		"missing jwt secret":     func(c *Config) { c.JWTSecret = "" },
		"bad timezone":           func(c *Config) { c.Timezone = "Mars/Olympus" },
		"unknown provider":       func(c *Config) { c.MailProvider = "pigeon" },
		"mailersend without key": func(c *Config) { c.MailProvider = MailProviderMailerSend; c.MailFromEmail = "a@b.c" },
		"gmail without token":    func(c *Config) { c.MailProvider = MailProviderGmail; c.GmailClientID = "id"; c.GmailClientSecret = "s"; c.MailFromEmail = "a@b.c" },
	}
	for name, mutate := range cases {
		c := valid()
		mutate(c)
		if err := c.Validate(); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}
