package config

import (
	"testing"
	"time"
)

func validConfig() Config {
	return Config{
		DatabaseURL:        "postgres://localhost/portal",
		JWTSecret:          "test-secret",
		Environment:        "test",
		Timezone:           "Asia/Jakarta",
		MaxBodyBytes:       1048576,
		RateLimitPerMinute: 60,
		TokenTTL:           time.Hour,
		JobsEnabled:        true,
		ReminderSchedule:   "0 9 * * 1-5",
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "missing database url", mutate: func(c *Config) { c.DatabaseURL = "" }, wantErr: true},
		{name: "missing jwt secret", mutate: func(c *Config) { c.JWTSecret = "" }, wantErr: true},
		{name: "short production secret", mutate: func(c *Config) { c.Environment = "production"; c.DataEncryptionKey = "k" }, wantErr: true},
		{name: "bad timezone", mutate: func(c *Config) { c.Timezone = "Mars/Olympus" }, wantErr: true},
		{name: "bad cron", mutate: func(c *Config) { c.ReminderSchedule = "every day" }, wantErr: true},
		{name: "bad cron ignored when jobs disabled", mutate: func(c *Config) { c.ReminderSchedule = "x"; c.JobsEnabled = false }},
		{name: "tiny body limit", mutate: func(c *Config) { c.MaxBodyBytes = 10 }, wantErr: true},
		{name: "email without host", mutate: func(c *Config) { c.EmailEnabled = true }, wantErr: true},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantErr && err == nil {
				t.Fatal("expected validation error")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestSplitList(t *testing.T) {
	got := SplitList(" a, b ,,a, c ")
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
	if SplitList("   ") != nil {
		t.Fatal("expected nil for blank input")
	}
}

func TestLoadReadsOverrides(t *testing.T) {
	t.Setenv("ADMIN_USER_IDS", "u1,u2")
	t.Setenv("SUPERVISOR_USER_IDS", "s1")
	t.Setenv("TOKEN_TTL", "30m")
	cfg := Load()
	if len(cfg.AdminUserIDs) != 2 || cfg.SupervisorUserIDs[0] != "s1" {
		t.Fatalf("unexpected role overrides: %+v %+v", cfg.AdminUserIDs, cfg.SupervisorUserIDs)
	}
	if cfg.TokenTTL != 30*time.Minute {
		t.Fatalf("expected 30m ttl, got %v", cfg.TokenTTL)
	}
}

func TestLocationFallsBackToUTC(t *testing.T) {
	cfg := Config{Timezone: "Nope/Nowhere"}
	if cfg.Location() != time.UTC {
		t.Fatal("expected UTC fallback")
	}
}

func TestLoadIgnoresMalformedValues(t *testing.T) {
	t.Setenv("SMTP_PORT", "not-a-port")
	t.Setenv("JOBS_ENABLED", "maybe")
	t.Setenv("RATE_LIMIT_PER_MINUTE", " 30 ")
	cfg := Load()
	if cfg.SMTPPort != 587 || !cfg.JobsEnabled {
		t.Fatalf("expected defaults for malformed values, got port=%d jobs=%v", cfg.SMTPPort, cfg.JobsEnabled)
	}
	if cfg.RateLimitPerMinute != 30 {
		t.Fatalf("expected trimmed override, got %d", cfg.RateLimitPerMinute)
	}
}
