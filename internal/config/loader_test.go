package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DANCEGROUP_SESSION_SECRET", "test-secret")
	t.Setenv("DANCEGROUP_HTTP_PORT", "")
	t.Setenv("DANCEGROUP_SQLITE_DSN", "")
	t.Setenv("DANCEGROUP_SESSION_TTL", "")
	t.Setenv("DANCEGROUP_ATTENDANCE_PRE_MINUTES", "")
	t.Setenv("DANCEGROUP_ATTENDANCE_POST_MINUTES", "")
	t.Setenv("DANCEGROUP_ATTENDANCE_RADIUS_METERS", "")
	t.Setenv("DANCEGROUP_DEFAULT_EVENT_DURATION", "")
	t.Setenv("DANCEGROUP_RECURRENCE_HORIZON_DAYS", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.HTTPPort != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.HTTPPort)
	}
	if cfg.SQLiteDSN != "file:dancegroup.db?_pragma=foreign_keys(1)" {
		t.Errorf("unexpected default DSN %q", cfg.SQLiteDSN)
	}
	if cfg.SessionSecret != "test-secret" {
		t.Errorf("unexpected session secret %q", cfg.SessionSecret)
	}
	if cfg.SessionTTL != 24*time.Hour {
		t.Errorf("expected default TTL 24h, got %s", cfg.SessionTTL)
	}
	if cfg.AttendancePreOpen != 30*time.Minute {
		t.Errorf("expected 30m pre-open, got %s", cfg.AttendancePreOpen)
	}
	if cfg.AttendancePostClose != 30*time.Minute {
		t.Errorf("expected 30m post-close, got %s", cfg.AttendancePostClose)
	}
	if cfg.AttendanceRadiusMeters != 150 {
		t.Errorf("expected 150m radius, got %v", cfg.AttendanceRadiusMeters)
	}
	if cfg.DefaultEventDuration != 2*time.Hour {
		t.Errorf("expected 2h default duration, got %s", cfg.DefaultEventDuration)
	}
	if cfg.RecurrenceHorizonDays != 90 {
		t.Errorf("expected 90 day horizon, got %d", cfg.RecurrenceHorizonDays)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DANCEGROUP_SESSION_SECRET", "override-secret")
	t.Setenv("DANCEGROUP_HTTP_PORT", "9090")
	t.Setenv("DANCEGROUP_SQLITE_DSN", "file:custom.db?_pragma=foreign_keys(1)")
	t.Setenv("DANCEGROUP_SESSION_TTL", "1h30m")
	t.Setenv("DANCEGROUP_ATTENDANCE_PRE_MINUTES", "15")
	t.Setenv("DANCEGROUP_ATTENDANCE_POST_MINUTES", "45")
	t.Setenv("DANCEGROUP_ATTENDANCE_RADIUS_METERS", "200.5")
	t.Setenv("DANCEGROUP_DEFAULT_EVENT_DURATION", "90m")
	t.Setenv("DANCEGROUP_RECURRENCE_HORIZON_DAYS", "30")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.HTTPPort != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.HTTPPort)
	}
	if cfg.SQLiteDSN != "file:custom.db?_pragma=foreign_keys(1)" {
		t.Errorf("unexpected DSN %q", cfg.SQLiteDSN)
	}
	if cfg.SessionTTL != 90*time.Minute {
		t.Errorf("expected 1h30m TTL, got %s", cfg.SessionTTL)
	}
	if cfg.AttendancePreOpen != 15*time.Minute {
		t.Errorf("expected 15m pre-open, got %s", cfg.AttendancePreOpen)
	}
	if cfg.AttendancePostClose != 45*time.Minute {
		t.Errorf("expected 45m post-close, got %s", cfg.AttendancePostClose)
	}
	if cfg.AttendanceRadiusMeters != 200.5 {
		t.Errorf("expected 200.5m radius, got %v", cfg.AttendanceRadiusMeters)
	}
	if cfg.DefaultEventDuration != 90*time.Minute {
		t.Errorf("expected 90m duration, got %s", cfg.DefaultEventDuration)
	}
	if cfg.RecurrenceHorizonDays != 30 {
		t.Errorf("expected 30 day horizon, got %d", cfg.RecurrenceHorizonDays)
	}
}

func TestLoadMissingSecret(t *testing.T) {
	t.Setenv("DANCEGROUP_SESSION_SECRET", "")

	_, err := Load()
	if err == nil {
		t.Fatal("expected an error for the missing session secret")
	}
	if !strings.Contains(err.Error(), "DANCEGROUP_SESSION_SECRET") {
		t.Errorf("error should name the missing variable, got %q", err.Error())
	}
}

func TestLoadInvalidValues(t *testing.T) {
	cases := []struct {
		name  string
		key   string
		value string
	}{
		{name: "non-numeric port", key: "DANCEGROUP_HTTP_PORT", value: "abc"},
		{name: "negative port", key: "DANCEGROUP_HTTP_PORT", value: "-1"},
		{name: "malformed ttl", key: "DANCEGROUP_SESSION_TTL", value: "soon"},
		{name: "zero pre minutes", key: "DANCEGROUP_ATTENDANCE_PRE_MINUTES", value: "0"},
		{name: "negative radius", key: "DANCEGROUP_ATTENDANCE_RADIUS_METERS", value: "-5"},
		{name: "malformed duration", key: "DANCEGROUP_DEFAULT_EVENT_DURATION", value: "two hours"},
		{name: "zero horizon", key: "DANCEGROUP_RECURRENCE_HORIZON_DAYS", value: "0"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("DANCEGROUP_SESSION_SECRET", "test-secret")
			t.Setenv(tc.key, tc.value)

			_, err := Load()
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tc.key) {
				t.Errorf("error should name %s, got %q", tc.key, err.Error())
			}
		})
	}
}
