package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures environment driven configuration values for the dance
// group manager service.
type Config struct {
	HTTPPort                int
	SQLiteDSN               string
	SessionSecret           string
	SessionTTL              time.Duration
	AttendancePreOpen       time.Duration
	AttendancePostClose     time.Duration
	AttendanceRadiusMeters  float64
	DefaultEventDuration    time.Duration
	RecurrenceHorizonDays   int
}

// Load parses configuration values from the current process environment.
//
// The loader applies sensible defaults for optional fields while validating
// required values and reporting localized error messages for missing entries.
func Load() (Config, error) {
	cfg := Config{
		HTTPPort:               8080,
		SQLiteDSN:              "file:dancegroup.db?_pragma=foreign_keys(1)",
		SessionTTL:             24 * time.Hour,
		AttendancePreOpen:      30 * time.Minute,
		AttendancePostClose:    30 * time.Minute,
		AttendanceRadiusMeters: 150,
		DefaultEventDuration:   2 * time.Hour,
		RecurrenceHorizonDays:  90,
	}

	missing := make([]string, 0, 1)
	invalid := make([]string, 0, 2)

	if portValue := strings.TrimSpace(os.Getenv("DANCEGROUP_HTTP_PORT")); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 {
			invalid = append(invalid, "DANCEGROUP_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	if dsn := strings.TrimSpace(os.Getenv("DANCEGROUP_SQLITE_DSN")); dsn != "" {
		cfg.SQLiteDSN = dsn
	}

	if secret := strings.TrimSpace(os.Getenv("DANCEGROUP_SESSION_SECRET")); secret == "" {
		missing = append(missing, "DANCEGROUP_SESSION_SECRET")
	} else {
		cfg.SessionSecret = secret
	}

	if ttlValue := strings.TrimSpace(os.Getenv("DANCEGROUP_SESSION_TTL")); ttlValue != "" {
		ttl, err := time.ParseDuration(ttlValue)
		if err != nil || ttl <= 0 {
			invalid = append(invalid, "DANCEGROUP_SESSION_TTL")
		} else {
			cfg.SessionTTL = ttl
		}
	}

	if preValue := strings.TrimSpace(os.Getenv("DANCEGROUP_ATTENDANCE_PRE_MINUTES")); preValue != "" {
		minutes, err := strconv.Atoi(preValue)
		if err != nil || minutes <= 0 {
			invalid = append(invalid, "DANCEGROUP_ATTENDANCE_PRE_MINUTES")
		} else {
			cfg.AttendancePreOpen = time.Duration(minutes) * time.Minute
		}
	}

	if postValue := strings.TrimSpace(os.Getenv("DANCEGROUP_ATTENDANCE_POST_MINUTES")); postValue != "" {
		minutes, err := strconv.Atoi(postValue)
		if err != nil || minutes <= 0 {
			invalid = append(invalid, "DANCEGROUP_ATTENDANCE_POST_MINUTES")
		} else {
			cfg.AttendancePostClose = time.Duration(minutes) * time.Minute
		}
	}

	if radiusValue := strings.TrimSpace(os.Getenv("DANCEGROUP_ATTENDANCE_RADIUS_METERS")); radiusValue != "" {
		radius, err := strconv.ParseFloat(radiusValue, 64)
		if err != nil || radius <= 0 {
			invalid = append(invalid, "DANCEGROUP_ATTENDANCE_RADIUS_METERS")
		} else {
			cfg.AttendanceRadiusMeters = radius
		}
	}

	if durationValue := strings.TrimSpace(os.Getenv("DANCEGROUP_DEFAULT_EVENT_DURATION")); durationValue != "" {
		duration, err := time.ParseDuration(durationValue)
		if err != nil || duration <= 0 {
			invalid = append(invalid, "DANCEGROUP_DEFAULT_EVENT_DURATION")
		} else {
			cfg.DefaultEventDuration = duration
		}
	}

	if horizonValue := strings.TrimSpace(os.Getenv("DANCEGROUP_RECURRENCE_HORIZON_DAYS")); horizonValue != "" {
		horizon, err := strconv.Atoi(horizonValue)
		if err != nil || horizon <= 0 {
			invalid = append(invalid, "DANCEGROUP_RECURRENCE_HORIZON_DAYS")
		} else {
			cfg.RecurrenceHorizonDays = horizon
		}
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("필수 환경 변수가 설정되지 않았습니다: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("환경 변수 값이 올바르지 않습니다: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}
