package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// FromEnv overlays TABLERO_* environment variables onto cfg. Unset or
// unparsable values leave the current setting alone.
func FromEnv(cfg *Config) {
	str(&cfg.Airtable.Token, "TABLERO_AIRTABLE_TOKEN")
	str(&cfg.Airtable.BaseID, "TABLERO_AIRTABLE_BASE_ID")
	str(&cfg.Airtable.BaseURL, "TABLERO_AIRTABLE_BASE_URL")
	str(&cfg.Airtable.ProjectsTable, "TABLERO_AIRTABLE_PROJECTS_TABLE")
	str(&cfg.Airtable.TasksTable, "TABLERO_AIRTABLE_TASKS_TABLE")
	str(&cfg.Airtable.TeamTable, "TABLERO_AIRTABLE_TEAM_TABLE")
	duration(&cfg.Airtable.TeamTTL, "TABLERO_AIRTABLE_TEAM_TTL")
	duration(&cfg.Airtable.RetryMaxElapsed, "TABLERO_AIRTABLE_RETRY_MAX_ELAPSED")
	duration(&cfg.Airtable.Timeout, "TABLERO_AIRTABLE_TIMEOUT")

	duration(&cfg.Throttle.MinDelay, "TABLERO_THROTTLE_MIN_DELAY")
	if v := os.Getenv("TABLERO_THROTTLE_CAPACITY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Throttle.Capacity = n
		}
	}

	str(&cfg.HTTP.Addr, "TABLERO_HTTP_ADDR")
	if v := os.Getenv("TABLERO_HTTP_ALLOWED_ORIGINS"); v != "" {
		cfg.HTTP.AllowedOrigins = SplitList(v)
	}
	duration(&cfg.HTTP.ReadTimeout, "TABLERO_HTTP_READ_TIMEOUT")
	duration(&cfg.HTTP.WriteTimeout, "TABLERO_HTTP_WRITE_TIMEOUT")
	duration(&cfg.HTTP.IdleTimeout, "TABLERO_HTTP_IDLE_TIMEOUT")
	duration(&cfg.HTTP.ShutdownTimeout, "TABLERO_HTTP_SHUTDOWN_TIMEOUT")

	if v := os.Getenv("TABLERO_LOG_LEVEL"); v != "" {
		cfg.Log.Level = strings.ToLower(v)
	}
	if v := os.Getenv("TABLERO_LOG_FORMAT"); v != "" {
		cfg.Log.Format = strings.ToLower(v)
	}

	str(&cfg.Telemetry.Endpoint, "TABLERO_OTLP_ENDPOINT")
	if v := os.Getenv("TABLERO_OTLP_INSECURE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Telemetry.Insecure = b
		}
	}
	if v := os.Getenv("TABLERO_OTLP_SAMPLE_RATIO"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Telemetry.SampleRatio = f
		}
	}
}

// SplitList splits a comma separated list, dropping blanks.
func SplitList(v string) []string {
	var out []string
	for p := range strings.SplitSeq(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func str(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func duration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
