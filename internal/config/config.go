// Package config holds the process configuration: built-in defaults,
// overlaid by TABLERO_* environment variables, overlaid by CLI flags.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/adamwoolhether/tablero/airtable"
	"github.com/adamwoolhether/tablero/board"
	"github.com/adamwoolhether/tablero/throttle"
)

// Config is the top-level configuration.
type Config struct {
	Airtable  Airtable
	Throttle  Throttle
	HTTP      HTTP
	Log       Log
	Telemetry Telemetry
}

// Airtable locates the base and its tables.
type Airtable struct {
	Token           string        `validate:"required"`
	BaseID          string        `validate:"required"`
	BaseURL         string        `validate:"required,url"`
	ProjectsTable   string        `validate:"required"`
	TasksTable      string        `validate:"required"`
	TeamTable       string        `validate:"required"`
	TeamTTL         time.Duration `validate:"gt=0"`
	RetryMaxElapsed time.Duration `validate:"gte=0"`
	Timeout         time.Duration `validate:"gt=0"`
}

// Throttle sizes the outbound request queue.
type Throttle struct {
	MinDelay time.Duration `validate:"gte=0"`
	// Capacity bounds the queue. Zero means unbounded.
	Capacity int `validate:"gte=0"`
}

// HTTP configures the listener.
type HTTP struct {
	Addr            string        `validate:"required"`
	AllowedOrigins  []string
	ReadTimeout     time.Duration `validate:"gt=0"`
	WriteTimeout    time.Duration `validate:"gt=0"`
	IdleTimeout     time.Duration `validate:"gt=0"`
	ShutdownTimeout time.Duration `validate:"gt=0"`
}

// Log selects the slog handler.
type Log struct {
	Level  string `validate:"oneof=debug info warn error"`
	Format string `validate:"oneof=text json"`
}

// Telemetry configures the OTLP trace exporter. An empty endpoint disables it.
type Telemetry struct {
	Endpoint    string
	Insecure    bool
	SampleRatio float64 `validate:"gte=0,lte=1"`
}

// Default returns built-in defaults. The Airtable token and base ID have no
// default and must come from the environment or flags.
func Default() Config {
	return Config{
		Airtable: Airtable{
			BaseURL:         airtable.DefaultBaseURL,
			ProjectsTable:   board.DefaultProjectsTable,
			TasksTable:      board.DefaultTasksTable,
			TeamTable:       board.DefaultTeamTable,
			TeamTTL:         board.DefaultTeamTTL,
			RetryMaxElapsed: 30 * time.Second,
			Timeout:         30 * time.Second,
		},
		Throttle: Throttle{
			MinDelay: throttle.DefaultMinDelay,
		},
		HTTP: HTTP{
			Addr:            ":8080",
			ReadTimeout:     5 * time.Second,
			WriteTimeout:    60 * time.Second,
			IdleTimeout:     120 * time.Second,
			ShutdownTimeout: 20 * time.Second,
		},
		Log: Log{
			Level:  "info",
			Format: "text",
		},
		Telemetry: Telemetry{
			SampleRatio: 1,
		},
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate reports every invalid field at once.
func (c Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	verrs, ok := errors.AsType[validator.ValidationErrors](err)
	if !ok {
		return fmt.Errorf("validating config: %w", err)
	}

	errs := make([]error, 0, len(verrs))
	for _, fe := range verrs {
		errs = append(errs, fmt.Errorf("%s: failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
	}

	return fmt.Errorf("invalid config: %w", errors.Join(errs...))
}
