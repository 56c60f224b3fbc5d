package board

import (
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Default table IDs of the production base.
const (
	DefaultProjectsTable = "tbl3ZDE3yBKc9UMvo"
	DefaultTasksTable    = "tblrN9A1ThzCVCCbk"
	DefaultTeamTable     = "tblxeJD9pPvdj1MJW"

	// DefaultTeamTTL is how long team member names are cached.
	DefaultTeamTTL = 10 * time.Minute
)

// Tables names the tables the board reads and writes. Names or IDs both work.
type Tables struct {
	Projects string
	Tasks    string
	Team     string
}

// DefaultTables returns the production table IDs.
func DefaultTables() Tables {
	return Tables{
		Projects: DefaultProjectsTable,
		Tasks:    DefaultTasksTable,
		Team:     DefaultTeamTable,
	}
}

// Option is a functional option for configuring a [Service] via [New].
type Option func(*options) error

type options struct {
	tables  *Tables
	teamTTL *time.Duration
	now     func() time.Time
	logger  *slog.Logger
}

// WithTables overrides the default table IDs. Every table must be named.
func WithTables(t Tables) Option {
	return func(o *options) error {
		if t.Projects == "" || t.Tasks == "" || t.Team == "" {
			return fmt.Errorf("tables %+v: every table must be set", t)
		}
		o.tables = &t
		return nil
	}
}

// WithTeamTTL sets how long team names are cached. Default is [DefaultTeamTTL].
func WithTeamTTL(d time.Duration) Option {
	return func(o *options) error {
		if d <= 0 {
			return errors.New("team ttl must be positive")
		}
		o.teamTTL = &d
		return nil
	}
}

// WithClock replaces time.Now. The clock's location decides what "today" is
// for automatic dates and dashboard windows.
func WithClock(now func() time.Time) Option {
	return func(o *options) error {
		if now == nil {
			return errors.New("clock must not be nil")
		}
		o.now = now
		return nil
	}
}

// WithLogger sets the logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) error {
		o.logger = logger
		return nil
	}
}
