package calendar

import (
	"fmt"
	"time"

	"github.com/golang-sql/civil"
)

// ConfigurationError reports a malformed rule, rule set or profile.
// It is only ever returned by constructors, never by resolution.
type ConfigurationError struct {
	Subject string // rule, rule set or profile name
	Reason  string
}

func (e *ConfigurationError) Error() string {
	if e.Subject == "" {
		return fmt.Sprintf("calendar configuration: %s", e.Reason)
	}
	return fmt.Sprintf("calendar configuration: %q: %s", e.Subject, e.Reason)
}

func configErrorf(subject, format string, args ...interface{}) *ConfigurationError {
	return &ConfigurationError{Subject: subject, Reason: fmt.Sprintf(format, args...)}
}

// OverrideKind distinguishes special closes from special opens
type OverrideKind string

const (
	SpecialClose OverrideKind = "close"
	SpecialOpen  OverrideKind = "open"
	// InvertedSession marks a date whose combined open is not before its
	// combined close; the date gets no session
	InvertedSession OverrideKind = "inverted"
)

// OverrideConflict records two session overrides claiming the same date.
// The first-defined override (Winner) is applied. For InvertedSession the
// Winner is the source of the open and the Loser the source of the close.
type OverrideConflict struct {
	Date       civil.Date   `json:"date" msgpack:"date"`
	Kind       OverrideKind `json:"kind" msgpack:"kind"`
	Winner     string       `json:"winner" msgpack:"winner"`
	Loser      string       `json:"loser" msgpack:"loser"`
	WinnerTime civil.Time   `json:"winner_time" msgpack:"winner_time"`
	LoserTime  civil.Time   `json:"loser_time" msgpack:"loser_time"`
}

func (c OverrideConflict) String() string {
	if c.Kind == InvertedSession {
		return fmt.Sprintf("%s: open %q (%s) is not before close %q (%s), no session",
			c.Date, c.Winner, formatClock(c.WinnerTime), c.Loser, formatClock(c.LoserTime))
	}
	return fmt.Sprintf("%s: special %s %q (%s) shadows %q (%s)",
		c.Date, c.Kind, c.Winner, formatClock(c.WinnerTime), c.Loser, formatClock(c.LoserTime))
}

// formatClock renders a wall-clock time as HH:MM
func formatClock(t civil.Time) string {
	return time.Date(2000, 1, 1, t.Hour, t.Minute, 0, 0, time.UTC).Format("15:04")
}
