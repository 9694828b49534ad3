package domain

import (
	"fmt"
	"time"
)

// ShiftID is the stable identity of a single shift occurrence. Calendar
// feeds reuse UIDs across distinct events, so the key is derived from the
// start time and summary instead.
type ShiftID string

func NewShiftID(start time.Time, summary string) ShiftID {
	return ShiftID(start.UTC().Format(time.RFC3339) + "-" + summary)
}

// CalendarEvent is one entry from the calendar feed, immutable per fetch.
type CalendarEvent struct {
	UID     string    `json:"uid"` // unreliable, never used as a key
	Summary string    `json:"summary"`
	Start   time.Time `json:"start"`
	End     time.Time `json:"end"`
}

func (e CalendarEvent) ShiftID() ShiftID {
	return NewShiftID(e.Start, e.Summary)
}

// ShiftRecord tracks one announced shift until its end time passes.
// MessageID is the outstanding notification; it is cleared on escalation.
type ShiftRecord struct {
	Event     CalendarEvent
	MessageID string
	Acked     bool
}

// WatchedMessage ties an outbound notification back to its shift while an
// ack, correlation reply, or escalation is still possible. Name is empty
// when no name could be extracted from the calendar summary.
type WatchedMessage struct {
	Name    string
	ShiftID ShiftID
}

// PrettyDuration renders a duration as 1d2h3m4s, dropping leading zero
// units. The sign is discarded.
func PrettyDuration(d time.Duration) string {
	s := int(d.Seconds())
	if s < 0 {
		s = -s
	}
	days := s / 86400
	hours := s % 86400 / 3600
	mins := s % 3600 / 60
	secs := s % 60
	switch {
	case days > 0:
		return fmt.Sprintf("%dd%dh%dm%ds", days, hours, mins, secs)
	case hours > 0:
		return fmt.Sprintf("%dh%dm%ds", hours, mins, secs)
	case mins > 0:
		return fmt.Sprintf("%dm%ds", mins, secs)
	default:
		return fmt.Sprintf("%ds", secs)
	}
}
