package entities

import (
	"errors"
	"fmt"
	"time"
)

// Common errors
var (
	ErrEventNotFound     = errors.New("event not found")
	ErrVersionConflict   = errors.New("event was changed by another request")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrForbidden         = errors.New("forbidden")
	ErrValidation        = errors.New("validation failed")
	ErrMalformedSlotKey  = errors.New("malformed slot key")
	ErrInvalidTransition = errors.New("invalid agenda transition")
	ErrEventBusy         = errors.New("event has a change in flight")
	ErrOutsideGrid       = errors.New("time is outside the agenda grid")
)

// Event is a single appointment on a user's agenda.
type Event struct {
	ID          string    `json:"id" db:"id"`
	UserID      string    `json:"userId" db:"user_id"`
	Title       string    `json:"title" db:"title"`
	Description string    `json:"description" db:"description"`
	Date        string    `json:"date" db:"event_date"`
	Time        string    `json:"time" db:"event_time"`
	Color       string    `json:"color" db:"color"`
	Version     int       `json:"version" db:"version"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`
}

// Slot returns the (date, time) coordinate the event currently occupies.
func (e *Event) Slot() Slot {
	return Slot{Date: e.Date, Time: e.Time}
}

// MovedTo returns a copy of the event placed on the given slot.
func (e Event) MovedTo(s Slot) Event {
	e.Date = s.Date
	e.Time = s.Time
	return e
}

// ResolvedColor returns the explicit colour, or the one derived from the title.
func (e *Event) ResolvedColor() string {
	if e.Color != "" {
		return e.Color
	}
	return ColorFor(e.Title)
}

// Hour returns the hour of day of the event's time.
func (e *Event) Hour() (int, error) {
	t, err := time.Parse(TimeLayout, e.Time)
	if err != nil {
		return 0, fmt.Errorf("parse event time %q: %w", e.Time, err)
	}
	return t.Hour(), nil
}

// StartsAt combines date and time in the given location.
func (e *Event) StartsAt(loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(DateLayout+" "+TimeLayout, e.Date+" "+e.Time, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse event start: %w", err)
	}
	return t, nil
}

// Equal reports whether two records carry identical field values.
func (e *Event) Equal(o *Event) bool {
	return e.ID == o.ID &&
		e.UserID == o.UserID &&
		e.Title == o.Title &&
		e.Description == o.Description &&
		e.Date == o.Date &&
		e.Time == o.Time &&
		e.Color == o.Color &&
		e.Version == o.Version &&
		e.CreatedAt.Equal(o.CreatedAt) &&
		e.UpdatedAt.Equal(o.UpdatedAt)
}
