package entities

import (
	"fmt"
	"strings"
	"time"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"

	SlotKeyPrefix    = "slot"
	SlotKeySeparator = "-"

	FirstSlotHour = 8
	LastSlotHour  = 18
	BandWidth     = 2
)

// Slot is a (date, time) coordinate on the weekly grid.
type Slot struct {
	Date string `json:"date"`
	Time string `json:"time"`
}

// Key encodes the slot as a droppable target identifier, e.g. slot-2025-01-06-09:00.
func (s Slot) Key() string {
	return strings.Join([]string{SlotKeyPrefix, s.Date, s.Time}, SlotKeySeparator)
}

func (s Slot) String() string {
	return s.Date + " " + s.Time
}

// ParseSlotKey decodes a key produced by Slot.Key.
func ParseSlotKey(key string) (Slot, error) {
	parts := strings.Split(key, SlotKeySeparator)
	if len(parts) != 5 {
		return Slot{}, fmt.Errorf("%w: %q has %d components", ErrMalformedSlotKey, key, len(parts))
	}
	if parts[0] != SlotKeyPrefix {
		return Slot{}, fmt.Errorf("%w: %q lacks %q prefix", ErrMalformedSlotKey, key, SlotKeyPrefix)
	}

	s := Slot{
		Date: strings.Join(parts[1:4], SlotKeySeparator),
		Time: parts[4],
	}
	if _, err := time.Parse(DateLayout, s.Date); err != nil {
		return Slot{}, fmt.Errorf("%w: bad date %q", ErrMalformedSlotKey, s.Date)
	}
	if _, err := time.Parse(TimeLayout, s.Time); err != nil {
		return Slot{}, fmt.Errorf("%w: bad time %q", ErrMalformedSlotKey, s.Time)
	}
	return s, nil
}

// SlotTimes lists the half-hour marks an event may be booked at.
func SlotTimes() []string {
	times := make([]string, 0, (LastSlotHour-FirstSlotHour)*2+1)
	for h := FirstSlotHour; h <= LastSlotHour; h++ {
		times = append(times, fmt.Sprintf("%02d:00", h))
		if h < LastSlotHour {
			times = append(times, fmt.Sprintf("%02d:30", h))
		}
	}
	return times
}

// IsSlotTime reports whether t is on the half-hour booking grid.
func IsSlotTime(t string) bool {
	for _, st := range SlotTimes() {
		if st == t {
			return true
		}
	}
	return false
}

// BandStarts returns the start hour of every displayed band.
func BandStarts() []int {
	var starts []int
	for h := FirstSlotHour; h <= LastSlotHour; h += BandWidth {
		starts = append(starts, h)
	}
	return starts
}

// BandIndex returns the band an hour renders into, or false when it falls
// outside the displayed window.
func BandIndex(hour int) (int, bool) {
	for i, start := range BandStarts() {
		if hour >= start && hour < start+BandWidth {
			return i, true
		}
	}
	return 0, false
}

// BandLabel formats a band start hour as HH:00.
func BandLabel(start int) string {
	return fmt.Sprintf("%02d:00", start)
}

// WeekStart returns midnight of the Monday of t's week, in t's location.
func WeekStart(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	y, m, d := t.Date()
	return time.Date(y, m, d-offset, 0, 0, 0, 0, t.Location())
}

// WeekDates returns the seven ISO dates starting at monday.
func WeekDates(monday time.Time) [7]string {
	var dates [7]string
	for i := range dates {
		dates[i] = monday.AddDate(0, 0, i).Format(DateLayout)
	}
	return dates
}
