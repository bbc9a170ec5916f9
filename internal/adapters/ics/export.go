// Package ics renders agenda events as an iCalendar feed.
package ics

import (
	"fmt"
	"io"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/inkbook/studio/internal/domain/entities"
)

// SlotDuration is how long an appointment lasts in the exported feed.
const SlotDuration = 30 * time.Minute

const productID = "-//inkbook//studio agenda//EN"

// Options control the exported calendar.
type Options struct {
	Name     string
	Location *time.Location
	// Now stamps DTSTAMP; defaults to time.Now.
	Now func() time.Time
}

// Build converts events into a calendar. Events whose date or time cannot be
// parsed are skipped and returned separately.
func Build(events []entities.Event, opts Options) (*ical.Calendar, []entities.Event) {
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}

	cal := ical.NewCalendar()
	cal.SetProductId(productID)
	cal.SetMethod(ical.MethodPublish)
	if opts.Name != "" {
		cal.SetName(opts.Name)
		cal.SetXWRCalName(opts.Name)
	}
	cal.SetXWRTimezone(loc.String())

	stamp := now()
	var skipped []entities.Event
	for i := range events {
		e := &events[i]
		start, err := e.StartsAt(loc)
		if err != nil {
			skipped = append(skipped, *e)
			continue
		}

		ve := cal.AddEvent(uid(e))
		ve.SetDtStampTime(stamp)
		ve.SetStartAt(start)
		ve.SetEndAt(start.Add(SlotDuration))
		ve.SetSummary(e.Title)
		if e.Description != "" {
			ve.SetDescription(e.Description)
		}
		ve.SetColor(e.ResolvedColor())
		ve.SetSequence(e.Version)
		if !e.CreatedAt.IsZero() {
			ve.SetCreatedTime(e.CreatedAt)
		}
		if !e.UpdatedAt.IsZero() {
			ve.SetModifiedAt(e.UpdatedAt)
		}
	}

	return cal, skipped
}

// Write serializes events as text/calendar to w.
func Write(w io.Writer, events []entities.Event, opts Options) error {
	cal, _ := Build(events, opts)
	if err := cal.SerializeTo(w); err != nil {
		return fmt.Errorf("serialize calendar: %w", err)
	}
	return nil
}

func uid(e *entities.Event) string {
	return e.ID + "@inkbook"
}
