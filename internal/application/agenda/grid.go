package agenda

import (
	"sort"
	"time"

	"github.com/inkbook/studio/internal/domain/entities"
)

// Cell is one band of one day on the weekly grid.
type Cell struct {
	Date   string
	Band   string
	Events []entities.Event
}

// Key is the drop target identifier of the cell.
func (c Cell) Key() string {
	return entities.Slot{Date: c.Date, Time: c.Band}.Key()
}

// Week is a rendered snapshot of the displayed week.
type Week struct {
	Start time.Time
	Days  [7]string
	Bands []string
	// Cells is indexed by day, then band.
	Cells [7][]Cell
	// Hidden holds events of this week whose time falls outside the grid.
	Hidden []entities.Event
}

// Cell returns the cell for a date and band label.
func (w Week) Cell(date, band string) (Cell, bool) {
	for d, day := range w.Days {
		if day != date {
			continue
		}
		for _, cell := range w.Cells[d] {
			if cell.Band == band {
				return cell, true
			}
		}
	}
	return Cell{}, false
}

// Grid buckets the displayed week's events into day columns and 2-hour bands.
// Events sharing a band are stacked by time, then title.
func (c *Controller) Grid() Week {
	c.mu.Lock()
	events := append([]entities.Event(nil), c.events...)
	start := c.weekStart
	c.mu.Unlock()

	return buildWeek(start, events)
}

func buildWeek(start time.Time, events []entities.Event) Week {
	w := Week{Start: start, Days: entities.WeekDates(start)}
	starts := entities.BandStarts()
	for _, h := range starts {
		w.Bands = append(w.Bands, entities.BandLabel(h))
	}

	column := make(map[string]int, len(w.Days))
	for d, date := range w.Days {
		column[date] = d
		w.Cells[d] = make([]Cell, len(starts))
		for b, label := range w.Bands {
			w.Cells[d][b] = Cell{Date: date, Band: label}
		}
	}

	sort.SliceStable(events, func(i, j int) bool {
		if events[i].Time != events[j].Time {
			return events[i].Time < events[j].Time
		}
		if events[i].Title != events[j].Title {
			return events[i].Title < events[j].Title
		}
		return events[i].ID < events[j].ID
	})

	for _, e := range events {
		d, ok := column[e.Date]
		if !ok {
			continue
		}
		hour, err := e.Hour()
		if err != nil {
			w.Hidden = append(w.Hidden, e)
			continue
		}
		b, ok := entities.BandIndex(hour)
		if !ok {
			w.Hidden = append(w.Hidden, e)
			continue
		}
		w.Cells[d][b].Events = append(w.Cells[d][b].Events, e)
	}

	return w
}
