// Package natural turns phrases like "friday at 10:30" into agenda slots.
package natural

import (
	"errors"
	"fmt"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"

	"github.com/inkbook/studio/internal/domain/entities"
)

// ErrNoDate means the phrase contained nothing recognisable as a date or time.
var ErrNoDate = errors.New("no date found")

// Parser resolves English date phrases relative to a reference time.
type Parser struct {
	w *when.Parser
}

func New() *Parser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return &Parser{w: w}
}

// Slot parses text relative to now and snaps the result down to the
// half-hour grid. Times outside agenda hours return ErrOutsideGrid.
func (p *Parser) Slot(text string, now time.Time) (entities.Slot, error) {
	r, err := p.w.Parse(text, now)
	if err != nil {
		return entities.Slot{}, fmt.Errorf("parse %q: %w", text, err)
	}
	if r == nil {
		return entities.Slot{}, fmt.Errorf("parse %q: %w", text, ErrNoDate)
	}

	t := Snap(r.Time)
	slot := entities.Slot{
		Date: t.Format(entities.DateLayout),
		Time: t.Format(entities.TimeLayout),
	}
	if !entities.IsSlotTime(slot.Time) {
		return entities.Slot{}, fmt.Errorf("%s: %w", slot.Time, entities.ErrOutsideGrid)
	}
	return slot, nil
}

// Snap truncates t to the start of its half hour.
func Snap(t time.Time) time.Time {
	m := t.Minute() - t.Minute()%30
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), m, 0, 0, t.Location())
}
