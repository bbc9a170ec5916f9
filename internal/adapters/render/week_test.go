package render

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/inkbook/studio/internal/application/agenda"
	"github.com/inkbook/studio/internal/domain/entities"
)

func testWeek() agenda.Week {
	start := time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)
	w := agenda.Week{Start: start, Days: entities.WeekDates(start)}
	for _, h := range entities.BandStarts() {
		w.Bands = append(w.Bands, entities.BandLabel(h))
	}
	for d, date := range w.Days {
		for _, band := range w.Bands {
			w.Cells[d] = append(w.Cells[d], agenda.Cell{Date: date, Band: band})
		}
	}
	w.Cells[0][0].Events = []entities.Event{
		{ID: "e1", Title: "Koi sleeve", Date: "2025-01-06", Time: "09:30"},
		{ID: "e2", Title: "A very long title that will not fit", Date: "2025-01-06", Time: "09:30"},
	}
	w.Hidden = []entities.Event{{ID: "e3", Title: "Night owl", Date: "2025-01-08", Time: "21:00"}}
	return w
}

func TestRenderer_Week(t *testing.T) {
	var buf bytes.Buffer
	out := StripStyles(New(&buf, Plain(), WithCellWidth(16)).Week(testWeek()))

	for _, want := range []string{"Mon 06 Jan", "Sun 12 Jan", "08:00", "18:00", "09:30 Koi sleeve", "Outside agenda hours:", "2025-01-08 21:00  Night owl"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "will not fit") {
		t.Errorf("long titles should be truncated:\n%s", out)
	}

	for i, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(line, "Outside") {
			break
		}
		if got, want := len([]rune(line)), 7+7*(16+1); got != want {
			t.Fatalf("line %d has width %d, want %d: %q", i, got, want, line)
		}
	}
}

func TestRenderer_NonTerminalIsPlain(t *testing.T) {
	t.Setenv("CLICOLOR_FORCE", "0")

	var buf bytes.Buffer
	out := New(&buf, WithToday(time.Date(2025, 1, 7, 9, 0, 0, 0, time.UTC))).Week(testWeek())
	if strings.Contains(out, "\x1b[") {
		t.Fatalf("output to a non-terminal should carry no escape codes:\n%q", out)
	}
	if !strings.Contains(out, "09:30 Koi sleeve") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}
