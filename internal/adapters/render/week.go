// Package render draws the weekly agenda for terminals.
package render

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"

	"github.com/inkbook/studio/internal/application/agenda"
	"github.com/inkbook/studio/internal/domain/entities"
)

const (
	defaultCellWidth = 18
	bandColumnWidth  = 7
)

var (
	colorBorder = lipgloss.Color("240")
	colorMuted  = lipgloss.Color("244")
	colorHeader = lipgloss.Color("255")
	colorToday  = lipgloss.Color("#f59e0b")
)

// Renderer draws a Week with a fixed column width.
type Renderer struct {
	r         *lipgloss.Renderer
	cellWidth int
	today     string
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithCellWidth sets the width of one day column.
func WithCellWidth(n int) Option {
	return func(r *Renderer) {
		if n > 4 {
			r.cellWidth = n
		}
	}
}

// WithToday highlights the column of the given day.
func WithToday(t time.Time) Option {
	return func(r *Renderer) { r.today = t.Format(entities.DateLayout) }
}

// Plain disables colours even on a colour terminal. Output that is not a
// terminal is already plain.
func Plain() Option {
	return func(r *Renderer) { r.r.SetColorProfile(termenv.Ascii) }
}

// New creates a renderer detecting colour support from out.
func New(out io.Writer, opts ...Option) *Renderer {
	r := &Renderer{r: lipgloss.NewRenderer(out), cellWidth: defaultCellWidth}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Week renders the 7 x 6 grid followed by any events that fall outside it.
func (r *Renderer) Week(w agenda.Week) string {
	border := r.r.NewStyle().Foreground(colorBorder)
	sep := border.Render("│")

	rows := []string{r.header(w, sep), border.Render(r.rule())}
	for b, band := range w.Bands {
		rows = append(rows, r.bandRow(w, b, band, sep), border.Render(r.rule()))
	}

	out := lipgloss.JoinVertical(lipgloss.Left, rows...)
	if len(w.Hidden) > 0 {
		out += "\n" + r.hidden(w.Hidden)
	}
	return out
}

func (r *Renderer) header(w agenda.Week, sep string) string {
	head := r.r.NewStyle().Bold(true).Foreground(colorHeader).Width(r.cellWidth)
	today := head.Foreground(colorToday)

	cols := []string{r.r.NewStyle().Width(bandColumnWidth).Render(w.Start.Format("Jan 2"))}
	for _, date := range w.Days {
		label := date
		if t, err := time.Parse(entities.DateLayout, date); err == nil {
			label = t.Format("Mon 02 Jan")
		}
		style := head
		if date == r.today {
			style = today
		}
		cols = append(cols, sep, style.Render(label))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cols...)
}

func (r *Renderer) bandRow(w agenda.Week, b int, band, sep string) string {
	height := 1
	for d := range w.Days {
		if n := len(w.Cells[d][b].Events); n > height {
			height = n
		}
	}

	label := r.r.NewStyle().Foreground(colorMuted).Width(bandColumnWidth).Height(height).Render(band)
	cols := []string{label}
	for d := range w.Days {
		cols = append(cols, strings.TrimSuffix(strings.Repeat(sep+"\n", height), "\n"), r.cell(w.Cells[d][b], height))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cols...)
}

func (r *Renderer) cell(c agenda.Cell, height int) string {
	lines := make([]string, 0, len(c.Events))
	for _, e := range c.Events {
		text := ansi.Truncate(fmt.Sprintf("%s %s", e.Time, e.Title), r.cellWidth, "…")
		lines = append(lines, r.r.NewStyle().Foreground(lipgloss.Color(e.ResolvedColor())).Render(text))
	}
	return r.r.NewStyle().Width(r.cellWidth).Height(height).Render(strings.Join(lines, "\n"))
}

func (r *Renderer) hidden(events []entities.Event) string {
	muted := r.r.NewStyle().Foreground(colorMuted)
	lines := []string{muted.Render("Outside agenda hours:")}
	for _, e := range events {
		lines = append(lines, muted.Render(fmt.Sprintf("  %s %s  %s", e.Date, e.Time, e.Title)))
	}
	return strings.Join(lines, "\n")
}

func (r *Renderer) rule() string {
	return strings.Repeat("─", bandColumnWidth) + strings.Repeat("┼"+strings.Repeat("─", r.cellWidth), 7)
}

// StripStyles removes ANSI styling from rendered output.
func StripStyles(s string) string {
	return ansi.Strip(s)
}
