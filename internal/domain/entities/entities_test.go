package entities

import (
	"errors"
	"testing"
	"time"
)

func TestColorFor_Deterministic(t *testing.T) {
	for _, title := range []string{"", "Koi sleeve", "Consulta – Ana", "🐉 dragon back piece"} {
		first := ColorFor(title)
		for i := 0; i < 5; i++ {
			if got := ColorFor(title); got != first {
				t.Fatalf("ColorFor(%q) = %q, want %q", title, got, first)
			}
		}
		if !IsPaletteColor(first) {
			t.Fatalf("ColorFor(%q) = %q is not a palette colour", title, first)
		}
	}
}

func TestColorFor_KnownValues(t *testing.T) {
	cases := map[string]string{
		"":   Palette[0],
		"a":  Palette[7], // 97
		"ab": Palette[5], // 98 + 3104 - 97 = 3105
	}
	for title, want := range cases {
		if got := ColorFor(title); got != want {
			t.Errorf("ColorFor(%q) = %q, want %q", title, got, want)
		}
	}
}

func TestColorFor_LongTitleWrapsLikeInt32(t *testing.T) {
	title := "a very long appointment title that overflows thirty two bits several times"
	got := ColorFor(title)
	if !IsPaletteColor(got) {
		t.Fatalf("unexpected colour %q", got)
	}
}

func TestResolvedColor_PrefersExplicit(t *testing.T) {
	e := Event{Title: "a", Color: Palette[1]}
	if e.ResolvedColor() != Palette[1] {
		t.Fatalf("explicit colour not used")
	}
	e.Color = ""
	if e.ResolvedColor() != ColorFor("a") {
		t.Fatalf("derived colour not used")
	}
}

func TestSlotKey_RoundTrip(t *testing.T) {
	s := Slot{Date: "2025-01-07", Time: "10:00"}
	key := s.Key()
	if key != "slot-2025-01-07-10:00" {
		t.Fatalf("unexpected key %q", key)
	}
	got, err := ParseSlotKey(key)
	if err != nil {
		t.Fatalf("ParseSlotKey: %v", err)
	}
	if got != s {
		t.Fatalf("round trip = %+v, want %+v", got, s)
	}
}

func TestParseSlotKey_Malformed(t *testing.T) {
	for _, key := range []string{
		"",
		"2025-01-07-10:00",
		"cell-2025-01-07-10:00",
		"slot-2025-01-10:00",
		"slot-2025-01-07-10:00-extra",
		"slot-2025-13-07-10:00",
		"slot-2025-01-07-25:99",
	} {
		_, err := ParseSlotKey(key)
		if !errors.Is(err, ErrMalformedSlotKey) {
			t.Errorf("ParseSlotKey(%q) err = %v, want ErrMalformedSlotKey", key, err)
		}
	}
}

func TestSlotTimes(t *testing.T) {
	times := SlotTimes()
	if len(times) != 21 {
		t.Fatalf("got %d slot times, want 21", len(times))
	}
	if times[0] != "08:00" || times[1] != "08:30" || times[len(times)-1] != "18:00" {
		t.Fatalf("unexpected bounds %v", times)
	}
	if IsSlotTime("18:30") || IsSlotTime("07:30") || IsSlotTime("09:15") {
		t.Fatal("off-grid time accepted")
	}
}

func TestBandIndex(t *testing.T) {
	e := Event{Time: "09:30"}
	h, err := e.Hour()
	if err != nil {
		t.Fatal(err)
	}
	idx, ok := BandIndex(h)
	if !ok || idx != 0 || BandLabel(BandStarts()[idx]) != "08:00" {
		t.Fatalf("09:30 rendered in band %d (ok=%v), want 08:00", idx, ok)
	}

	for hour, want := range map[int]int{8: 0, 10: 1, 11: 1, 17: 4, 18: 5, 19: 5} {
		got, ok := BandIndex(hour)
		if !ok || got != want {
			t.Errorf("BandIndex(%d) = %d,%v want %d", hour, got, ok, want)
		}
	}
	if _, ok := BandIndex(7); ok {
		t.Error("hour 7 should be outside the grid")
	}
	if _, ok := BandIndex(20); ok {
		t.Error("hour 20 should be outside the grid")
	}
}

func TestWeekStart(t *testing.T) {
	for _, day := range []string{"2025-01-06", "2025-01-08", "2025-01-12"} {
		d, _ := time.Parse(DateLayout, day)
		got := WeekStart(d.Add(15 * time.Hour)).Format(DateLayout)
		if got != "2025-01-06" {
			t.Errorf("WeekStart(%s) = %s", day, got)
		}
	}
	dates := WeekDates(time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC))
	if dates[0] != "2025-01-06" || dates[6] != "2025-01-12" {
		t.Fatalf("unexpected week %v", dates)
	}
}

func TestMovedTo_KeepsIdentity(t *testing.T) {
	e := Event{ID: "e1", Title: "Koi", Date: "2025-01-06", Time: "09:00", Version: 3}
	moved := e.MovedTo(Slot{Date: "2025-01-07", Time: "10:00"})
	if moved.ID != "e1" || moved.Version != 3 || moved.Title != "Koi" {
		t.Fatalf("identity changed: %+v", moved)
	}
	if e.Date != "2025-01-06" {
		t.Fatal("original mutated")
	}
}
