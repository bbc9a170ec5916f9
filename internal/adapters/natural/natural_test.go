package natural

import (
	"errors"
	"testing"
	"time"

	"github.com/inkbook/studio/internal/domain/entities"
)

// Wednesday.
var ref = time.Date(2025, 1, 8, 12, 0, 0, 0, time.UTC)

func TestParser_Slot(t *testing.T) {
	p := New()

	tests := []struct {
		text string
		want entities.Slot
	}{
		{"tomorrow at 10:30", entities.Slot{Date: "2025-01-09", Time: "10:30"}},
		{"tomorrow at 10:45", entities.Slot{Date: "2025-01-09", Time: "10:30"}},
		{"tomorrow at 16:00", entities.Slot{Date: "2025-01-09", Time: "16:00"}},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, err := p.Slot(tt.text, ref)
			if err != nil {
				t.Fatalf("Slot() error = %v", err)
			}
			if got != tt.want {
				t.Fatalf("Slot() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParser_SlotErrors(t *testing.T) {
	p := New()

	if _, err := p.Slot("banana", ref); !errors.Is(err, ErrNoDate) {
		t.Fatalf("expected ErrNoDate, got %v", err)
	}
	if _, err := p.Slot("tomorrow at 19:00", ref); !errors.Is(err, entities.ErrOutsideGrid) {
		t.Fatalf("expected ErrOutsideGrid, got %v", err)
	}
}

func TestSnap(t *testing.T) {
	got := Snap(time.Date(2025, 1, 8, 9, 59, 59, 10, time.UTC))
	if want := time.Date(2025, 1, 8, 9, 30, 0, 0, time.UTC); !got.Equal(want) {
		t.Fatalf("Snap() = %v, want %v", got, want)
	}
}
