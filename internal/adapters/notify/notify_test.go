package notify

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/inkbook/studio/internal/infrastructure/logger"
)

func TestRecorder(t *testing.T) {
	r := NewRecorder()
	r.Created("Koi", "2025-01-06", "09:00")
	r.Moved("Koi", "2025-01-07", "10:00")
	r.Failed("delete", errors.New("boom"))

	acts := r.Activities()
	if len(acts) != 3 {
		t.Fatalf("got %d activities", len(acts))
	}
	if acts[1].Kind != KindMoved || acts[1].Date != "2025-01-07" || acts[1].Time != "10:00" {
		t.Fatalf("unexpected moved activity %+v", acts[1])
	}
	last, ok := r.Last()
	if !ok || last.Kind != KindFailed || last.Op != "delete" {
		t.Fatalf("unexpected last %+v", last)
	}
}

func TestWriter_Messages(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	w.Moved("Koi", "2025-01-07", "10:00")
	w.Failed("move", errors.New("conflict"))

	out := buf.String()
	if !strings.Contains(out, `Appointment "Koi" moved to 2025-01-07 at 10:00`) {
		t.Fatalf("missing moved line in %q", out)
	}
	if !strings.Contains(out, "Could not move appointment: conflict") {
		t.Fatalf("missing failure line in %q", out)
	}
}

func TestFanout(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	rec := NewRecorder()
	f := Fanout{rec, NewLog("u1", logger.FromZap(zap.New(core)))}

	f.Deleted("Koi")

	if last, _ := rec.Last(); last.Kind != KindDeleted {
		t.Fatalf("recorder missed delete: %+v", last)
	}
	if logs.FilterField(zap.String("action", "deleted")).Len() != 1 {
		t.Fatalf("log sink missed delete: %v", logs.All())
	}
}
