// Package notify provides sinks for agenda activity messages.
package notify

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/inkbook/studio/internal/infrastructure/logger"
	"github.com/inkbook/studio/internal/ports"
)

// Kind of activity.
type Kind string

const (
	KindCreated Kind = "created"
	KindUpdated Kind = "updated"
	KindDeleted Kind = "deleted"
	KindMoved   Kind = "moved"
	KindFailed  Kind = "failed"
)

// Activity is one recorded notification.
type Activity struct {
	Kind  Kind
	Title string
	Date  string
	Time  string
	Op    string
	Err   error
	At    time.Time
}

// Message renders the activity for people.
func (a Activity) Message() string {
	switch a.Kind {
	case KindCreated:
		return fmt.Sprintf("Appointment %q booked for %s at %s", a.Title, a.Date, a.Time)
	case KindUpdated:
		return fmt.Sprintf("Appointment %q updated", a.Title)
	case KindDeleted:
		return fmt.Sprintf("Appointment %q deleted", a.Title)
	case KindMoved:
		return fmt.Sprintf("Appointment %q moved to %s at %s", a.Title, a.Date, a.Time)
	case KindFailed:
		return fmt.Sprintf("Could not %s appointment: %v", a.Op, a.Err)
	default:
		return string(a.Kind)
	}
}

// Recorder keeps every activity in memory.
type Recorder struct {
	mu         sync.Mutex
	activities []Activity
	now        func() time.Time
}

var _ ports.Notifier = (*Recorder)(nil)

func NewRecorder() *Recorder {
	return &Recorder{now: time.Now}
}

func (r *Recorder) add(a Activity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a.At = r.now()
	r.activities = append(r.activities, a)
}

func (r *Recorder) Created(title, date, time string) {
	r.add(Activity{Kind: KindCreated, Title: title, Date: date, Time: time})
}

func (r *Recorder) Updated(title string) {
	r.add(Activity{Kind: KindUpdated, Title: title})
}

func (r *Recorder) Deleted(title string) {
	r.add(Activity{Kind: KindDeleted, Title: title})
}

func (r *Recorder) Moved(title, date, time string) {
	r.add(Activity{Kind: KindMoved, Title: title, Date: date, Time: time})
}

func (r *Recorder) Failed(op string, err error) {
	r.add(Activity{Kind: KindFailed, Op: op, Err: err})
}

// Activities returns a copy of everything recorded so far.
func (r *Recorder) Activities() []Activity {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Activity(nil), r.activities...)
}

// Last returns the most recent activity.
func (r *Recorder) Last() (Activity, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.activities) == 0 {
		return Activity{}, false
	}
	return r.activities[len(r.activities)-1], true
}

// Writer prints one line per activity, for terminals.
type Writer struct {
	mu  sync.Mutex
	out io.Writer
}

var _ ports.Notifier = (*Writer)(nil)

func NewWriter(out io.Writer) *Writer {
	return &Writer{out: out}
}

func (w *Writer) print(a Activity) {
	w.mu.Lock()
	defer w.mu.Unlock()
	fmt.Fprintln(w.out, a.Message())
}

func (w *Writer) Created(title, date, time string) {
	w.print(Activity{Kind: KindCreated, Title: title, Date: date, Time: time})
}

func (w *Writer) Updated(title string) { w.print(Activity{Kind: KindUpdated, Title: title}) }

func (w *Writer) Deleted(title string) { w.print(Activity{Kind: KindDeleted, Title: title}) }

func (w *Writer) Moved(title, date, time string) {
	w.print(Activity{Kind: KindMoved, Title: title, Date: date, Time: time})
}

func (w *Writer) Failed(op string, err error) { w.print(Activity{Kind: KindFailed, Op: op, Err: err}) }

// Log records activity as structured user actions.
type Log struct {
	userID string
	logger *logger.Logger
}

var _ ports.Notifier = (*Log)(nil)

func NewLog(userID string, l *logger.Logger) *Log {
	return &Log{userID: userID, logger: l.WithComponent("activity")}
}

func (l *Log) Created(title, date, time string) {
	l.logger.LogUserAction(l.userID, string(KindCreated), map[string]interface{}{"title": title, "date": date, "time": time})
}

func (l *Log) Updated(title string) {
	l.logger.LogUserAction(l.userID, string(KindUpdated), map[string]interface{}{"title": title})
}

func (l *Log) Deleted(title string) {
	l.logger.LogUserAction(l.userID, string(KindDeleted), map[string]interface{}{"title": title})
}

func (l *Log) Moved(title, date, time string) {
	l.logger.LogUserAction(l.userID, string(KindMoved), map[string]interface{}{"title": title, "date": date, "time": time})
}

func (l *Log) Failed(op string, err error) {
	l.logger.Errorw("Agenda activity failed", "user_id", l.userID, "operation", op, "error", err)
}

// Fanout forwards every notification to each sink in order.
type Fanout []ports.Notifier

var _ ports.Notifier = Fanout(nil)

func (f Fanout) Created(title, date, time string) {
	for _, n := range f {
		n.Created(title, date, time)
	}
}

func (f Fanout) Updated(title string) {
	for _, n := range f {
		n.Updated(title)
	}
}

func (f Fanout) Deleted(title string) {
	for _, n := range f {
		n.Deleted(title)
	}
}

func (f Fanout) Moved(title, date, time string) {
	for _, n := range f {
		n.Moved(title, date, time)
	}
}

func (f Fanout) Failed(op string, err error) {
	for _, n := range f {
		n.Failed(op, err)
	}
}
