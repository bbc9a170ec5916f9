// Package agenda holds the weekly agenda: the user's events laid out on a
// seven day grid, and the create/edit/delete/relocate flows that keep the
// local copy consistent with the Event Store.
package agenda

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/inkbook/studio/internal/domain/entities"
	"github.com/inkbook/studio/internal/infrastructure/logger"
	"github.com/inkbook/studio/internal/infrastructure/metrics"
	"github.com/inkbook/studio/internal/infrastructure/validation"
	"github.com/inkbook/studio/internal/ports"
)

// Session identifies the signed-in user the agenda works for.
type Session struct {
	UserID string
	Token  string
}

// Drag is the gesture in progress while in ModeDragging.
type Drag struct {
	EventID string
	Origin  entities.Slot
}

// Option configures a Controller.
type Option func(*Controller)

// WithClock overrides the time source used to pick the displayed week.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// WithRenderFunc registers a callback invoked after every visible state change.
// It runs without the controller lock held and may read the controller.
func WithRenderFunc(fn func()) Option {
	return func(c *Controller) { c.onRender = fn }
}

// WithMetrics records operation outcomes.
func WithMetrics(m *metrics.AgendaMetrics) Option {
	return func(c *Controller) { c.metrics = m }
}

// Controller is the weekly agenda. It is safe for concurrent use; store
// calls are made without holding the lock.
type Controller struct {
	mu sync.Mutex

	session  Session
	store    ports.EventStore
	notifier ports.Notifier
	validate *validator.Validate
	logger   *logger.Logger
	metrics  *metrics.AgendaMetrics
	now      func() time.Time
	onRender func()

	weekStart time.Time
	events    []entities.Event
	status    LoadStatus
	loadErr   error

	mode     Mode
	target   string
	drag     *Drag
	creating bool
	inFlight map[string]struct{}
	revision uint64
}

// New creates an agenda for the session's user.
func New(session Session, store ports.EventStore, notifier ports.Notifier, log *logger.Logger, opts ...Option) (*Controller, error) {
	if session.UserID == "" {
		return nil, fmt.Errorf("agenda: %w: session has no user", entities.ErrUnauthorized)
	}
	if log == nil {
		log = logger.NewNop()
	}

	c := &Controller{
		session:  session,
		store:    store,
		notifier: notifier,
		validate: validation.New(),
		logger:   log.WithComponent("agenda").WithUserID(session.UserID),
		now:      time.Now,
		inFlight: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.weekStart = entities.WeekStart(c.now())

	return c, nil
}

// Load fetches every event of the user. On failure the agenda stays empty
// and the error is kept for display; there is no retry.
func (c *Controller) Load(ctx context.Context) error {
	c.mu.Lock()
	c.status = LoadPending
	c.loadErr = nil
	c.mu.Unlock()

	events, err := c.store.List(ctx, c.session.UserID)

	c.mu.Lock()
	if err != nil {
		c.events = nil
		c.status = LoadFailed
		c.loadErr = err
		c.revision++
		c.mu.Unlock()

		c.logger.WithError(err).Errorw("Failed to load events")
		c.metrics.Observe("list", metrics.OutcomeFailure)
		c.notifier.Failed("list", err)
		c.render()
		return fmt.Errorf("load events: %w", err)
	}
	c.events = append([]entities.Event(nil), events...)
	c.status = LoadReady
	c.revision++
	c.mu.Unlock()

	c.logger.Debugw("Events loaded", "count", len(events))
	c.metrics.Observe("list", metrics.OutcomeSuccess)
	c.render()
	return nil
}

// OpenCreate opens the creation form.
func (c *Controller) OpenCreate() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.mode != ModeIdle {
		return c.transitionError("open create")
	}
	c.mode = ModeCreating
	return nil
}

// Create submits the creation form. The event shows up locally only once
// the store has assigned it an id; on failure the form stays open.
func (c *Controller) Create(ctx context.Context, req ports.CreateEventRequest) (entities.Event, error) {
	c.mu.Lock()
	if c.mode != ModeCreating {
		err := c.transitionError("create")
		c.mu.Unlock()
		return entities.Event{}, err
	}
	if c.creating {
		c.mu.Unlock()
		return entities.Event{}, entities.ErrEventBusy
	}
	req.UserID = c.session.UserID
	if req.Color == "" {
		req.Color = entities.ColorFor(req.Title)
	}
	if err := validation.Struct(c.validate, req); err != nil {
		c.mu.Unlock()
		return entities.Event{}, err
	}
	c.creating = true
	c.mu.Unlock()

	created, err := c.store.Create(ctx, req)

	c.mu.Lock()
	c.creating = false
	if err != nil {
		c.mu.Unlock()
		c.fail("create", err)
		return entities.Event{}, fmt.Errorf("create event: %w", err)
	}
	// a Load that ran meanwhile may already hold the new record
	if idx := c.indexOf(created.ID); idx >= 0 {
		c.events[idx] = created
	} else {
		c.events = append(c.events, created)
	}
	if c.mode == ModeCreating {
		c.mode = ModeIdle
	}
	c.revision++
	c.mu.Unlock()

	c.metrics.Observe("create", metrics.OutcomeSuccess)
	c.notifier.Created(created.Title, created.Date, created.Time)
	c.render()
	return created, nil
}

// OpenEdit opens the edit form for an event.
func (c *Controller) OpenEdit(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.mode != ModeIdle {
		return c.transitionError("open edit")
	}
	if c.indexOf(id) < 0 {
		return entities.ErrEventNotFound
	}
	c.mode = ModeEditing
	c.target = id
	return nil
}

// Edit submits the edit form for the event being edited. Only non-nil
// fields change; the store's returned record replaces the local copy.
func (c *Controller) Edit(ctx context.Context, id string, req ports.EditEventRequest) (entities.Event, error) {
	c.mu.Lock()
	if c.mode != ModeEditing || c.target != id {
		err := c.transitionError("edit")
		c.mu.Unlock()
		return entities.Event{}, err
	}
	idx := c.indexOf(id)
	if idx < 0 {
		c.mu.Unlock()
		return entities.Event{}, entities.ErrEventNotFound
	}
	if _, busy := c.inFlight[id]; busy {
		c.mu.Unlock()
		return entities.Event{}, entities.ErrEventBusy
	}
	if err := validation.Struct(c.validate, req); err != nil {
		c.mu.Unlock()
		return entities.Event{}, err
	}
	merged := applyEdit(c.events[idx], req)
	if err := validation.Struct(c.validate, updateRequest(merged)); err != nil {
		c.mu.Unlock()
		return entities.Event{}, err
	}
	c.inFlight[id] = struct{}{}
	c.mu.Unlock()

	updated, err := c.store.Update(ctx, merged)

	c.mu.Lock()
	delete(c.inFlight, id)
	if err != nil {
		c.mu.Unlock()
		c.fail("update", err)
		return entities.Event{}, fmt.Errorf("update event: %w", err)
	}
	c.replace(updated)
	if c.mode == ModeEditing && c.target == id {
		c.mode = ModeIdle
		c.target = ""
	}
	c.revision++
	c.mu.Unlock()

	c.metrics.Observe("update", metrics.OutcomeSuccess)
	c.notifier.Updated(updated.Title)
	c.render()
	return updated, nil
}

// RequestDelete opens the delete confirmation for an event, from the idle
// agenda or from that event's edit form.
func (c *Controller) RequestDelete(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch {
	case c.mode == ModeIdle:
	case c.mode == ModeEditing && c.target == id:
	default:
		return c.transitionError("request delete")
	}
	if c.indexOf(id) < 0 {
		return entities.ErrEventNotFound
	}
	c.mode = ModeConfirmingDelete
	c.target = id
	return nil
}

// ConfirmDelete deletes the event awaiting confirmation. Confirming an
// event that is no longer present is a no-op.
func (c *Controller) ConfirmDelete(ctx context.Context, id string) error {
	c.mu.Lock()
	idx := c.indexOf(id)
	if idx < 0 {
		if c.mode == ModeConfirmingDelete && c.target == id {
			c.mode = ModeIdle
			c.target = ""
		}
		c.mu.Unlock()
		return nil
	}
	if c.mode != ModeConfirmingDelete || c.target != id {
		err := c.transitionError("confirm delete")
		c.mu.Unlock()
		return err
	}
	if _, busy := c.inFlight[id]; busy {
		c.mu.Unlock()
		return entities.ErrEventBusy
	}
	title := c.events[idx].Title
	c.inFlight[id] = struct{}{}
	c.mu.Unlock()

	err := c.store.Delete(ctx, id)

	c.mu.Lock()
	delete(c.inFlight, id)
	if err != nil {
		c.mu.Unlock()
		c.fail("delete", err)
		return fmt.Errorf("delete event: %w", err)
	}
	c.remove(id)
	if c.mode == ModeConfirmingDelete && c.target == id {
		c.mode = ModeIdle
		c.target = ""
	}
	c.revision++
	c.mu.Unlock()

	c.metrics.Observe("delete", metrics.OutcomeSuccess)
	c.notifier.Deleted(title)
	c.render()
	return nil
}

// BeginDrag starts relocating an event.
func (c *Controller) BeginDrag(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.mode != ModeIdle {
		return c.transitionError("begin drag")
	}
	idx := c.indexOf(id)
	if idx < 0 {
		return entities.ErrEventNotFound
	}
	if _, busy := c.inFlight[id]; busy {
		return entities.ErrEventBusy
	}
	c.mode = ModeDragging
	c.target = id
	c.drag = &Drag{EventID: id, Origin: c.events[idx].Slot()}
	return nil
}

// Drop ends the drag on the slot identified by key. Invalid keys are
// ignored. Otherwise the event moves locally at once, and is either
// confirmed with the store's record or restored to exactly what it was.
func (c *Controller) Drop(ctx context.Context, key string) (DropResult, error) {
	c.mu.Lock()
	if c.mode != ModeDragging || c.drag == nil {
		err := c.transitionError("drop")
		c.mu.Unlock()
		return DropIgnored, err
	}
	drag := *c.drag
	c.mode = ModeIdle
	c.target = ""
	c.drag = nil

	dest, err := entities.ParseSlotKey(key)
	if err != nil || !entities.IsSlotTime(dest.Time) {
		c.mu.Unlock()
		c.logger.Debugw("Ignoring drop on invalid target", "key", key, "event_id", drag.EventID)
		c.metrics.Observe("relocate", metrics.OutcomeIgnored)
		return DropIgnored, nil
	}

	idx := c.indexOf(drag.EventID)
	if idx < 0 {
		c.mu.Unlock()
		c.metrics.Observe("relocate", metrics.OutcomeIgnored)
		return DropIgnored, nil
	}
	prior := c.events[idx]
	if prior.Slot() == dest {
		c.mu.Unlock()
		c.metrics.Observe("relocate", metrics.OutcomeUnchanged)
		return DropUnchanged, nil
	}
	if _, busy := c.inFlight[prior.ID]; busy {
		c.mu.Unlock()
		c.metrics.Observe("relocate", metrics.OutcomeRejected)
		c.notifier.Failed("move", entities.ErrEventBusy)
		return DropRejected, entities.ErrEventBusy
	}

	optimistic := prior.MovedTo(dest)
	c.events[idx] = optimistic
	c.inFlight[prior.ID] = struct{}{}
	c.revision++
	c.mu.Unlock()
	c.render()

	updated, err := c.store.Update(ctx, optimistic)

	c.mu.Lock()
	delete(c.inFlight, prior.ID)
	if err != nil {
		c.replace(prior)
		c.revision++
		c.mu.Unlock()

		c.logger.WithFields("event_id", prior.ID, "from", prior.Slot().String(), "to", dest.String()).
			WithError(err).
			Warnw("Move rejected, restored previous slot")
		c.metrics.Observe("relocate", metrics.OutcomeRollback)
		c.notifier.Failed("move", err)
		c.render()
		return DropRolledBack, fmt.Errorf("move event: %w", err)
	}
	c.replace(updated)
	c.revision++
	c.mu.Unlock()

	c.metrics.Observe("relocate", metrics.OutcomeSuccess)
	c.notifier.Moved(updated.Title, updated.Date, updated.Time)
	c.render()
	return DropCommitted, nil
}

// Cancel closes any open form or confirmation and abandons a drag.
func (c *Controller) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.mode = ModeIdle
	c.target = ""
	c.drag = nil
}

// Mode returns the current interaction mode and the event it targets, if any.
func (c *Controller) Mode() (Mode, string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode, c.target
}

// PendingDrag returns the drag in progress.
func (c *Controller) PendingDrag() (Drag, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.drag == nil {
		return Drag{}, false
	}
	return *c.drag, true
}

// Events returns a copy of every known event.
func (c *Controller) Events() []entities.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]entities.Event(nil), c.events...)
}

// Event returns the local copy of one event.
func (c *Controller) Event(id string) (entities.Event, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	idx := c.indexOf(id)
	if idx < 0 {
		return entities.Event{}, false
	}
	return c.events[idx], true
}

// Status reports the outcome of the last Load.
func (c *Controller) Status() (LoadStatus, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status, c.loadErr
}

// WeekStart returns the Monday of the displayed week.
func (c *Controller) WeekStart() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.weekStart
}

// Revision increases on every change to the visible state.
func (c *Controller) Revision() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.revision
}

// Busy reports whether a change to the event awaits the store.
func (c *Controller) Busy(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, busy := c.inFlight[id]
	return busy
}

func (c *Controller) indexOf(id string) int {
	for i := range c.events {
		if c.events[i].ID == id {
			return i
		}
	}
	return -1
}

func (c *Controller) replace(e entities.Event) {
	if idx := c.indexOf(e.ID); idx >= 0 {
		c.events[idx] = e
	}
}

func (c *Controller) remove(id string) {
	if idx := c.indexOf(id); idx >= 0 {
		c.events = append(c.events[:idx], c.events[idx+1:]...)
	}
}

func (c *Controller) transitionError(op string) error {
	return fmt.Errorf("%w: %s while %s", entities.ErrInvalidTransition, op, c.mode)
}

func (c *Controller) fail(op string, err error) {
	outcome := metrics.OutcomeFailure
	if errors.Is(err, entities.ErrVersionConflict) {
		outcome = metrics.OutcomeRejected
	}
	c.logger.WithError(err).Errorw("Agenda operation failed", "operation", op)
	c.metrics.Observe(op, outcome)
	c.notifier.Failed(op, err)
}

func (c *Controller) render() {
	if c.onRender != nil {
		c.onRender()
	}
}

func applyEdit(e entities.Event, req ports.EditEventRequest) entities.Event {
	if req.Title != nil {
		e.Title = *req.Title
	}
	if req.Description != nil {
		e.Description = *req.Description
	}
	if req.Date != nil {
		e.Date = *req.Date
	}
	if req.Time != nil {
		e.Time = *req.Time
	}
	if req.Color != nil {
		e.Color = *req.Color
	}
	return e
}

func updateRequest(e entities.Event) ports.UpdateEventRequest {
	return ports.UpdateEventRequest{
		Title:       e.Title,
		Description: e.Description,
		Date:        e.Date,
		Time:        e.Time,
		Color:       e.Color,
		Version:     e.Version,
	}
}
