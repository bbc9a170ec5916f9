package ports

import (
	"context"

	"github.com/inkbook/studio/internal/domain/entities"
)

// EventService is the server-side Event Store
type EventService interface {
	ListEvents(ctx context.Context, userID string) ([]*entities.Event, error)
	CreateEvent(ctx context.Context, userID string, req CreateEventRequest) (*entities.Event, error)
	UpdateEvent(ctx context.Context, userID, id string, req UpdateEventRequest) (*entities.Event, error)
	DeleteEvent(ctx context.Context, userID, id string) error
}

// EventStore is the remote Event Store as seen by the agenda.
type EventStore interface {
	List(ctx context.Context, userID string) ([]entities.Event, error)
	Create(ctx context.Context, req CreateEventRequest) (entities.Event, error)
	Update(ctx context.Context, event entities.Event) (entities.Event, error)
	Delete(ctx context.Context, id string) error
}

// Notifier records human-readable agenda activity. Calls are fire-and-forget.
type Notifier interface {
	Created(title, date, time string)
	Updated(title string)
	Deleted(title string)
	Moved(title, date, time string)
	Failed(op string, err error)
}

// Request types

type CreateEventRequest struct {
	UserID      string `json:"userId"`
	Title       string `json:"title" validate:"required,notblank,max=200"`
	Description string `json:"description" validate:"max=2000"`
	Date        string `json:"date" validate:"required,datetime=2006-01-02"`
	Time        string `json:"time" validate:"required,slottime"`
	Color       string `json:"color" validate:"omitempty,palettecolor"`
}

// UpdateEventRequest carries a full event record. Version must match the
// stored one.
type UpdateEventRequest struct {
	Title       string `json:"title" validate:"required,notblank,max=200"`
	Description string `json:"description" validate:"max=2000"`
	Date        string `json:"date" validate:"required,datetime=2006-01-02"`
	Time        string `json:"time" validate:"required,slottime"`
	Color       string `json:"color" validate:"omitempty,palettecolor"`
	Version     int    `json:"version" validate:"min=0"`
}

// EditEventRequest is a partial edit from the agenda's edit form.
type EditEventRequest struct {
	Title       *string `json:"title" validate:"omitempty,notblank,max=200"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	Date        *string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Time        *string `json:"time" validate:"omitempty,slottime"`
	Color       *string `json:"color" validate:"omitempty,palettecolor"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type ErrorResponse struct {
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}
