package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/inkbook/studio/internal/domain/entities"
	"github.com/inkbook/studio/internal/ports"
)

const eventColumns = `id, user_id, title, description, event_date, event_time, color, version, created_at, updated_at`

// EventRepositoryImpl implements the EventRepository interface
type EventRepositoryImpl struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewEventRepository creates a new event repository
func NewEventRepository(db *sqlx.DB) ports.EventRepository {
	return &EventRepositoryImpl{db: db, now: func() time.Time { return time.Now().UTC() }}
}

func (r *EventRepositoryImpl) Create(ctx context.Context, event *entities.Event) error {
	query := r.db.Rebind(`
		INSERT INTO events (` + eventColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)

	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	now := r.now()
	event.Version = 1
	event.CreatedAt = now
	event.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, query,
		event.ID, event.UserID, event.Title, event.Description,
		event.Date, event.Time, event.Color, event.Version,
		event.CreatedAt, event.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create event: %w", err)
	}

	return nil
}

func (r *EventRepositoryImpl) GetByID(ctx context.Context, id string) (*entities.Event, error) {
	query := r.db.Rebind(`SELECT ` + eventColumns + ` FROM events WHERE id = ?`)

	var event entities.Event
	if err := r.db.GetContext(ctx, &event, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, entities.ErrEventNotFound
		}
		return nil, fmt.Errorf("get event by id: %w", err)
	}

	return &event, nil
}

func (r *EventRepositoryImpl) Update(ctx context.Context, event *entities.Event, expectedVersion int) error {
	query := r.db.Rebind(`
		UPDATE events
		SET title = ?, description = ?, event_date = ?, event_time = ?, color = ?,
			version = version + 1, updated_at = ?
		WHERE id = ? AND version = ?`)

	now := r.now()
	result, err := r.db.ExecContext(ctx, query,
		event.Title, event.Description, event.Date, event.Time, event.Color,
		now, event.ID, expectedVersion,
	)
	if err != nil {
		return fmt.Errorf("update event: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		if _, err := r.GetByID(ctx, event.ID); err != nil {
			return err
		}
		return entities.ErrVersionConflict
	}

	event.Version = expectedVersion + 1
	event.UpdatedAt = now
	return nil
}

func (r *EventRepositoryImpl) Delete(ctx context.Context, id string) error {
	query := r.db.Rebind(`DELETE FROM events WHERE id = ?`)

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return entities.ErrEventNotFound
	}

	return nil
}

func (r *EventRepositoryImpl) ListByUser(ctx context.Context, userID string) ([]*entities.Event, error) {
	query := r.db.Rebind(`
		SELECT ` + eventColumns + `
		FROM events
		WHERE user_id = ?
		ORDER BY event_date, event_time, id`)

	events := []*entities.Event{}
	if err := r.db.SelectContext(ctx, &events, query, userID); err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}

	return events, nil
}
