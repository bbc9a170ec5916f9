package ports

import (
	"context"
	"time"

	"github.com/inkbook/studio/internal/domain/entities"
)

// EventRepository defines the interface for event persistence
type EventRepository interface {
	Create(ctx context.Context, event *entities.Event) error
	GetByID(ctx context.Context, id string) (*entities.Event, error)
	// Update writes the event if its stored version equals expectedVersion,
	// bumping the version. A mismatch yields entities.ErrVersionConflict.
	Update(ctx context.Context, event *entities.Event, expectedVersion int) error
	Delete(ctx context.Context, id string) error
	ListByUser(ctx context.Context, userID string) ([]*entities.Event, error)
}

// CacheRepository defines the interface for caching operations
type CacheRepository interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Get(ctx context.Context, key string, dest interface{}) error
	Delete(ctx context.Context, key string) error
}
