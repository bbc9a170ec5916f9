package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/inkbook/studio/internal/domain/entities"
	"github.com/inkbook/studio/internal/infrastructure/logger"
	"github.com/inkbook/studio/internal/infrastructure/validation"
	"github.com/inkbook/studio/internal/ports"
)

var _ ports.EventService = (*EventService)(nil)

// EventService handles event-related operations for the Event Store API
type EventService struct {
	eventRepo ports.EventRepository
	cache     ports.CacheRepository
	cacheTTL  time.Duration
	validate  *validator.Validate
	logger    *logger.Logger
}

// NewEventService creates a new event service. cache may be nil.
func NewEventService(eventRepo ports.EventRepository, cache ports.CacheRepository, cacheTTL time.Duration, logger *logger.Logger) *EventService {
	return &EventService{
		eventRepo: eventRepo,
		cache:     cache,
		cacheTTL:  cacheTTL,
		validate:  validation.New(),
		logger:    logger.WithComponent("event_service"),
	}
}

func userEventsKey(userID string) string {
	return "events:user:" + userID
}

// ListEvents returns every event owned by the user
func (s *EventService) ListEvents(ctx context.Context, userID string) ([]*entities.Event, error) {
	if s.cache != nil {
		var cached []*entities.Event
		if err := s.cache.Get(ctx, userEventsKey(userID), &cached); err == nil {
			return cached, nil
		}
	}

	events, err := s.eventRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, userEventsKey(userID), events, s.cacheTTL); err != nil {
			s.logger.Warnw("Failed to cache events", "user_id", userID, "error", err)
		}
	}

	return events, nil
}

// CreateEvent creates a new event
func (s *EventService) CreateEvent(ctx context.Context, userID string, req ports.CreateEventRequest) (*entities.Event, error) {
	if req.UserID != "" && req.UserID != userID {
		return nil, entities.ErrForbidden
	}
	if err := validation.Struct(s.validate, req); err != nil {
		return nil, err
	}

	event := &entities.Event{
		UserID:      userID,
		Title:       req.Title,
		Description: req.Description,
		Date:        req.Date,
		Time:        req.Time,
		Color:       req.Color,
	}
	if event.Color == "" {
		event.Color = entities.ColorFor(event.Title)
	}

	if err := s.eventRepo.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}
	s.invalidate(ctx, userID)

	s.logger.Infow("Event created", "event_id", event.ID, "user_id", userID, "date", event.Date, "time", event.Time)

	return event, nil
}

// UpdateEvent replaces the mutable fields of an event owned by the user
func (s *EventService) UpdateEvent(ctx context.Context, userID, id string, req ports.UpdateEventRequest) (*entities.Event, error) {
	if err := validation.Struct(s.validate, req); err != nil {
		return nil, err
	}

	event, err := s.ownedEvent(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	event.Title = req.Title
	event.Description = req.Description
	event.Date = req.Date
	event.Time = req.Time
	event.Color = req.Color
	if event.Color == "" {
		event.Color = entities.ColorFor(event.Title)
	}

	if err := s.eventRepo.Update(ctx, event, req.Version); err != nil {
		if errors.Is(err, entities.ErrVersionConflict) || errors.Is(err, entities.ErrEventNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update event: %w", err)
	}
	s.invalidate(ctx, userID)

	s.logger.Infow("Event updated", "event_id", event.ID, "user_id", userID, "version", event.Version)

	return event, nil
}

// DeleteEvent deletes an event owned by the user
func (s *EventService) DeleteEvent(ctx context.Context, userID, id string) error {
	if _, err := s.ownedEvent(ctx, userID, id); err != nil {
		return err
	}

	if err := s.eventRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, entities.ErrEventNotFound) {
			return err
		}
		return fmt.Errorf("failed to delete event: %w", err)
	}
	s.invalidate(ctx, userID)

	s.logger.Infow("Event deleted", "event_id", id, "user_id", userID)

	return nil
}

func (s *EventService) ownedEvent(ctx context.Context, userID, id string) (*entities.Event, error) {
	event, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, entities.ErrEventNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to load event: %w", err)
	}
	if event.UserID != userID {
		return nil, entities.ErrForbidden
	}
	return event, nil
}

func (s *EventService) invalidate(ctx context.Context, userID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, userEventsKey(userID)); err != nil {
		s.logger.Warnw("Failed to invalidate events cache", "user_id", userID, "error", err)
	}
}
