package http

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/inkbook/studio/internal/adapters/ics"
	"github.com/inkbook/studio/internal/domain/entities"
	"github.com/inkbook/studio/internal/infrastructure/logger"
	"github.com/inkbook/studio/internal/ports"
)

// EventHandler handles Event Store requests
type EventHandler struct {
	eventService ports.EventService
	location     *time.Location
	logger       *logger.Logger

	writeCalendar func(io.Writer, []entities.Event, ics.Options) error
}

// NewEventHandler creates a new event handler. loc is the studio timezone
// used when exporting calendars.
func NewEventHandler(eventService ports.EventService, loc *time.Location, logger *logger.Logger) *EventHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &EventHandler{
		eventService: eventService,
		location:     loc,
		logger:       logger.WithComponent("event_handler"),

		writeCalendar: ics.Write,
	}
}

// ListEvents godoc
// @Summary      List a user's events
// @Tags         events
// @Produce      json
// @Param        userId  path      string  true  "User ID"
// @Success      200     {array}   entities.Event
// @Failure      401     {object}  ports.ErrorResponse
// @Failure      403     {object}  ports.ErrorResponse
// @Security     BearerAuth
// @Router       /events/{userId} [get]
func (h *EventHandler) ListEvents(c echo.Context) error {
	userID, err := h.ownerParam(c)
	if err != nil {
		return err
	}

	events, err := h.eventService.ListEvents(c.Request().Context(), userID)
	if err != nil {
		h.logger.Errorw("List events failed", "error", err, "user_id", userID)
		return toHTTPError(err)
	}
	if events == nil {
		events = []*entities.Event{}
	}

	return c.JSON(http.StatusOK, events)
}

// ExportEvents godoc
// @Summary      Export a user's events as iCalendar
// @Tags         events
// @Produce      text/calendar
// @Param        userId  path  string  true  "User ID"
// @Success      200
// @Failure      403     {object}  ports.ErrorResponse
// @Security     BearerAuth
// @Router       /events/{userId}/ics [get]
func (h *EventHandler) ExportEvents(c echo.Context) error {
	userID, err := h.ownerParam(c)
	if err != nil {
		return err
	}

	events, err := h.eventService.ListEvents(c.Request().Context(), userID)
	if err != nil {
		h.logger.Errorw("Export events failed", "error", err, "user_id", userID)
		return toHTTPError(err)
	}

	list := make([]entities.Event, 0, len(events))
	for _, e := range events {
		list = append(list, *e)
	}

	var buf bytes.Buffer
	if err := h.writeCalendar(&buf, list, ics.Options{Name: "InkBook agenda", Location: h.location}); err != nil {
		h.logger.Errorw("Export events failed", "error", err, "user_id", userID)
		return toHTTPError(err)
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="agenda.ics"`)
	return c.Blob(http.StatusOK, "text/calendar; charset=utf-8", buf.Bytes())
}

// CreateEvent godoc
// @Summary      Create an event
// @Tags         events
// @Accept       json
// @Produce      json
// @Param        event  body      ports.CreateEventRequest  true  "Event"
// @Success      201    {object}  entities.Event
// @Failure      400    {object}  ports.ErrorResponse
// @Failure      403    {object}  ports.ErrorResponse
// @Security     BearerAuth
// @Router       /events [post]
func (h *EventHandler) CreateEvent(c echo.Context) error {
	userID := getUserIDFromContext(c)

	var req ports.CreateEventRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if err := c.Validate(&req); err != nil {
		return toHTTPError(err)
	}

	event, err := h.eventService.CreateEvent(c.Request().Context(), userID, req)
	if err != nil {
		h.logger.Errorw("Create event failed", "error", err, "user_id", userID)
		return toHTTPError(err)
	}

	return c.JSON(http.StatusCreated, event)
}

// UpdateEvent godoc
// @Summary      Replace an event
// @Description  The version must match the stored one; a stale version yields 409.
// @Tags         events
// @Accept       json
// @Produce      json
// @Param        id     path      string                    true  "Event ID"
// @Param        event  body      ports.UpdateEventRequest  true  "Event"
// @Success      200    {object}  entities.Event
// @Failure      400    {object}  ports.ErrorResponse
// @Failure      404    {object}  ports.ErrorResponse
// @Failure      409    {object}  ports.ErrorResponse
// @Security     BearerAuth
// @Router       /events/{id} [put]
func (h *EventHandler) UpdateEvent(c echo.Context) error {
	userID := getUserIDFromContext(c)
	id := c.Param("id")

	var req ports.UpdateEventRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if err := c.Validate(&req); err != nil {
		return toHTTPError(err)
	}

	event, err := h.eventService.UpdateEvent(c.Request().Context(), userID, id, req)
	if err != nil {
		h.logger.Errorw("Update event failed", "error", err, "user_id", userID, "event_id", id)
		return toHTTPError(err)
	}

	return c.JSON(http.StatusOK, event)
}

// DeleteEvent godoc
// @Summary      Delete an event
// @Tags         events
// @Param        id   path  string  true  "Event ID"
// @Success      204
// @Failure      404  {object}  ports.ErrorResponse
// @Security     BearerAuth
// @Router       /events/{id} [delete]
func (h *EventHandler) DeleteEvent(c echo.Context) error {
	userID := getUserIDFromContext(c)
	id := c.Param("id")

	if err := h.eventService.DeleteEvent(c.Request().Context(), userID, id); err != nil {
		h.logger.Errorw("Delete event failed", "error", err, "user_id", userID, "event_id", id)
		return toHTTPError(err)
	}

	return c.NoContent(http.StatusNoContent)
}

// ownerParam returns the :userId path parameter, which must be the caller.
func (h *EventHandler) ownerParam(c echo.Context) (string, error) {
	userID := c.Param("userId")
	caller := getUserIDFromContext(c)
	if userID != caller {
		h.logger.LogSecurityEvent("foreign_agenda_access", caller, c.RealIP(), map[string]interface{}{
			"requested_user": userID,
		})
		return "", echo.NewHTTPError(http.StatusForbidden, "Cannot access another user's agenda")
	}
	return userID, nil
}

// toHTTPError maps domain errors onto HTTP statuses.
func toHTTPError(err error) error {
	switch {
	case errors.Is(err, entities.ErrValidation):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, entities.ErrUnauthorized):
		return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
	case errors.Is(err, entities.ErrForbidden):
		return echo.NewHTTPError(http.StatusForbidden, "Event belongs to another user")
	case errors.Is(err, entities.ErrEventNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "Event not found")
	case errors.Is(err, entities.ErrVersionConflict):
		return echo.NewHTTPError(http.StatusConflict, "Event was changed by another request")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "Internal server error").SetInternal(err)
	}
}

// RegisterEventRoutes mounts the Event Store endpoints on g.
func RegisterEventRoutes(g *echo.Group, h *EventHandler) {
	g.GET("/events/:userId", h.ListEvents)
	g.GET("/events/:userId/ics", h.ExportEvents)
	g.POST("/events", h.CreateEvent)
	g.PUT("/events/:id", h.UpdateEvent)
	g.DELETE("/events/:id", h.DeleteEvent)
}
