package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "tessera/internal/errors"
	"tessera/internal/pagination"
	"tessera/internal/services"
)

// EventHandler serves the append-only event history.
type EventHandler struct {
	eventService services.EventServicer
}

// NewEventHandler creates a new EventHandler.
func NewEventHandler(eventService services.EventServicer) *EventHandler {
	return &EventHandler{eventService: eventService}
}

// GetEntityEvents returns the event history of one entity
// @Summary     Get entity events
// @Description Get the paginated event history for a market entity, newest first
// @Tags        events
// @Produce     json
// @Security    BearerAuth
// @Param       entity_type path string true "Entity type (asset, rental, loan, auction, sale, stake_pool, proposal, treasury, user)"
// @Param       id path string true "Entity ID"
// @Param       page query int false "Page number"
// @Param       page_size query int false "Page size"
// @Success     200 {object} pagination.PageResponse[models.Event] "Paginated events"
// @Failure     400 {object} ErrorResponse "Invalid ID"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /events/{entity_type}/{id} [get]
func (h *EventHandler) GetEntityEvents(c *gin.Context) {
	entityType := c.Param("entity_type")
	if entityType == "" {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "Entity type is required"))
		return
	}

	entityID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.eventService.GetEntityEvents(entityType, entityID, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
