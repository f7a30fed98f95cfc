package services

import (
	"encoding/json"

	"gorm.io/gorm"

	"tessera/internal/logger"
	"tessera/internal/models"
	"tessera/internal/pagination"

	apperrors "tessera/internal/errors"
)

// eventService records the structured events that form the system's history.
type eventService struct {
	db *gorm.DB
}

// NewEventService creates a new EventServicer.
func NewEventService(db *gorm.DB) EventServicer {
	return &eventService{db: db}
}

// Emit records an event. Write failures are logged but never propagate, so a
// completed action is not undone by a history write.
func (s *eventService) Emit(actorID, entityType, entityID, kind string, quantities map[string]any) {
	var payload string
	if quantities != nil {
		data, err := json.Marshal(quantities)
		if err != nil {
			logger.Get().Errorw("failed to marshal event quantities", "error", err, "kind", kind)
			payload = "{}"
		} else {
			payload = string(data)
		}
	}

	event := &models.Event{
		EntityType: entityType,
		EntityID:   entityID,
		ActorID:    actorID,
		Kind:       kind,
		Quantities: payload,
	}

	if err := s.db.Create(event).Error; err != nil {
		logger.Get().Errorw("failed to create event",
			"error", err,
			"actor_id", actorID,
			"entity_type", entityType,
			"entity_id", entityID,
			"kind", kind,
		)
	}
}

// GetEntityEvents returns the event history for one entity, newest first.
func (s *eventService) GetEntityEvents(entityType, entityID string, page pagination.PageRequest) (*pagination.PageResponse[models.Event], error) {
	page.Defaults()

	base := s.db.Model(&models.Event{}).
		Where("entity_type = ? AND entity_id = ?", entityType, entityID)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var events []models.Event
	if err := s.db.Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		Order("created_at DESC").
		Scopes(pagination.Paginate(page)).Find(&events).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(events, page.Page, page.PageSize, totalItems)
	return &result, nil
}
