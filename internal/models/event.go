package models

// Event is the structured record every externally observable action emits:
// the entity it touched, the acting user, and the economically relevant
// quantities. Events are the system's only queryable history.
type Event struct {
	Base
	EntityType string `gorm:"not null;index" json:"entity_type"`
	EntityID   string `gorm:"type:uuid;not null;index" json:"entity_id"`
	ActorID    string `gorm:"type:uuid;not null;index" json:"actor_id"`
	Kind       string `gorm:"not null" json:"kind"`
	Quantities string `json:"quantities,omitempty"`
}
