package entity

import (
	"time"

	"github.com/google/uuid"
)

// EntityType identifies which external collaborator owns an association.
type EntityType string

const (
	EntityTypeBusiness       EntityType = "BUSINESS"
	EntityTypeIndividual     EntityType = "INDIVIDUAL"
	EntityTypeSchool         EntityType = "SCHOOL"
	EntityTypeWaterSource    EntityType = "WATER_SOURCE"
	EntityTypeGrazingArea    EntityType = "GRAZING_AREA"
	EntityTypeHealthFacility EntityType = "HEALTH_FACILITY"
	EntityTypeMarket         EntityType = "MARKET"
	EntityTypeReligiousSite  EntityType = "RELIGIOUS_SITE"
	EntityTypeHousehold      EntityType = "HOUSEHOLD"
	EntityTypeSurvey         EntityType = "SURVEY"
)

var entityTypes = map[EntityType]struct{}{
	EntityTypeBusiness:       {},
	EntityTypeIndividual:     {},
	EntityTypeSchool:         {},
	EntityTypeWaterSource:    {},
	EntityTypeGrazingArea:    {},
	EntityTypeHealthFacility: {},
	EntityTypeMarket:         {},
	EntityTypeReligiousSite:  {},
	EntityTypeHousehold:      {},
	EntityTypeSurvey:         {},
}

// Valid reports whether t is one of the known owner kinds.
func (t EntityType) Valid() bool {
	_, ok := entityTypes[t]
	return ok
}

// EntityMedia links one Media to one owning entity. EntityID is opaque: the
// owner lives in another store and is never resolved here.
type EntityMedia struct {
	ID           uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	MediaID      string     `json:"media_id" gorm:"type:varchar(255);not null;uniqueIndex:idx_entity_media_link;index"`
	EntityID     string     `json:"entity_id" gorm:"type:varchar(255);not null;uniqueIndex:idx_entity_media_link;index:idx_entity_media_owner"`
	EntityType   EntityType `json:"entity_type" gorm:"type:varchar(64);not null;uniqueIndex:idx_entity_media_link;index:idx_entity_media_owner"`
	IsPrimary    bool       `json:"is_primary" gorm:"not null;default:false"`
	DisplayOrder int        `json:"display_order" gorm:"not null;default:0"`
	CreatedAt    time.Time  `json:"created_at" gorm:"not null;autoCreateTime"`
	CreatedBy    string     `json:"created_by" gorm:"type:varchar(255)"`
	UpdatedAt    time.Time  `json:"updated_at" gorm:"autoUpdateTime"`
	UpdatedBy    string     `json:"updated_by" gorm:"type:varchar(255)"`
}

func (EntityMedia) TableName() string {
	return "entity_media"
}
