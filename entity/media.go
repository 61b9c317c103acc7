package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// MediaType is the category derived from a media object's MIME type.
type MediaType string

const (
	MediaTypeImage    MediaType = "IMAGE"
	MediaTypeVideo    MediaType = "VIDEO"
	MediaTypeDocument MediaType = "DOCUMENT"
	MediaTypeOther    MediaType = "OTHER"
)

// Media describes one stored binary object. A single row may be linked to any
// number of owning entities through EntityMedia rows.
type Media struct {
	ID        string            `json:"id" gorm:"type:varchar(255);primaryKey"`
	FileName  string            `json:"file_name" gorm:"type:varchar(512);not null"`
	FilePath  string            `json:"file_path" gorm:"type:varchar(1024);not null"` // Blob key, never starts with "/"
	FileURL   *string           `json:"file_url" gorm:"type:text"`                    // Last resolved URL, may be stale
	FileSize  int64             `json:"file_size" gorm:"not null;default:0"`
	MimeType  string            `json:"mime_type" gorm:"type:varchar(255);not null"`
	Type      MediaType         `json:"type" gorm:"type:varchar(32);not null;index"`
	Title     *string           `json:"title" gorm:"type:varchar(512)"`
	Metadata  datatypes.JSONMap `json:"metadata,omitempty"`
	CreatedAt time.Time         `json:"created_at" gorm:"not null;autoCreateTime"`
	CreatedBy string            `json:"created_by" gorm:"type:varchar(255)"`
	UpdatedAt time.Time         `json:"updated_at" gorm:"autoUpdateTime"`
	UpdatedBy string            `json:"updated_by" gorm:"type:varchar(255)"`
}

func (Media) TableName() string {
	return "media"
}

// MediaLink is a Media row joined with one of its EntityMedia associations.
type MediaLink struct {
	Media
	LinkID       uuid.UUID
	EntityID     string
	EntityType   EntityType
	IsPrimary    bool
	DisplayOrder int
}
