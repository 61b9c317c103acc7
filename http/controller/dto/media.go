package dto

type UploadMediaRequestDTO struct {
	FileName     string                 `json:"file_name" binding:"required,max=512"`
	FileKey      string                 `json:"file_key" binding:"max=255"`
	EntityID     string                 `json:"entity_id" binding:"max=255"`
	EntityType   string                 `json:"entity_type"`
	IsPrimary    *bool                  `json:"is_primary"`
	DisplayOrder *int                   `json:"display_order" binding:"omitempty,min=0"`
	Title        *string                `json:"title" binding:"omitempty,max=512"`
	Metadata     map[string]interface{} `json:"metadata"`
	FileContent  string                 `json:"file_content"`
	FileSize     int64                  `json:"file_size" binding:"min=0"`
	MimeType     string                 `json:"mime_type" binding:"max=255"`
}

type EntityRefRequestDTO struct {
	EntityID   string `json:"entity_id" binding:"required,max=255"`
	EntityType string `json:"entity_type" binding:"required"`
}

type AssociateMediaRequestDTO struct {
	EntityID     string `json:"entity_id" binding:"required,max=255"`
	EntityType   string `json:"entity_type" binding:"required"`
	IsPrimary    *bool  `json:"is_primary"`
	DisplayOrder *int   `json:"display_order" binding:"omitempty,min=0"`
}

type PresignedURLsRequestDTO struct {
	IDs       []string `json:"ids" binding:"max=1000"`
	ExpiresIn int64    `json:"expires_in" binding:"min=0"` // Seconds, 0 selects the default
}

type ReorderMediaRequestDTO struct {
	MediaIDs []string `json:"media_ids" binding:"required,min=1,max=1000"`
}

type UpdateMediaRequestDTO struct {
	Title    *string                `json:"title" binding:"omitempty,max=512"`
	Metadata map[string]interface{} `json:"metadata"`
}

type UploadURLRequestDTO struct {
	FileName string `json:"file_name" binding:"required,max=512"`
	MimeType string `json:"mime_type" binding:"max=255"`
}
