package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tnqbao/gau-media-service/entity"
	"github.com/tnqbao/gau-media-service/infra"
	"github.com/tnqbao/gau-media-service/infra/produce"
	"github.com/tnqbao/gau-media-service/repository"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const uploadURLTTL = 15 * time.Minute

type UploadInput struct {
	FileName     string
	FileKey      string
	EntityID     string
	EntityType   entity.EntityType
	IsPrimary    *bool
	DisplayOrder *int
	Title        *string
	Metadata     map[string]interface{}
	FileContent  string // data URL; empty when the object was uploaded with a presigned PUT
	FileSize     int64  // declared by the caller; the recorded size comes from the payload or the store
	MimeType     string
	UserID       string
}

func (in UploadInput) hasOwner() bool {
	return in.EntityID != "" || in.EntityType != ""
}

// association builds the link request for an upload. An upload without an
// explicit flag becomes the owner's primary media.
func (in UploadInput) association(mediaID string) AssociateInput {
	isPrimary := in.IsPrimary
	if isPrimary == nil {
		primary := true
		isPrimary = &primary
	}
	return AssociateInput{
		MediaID:      mediaID,
		EntityID:     in.EntityID,
		EntityType:   in.EntityType,
		IsPrimary:    isPrimary,
		DisplayOrder: in.DisplayOrder,
		UserID:       in.UserID,
	}
}

// Upload stores a new media object, or returns the existing one when the
// file key is already known. Either way the requested owner is linked.
func (s *Service) Upload(ctx context.Context, in UploadInput) (record *MediaRecord, err error) {
	ctx, span := s.startSpan(ctx, "Upload")
	defer func() { endSpan(span, err) }()

	if strings.TrimSpace(in.FileName) == "" {
		return nil, invalidFormat("file_name is required")
	}
	if in.hasOwner() {
		if err := validateOwner(in.EntityID, in.EntityType); err != nil {
			return nil, err
		}
	}
	if in.FileSize < 0 {
		return nil, invalidFormat("file_size must not be negative")
	}
	if in.FileContent == "" && strings.TrimSpace(in.FileKey) == "" {
		return nil, invalidFormat("file_content is required unless file_key names an uploaded object")
	}

	id, err := resolveMediaID(in.FileKey)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("media.id", id))

	existing, err := s.repo.MediaRepo.FindByID(ctx, id)
	if err == nil {
		s.dedupHits.Add(ctx, 1)
		s.logInfo(ctx, "[Media] Media %s already exists, skipping storage write", id)
		return s.attachExisting(ctx, existing, in)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, internalFailure(err, "failed to load media")
	}

	var (
		payload  *decodedPayload
		key      string
		mimeType string
		size     int64
	)
	if in.FileContent != "" {
		payload, err = decodeDataURL(in.FileContent, s.opts.MaxBytes)
		if err != nil {
			return nil, err
		}
		mimeType = effectiveMimeType(payload, in.MimeType)
		key = blobKey(id, mimeType, in.FileName)
		size = int64(len(payload.Data))
	} else {
		key, mimeType, size, err = s.uploadedObject(ctx, id, in.MimeType)
		if err != nil {
			return nil, err
		}
	}

	now := time.Now()
	media := &entity.Media{
		ID:        id,
		FileName:  in.FileName,
		FilePath:  key,
		FileURL:   s.resolveURL(ctx, blobRef{ID: id, FilePath: key}, s.opts.PresignTTL),
		FileSize:  size,
		MimeType:  mimeType,
		Type:      DeriveMediaType(mimeType),
		Title:     in.Title,
		Metadata:  datatypes.JSONMap(in.Metadata),
		CreatedAt: now,
		CreatedBy: in.UserID,
		UpdatedAt: now,
		UpdatedBy: in.UserID,
	}

	var (
		link   *entity.EntityMedia
		stored bool
	)
	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := tx.MediaRepo.Create(ctx, media); err != nil {
			return internalFailure(err, "failed to create media")
		}
		// The bytes are written only after the insert has claimed the id.
		if payload != nil {
			if err := s.store.Put(ctx, key, payload.Data, mimeType); err != nil {
				return newError(KindStorageFailure, err, "failed to store file")
			}
			stored = true
		}
		if !in.hasOwner() {
			return nil
		}
		var assocErr error
		link, _, assocErr = s.associate(ctx, tx, in.association(id))
		return assocErr
	})
	if err != nil {
		// A concurrent upload with the same key may have won the insert.
		if winner, findErr := s.repo.MediaRepo.FindByID(ctx, id); findErr == nil {
			s.dedupHits.Add(ctx, 1)
			return s.attachExisting(ctx, winner, in)
		}
		if stored {
			s.scheduleBlobDelete(ctx, id, key, produce.BlobDeleteReasonUploadFailed, in.UserID)
		}
		s.logError(ctx, err, "[Media] Failed to save media %s", id)
		return nil, wrapRepoError(err, "failed to save media")
	}
	if payload != nil {
		s.uploads.Add(ctx, 1)
	}

	s.logInfo(ctx, "[Media] Uploaded media %s (%s, %d bytes)", id, mimeType, size)
	return newMediaRecord(media, link), nil
}

// uploadedObject inspects the object a client PUT under the key reserved by
// PrepareUpload. The stored content type wins over the caller's unless the
// store only knows it as generic bytes.
func (s *Service) uploadedObject(ctx context.Context, id, callerMimeType string) (key, mimeType string, size int64, err error) {
	key = blobKeyPrefix + id
	info, err := s.store.Stat(ctx, key)
	if errors.Is(err, infra.ErrObjectNotFound) {
		return "", "", 0, invalidFormat("no uploaded object found for file_key %s", id)
	}
	if err != nil {
		return "", "", 0, newError(KindStorageFailure, err, "failed to inspect uploaded file")
	}
	if s.opts.MaxBytes > 0 && info.Size > s.opts.MaxBytes {
		return "", "", 0, invalidFormat("file exceeds max size of %d bytes", s.opts.MaxBytes)
	}

	mimeType = strings.ToLower(baseMimeType(info.ContentType))
	if mimeType == "" || mimeType == defaultMimeType {
		if caller := strings.ToLower(strings.TrimSpace(callerMimeType)); caller != "" {
			mimeType = caller
		}
	}
	if mimeType == "" {
		mimeType = defaultMimeType
	}
	return key, mimeType, info.Size, nil
}

// attachExisting links the requested owner to an already stored media row.
func (s *Service) attachExisting(ctx context.Context, media *entity.Media, in UploadInput) (*MediaRecord, error) {
	var link *entity.EntityMedia
	if in.hasOwner() {
		err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
			var err error
			link, _, err = s.associate(ctx, tx, in.association(media.ID))
			return err
		})
		if err != nil {
			return nil, wrapRepoError(err, "failed to associate media")
		}
	}

	s.refreshURL(ctx, media)
	return newMediaRecord(media, link), nil
}

// resolveMediaID returns the caller's file key normalised for use as an id,
// or a new UUID when none was given.
func resolveMediaID(fileKey string) (string, error) {
	fileKey = strings.TrimSpace(fileKey)
	if fileKey == "" {
		return uuid.NewString(), nil
	}

	fileKey = strings.TrimLeft(fileKey, "/")
	if fileKey == "" || strings.Contains(fileKey, "..") {
		return "", invalidFormat("invalid file_key")
	}
	if strings.ContainsAny(fileKey, "/\\") {
		return "", invalidFormat("file_key must not contain path separators")
	}
	if len(fileKey) > 255 {
		return "", invalidFormat("file_key must be at most 255 characters")
	}
	return fileKey, nil
}

// UploadTarget tells a client where to PUT the bytes of a new media object.
type UploadTarget struct {
	FileKey   string `json:"file_key"`
	FilePath  string `json:"file_path"`
	UploadURL string `json:"upload_url"`
	ExpiresIn int64  `json:"expires_in"`
}

// PrepareUpload reserves an id and returns a presigned PUT URL for it. The
// client registers the object afterwards by calling Upload with FileKey and
// no FileContent; the key is derived from FileKey alone.
func (s *Service) PrepareUpload(ctx context.Context, fileName, mimeType string) (target *UploadTarget, err error) {
	ctx, span := s.startSpan(ctx, "PrepareUpload")
	defer func() { endSpan(span, err) }()

	if strings.TrimSpace(fileName) == "" {
		return nil, invalidFormat("file_name is required")
	}
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	if mimeType == "" {
		mimeType = defaultMimeType
	}

	id := uuid.NewString() + extensionFor(mimeType, fileName)
	key := blobKeyPrefix + id

	url, err := s.store.PresignedPut(ctx, key, mimeType, uploadURLTTL)
	if err != nil {
		return nil, newError(KindStorageFailure, err, "failed to create upload URL")
	}

	return &UploadTarget{
		FileKey:   id,
		FilePath:  key,
		UploadURL: url,
		ExpiresIn: int64(uploadURLTTL.Seconds()),
	}, nil
}
