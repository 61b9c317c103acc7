package service

import (
	"context"
	"time"

	"github.com/tnqbao/gau-media-service/entity"
	"github.com/tnqbao/gau-media-service/infra/produce"
	"github.com/tnqbao/gau-media-service/repository"
	"gorm.io/datatypes"
)

func (s *Service) GetByID(ctx context.Context, id string) (record *MediaRecord, err error) {
	ctx, span := s.startSpan(ctx, "GetByID")
	defer func() { endSpan(span, err) }()

	if id == "" {
		return nil, invalidFormat("media id is required")
	}

	media, err := s.repo.MediaRepo.FindByID(ctx, id)
	if err != nil {
		return nil, wrapRepoError(err, "media %s not found", id)
	}

	s.refreshURL(ctx, media)
	return newMediaRecord(media, nil), nil
}

type UpdateMediaInput struct {
	Title    *string
	Metadata map[string]interface{}
	UserID   string
}

// UpdateMedia changes the descriptive fields of a media row. The stored
// object and its associations are untouched.
func (s *Service) UpdateMedia(ctx context.Context, id string, in UpdateMediaInput) (record *MediaRecord, err error) {
	ctx, span := s.startSpan(ctx, "UpdateMedia")
	defer func() { endSpan(span, err) }()

	if id == "" {
		return nil, invalidFormat("media id is required")
	}
	if in.Title == nil && in.Metadata == nil {
		return nil, invalidFormat("nothing to update")
	}

	fields := map[string]interface{}{
		"updated_by": in.UserID,
		"updated_at": time.Now(),
	}
	if in.Title != nil {
		fields["title"] = *in.Title
	}
	if in.Metadata != nil {
		fields["metadata"] = datatypes.JSONMap(in.Metadata)
	}

	rows, err := s.repo.MediaRepo.UpdateFields(ctx, id, fields)
	if err != nil {
		return nil, internalFailure(err, "failed to update media")
	}
	if rows == 0 {
		return nil, notFound("media %s not found", id)
	}

	return s.GetByID(ctx, id)
}

type DeleteResult struct {
	ID string `json:"id"`
}

// Delete removes every association of the media and then the media row in
// one transaction. The stored object is removed asynchronously.
func (s *Service) Delete(ctx context.Context, id, userID string) (result *DeleteResult, err error) {
	ctx, span := s.startSpan(ctx, "Delete")
	defer func() { endSpan(span, err) }()

	if id == "" {
		return nil, invalidFormat("media id is required")
	}

	var media *entity.Media
	var unlinked int64
	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		var err error
		media, err = tx.MediaRepo.FindByID(ctx, id)
		if err != nil {
			return wrapRepoError(err, "media %s not found", id)
		}

		unlinked, err = tx.EntityMediaRepo.DeleteByMediaID(ctx, id)
		if err != nil {
			return internalFailure(err, "failed to delete associations")
		}

		if _, err := tx.MediaRepo.Delete(ctx, id); err != nil {
			return internalFailure(err, "failed to delete media")
		}
		return nil
	})
	if err != nil {
		return nil, wrapRepoError(err, "failed to delete media")
	}

	if s.cache != nil {
		if err := s.cache.DeletePresignedURL(ctx, id); err != nil {
			s.logWarn(ctx, "[Media] Failed to invalidate cached URL for media %s: %v", id, err)
		}
	}
	s.scheduleBlobDelete(ctx, id, media.FilePath, produce.BlobDeleteReasonMediaDeleted, userID)

	s.logInfo(ctx, "[Media] Deleted media %s and %d associations", id, unlinked)
	return &DeleteResult{ID: id}, nil
}

// scheduleBlobDelete queues removal of a stored object. A publish failure
// only leaves an orphaned object behind, so it is logged and not returned.
func (s *Service) scheduleBlobDelete(ctx context.Context, mediaID, filePath, reason, userID string) {
	if s.events == nil {
		return
	}

	err := s.events.PublishBlobDelete(ctx, produce.DeleteBlobMessage{
		MediaID:  mediaID,
		FilePath: filePath,
		Reason:   reason,
		UserID:   userID,
	})
	if err != nil {
		s.logError(ctx, err, "[Media] Failed to publish blob delete for media %s: %v", mediaID, err)
		return
	}
	s.logInfo(ctx, "[Media] Published blob delete for %s (%s)", filePath, reason)
}
