package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/tnqbao/gau-media-service/entity"
	"github.com/tnqbao/gau-media-service/repository"
	"gorm.io/gorm"
)

type AssociateInput struct {
	MediaID      string
	EntityID     string
	EntityType   entity.EntityType
	IsPrimary    *bool
	DisplayOrder *int
	UserID       string
}

// Associate links an existing media object to an owner. Re-linking an
// existing pair returns the stored association unchanged.
func (s *Service) Associate(ctx context.Context, in AssociateInput) (link *entity.EntityMedia, err error) {
	ctx, span := s.startSpan(ctx, "Associate")
	defer func() { endSpan(span, err) }()

	if in.MediaID == "" {
		return nil, invalidFormat("media id is required")
	}
	if err := validateOwner(in.EntityID, in.EntityType); err != nil {
		return nil, err
	}

	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		exists, err := tx.MediaRepo.ExistsByID(ctx, in.MediaID)
		if err != nil {
			return internalFailure(err, "failed to load media")
		}
		if !exists {
			return notFound("media %s not found", in.MediaID)
		}

		link, _, err = s.associate(ctx, tx, in)
		return err
	})
	if err != nil {
		return nil, wrapRepoError(err, "failed to associate media")
	}
	return link, nil
}

// associate runs the insert-then-clear sequence inside tx. The returned bool
// reports whether a new row was written.
func (s *Service) associate(ctx context.Context, tx *repository.Repository, in AssociateInput) (*entity.EntityMedia, bool, error) {
	if err := tx.EntityMediaRepo.LockEntity(ctx, in.EntityID, in.EntityType); err != nil {
		return nil, false, internalFailure(err, "failed to lock entity")
	}

	existing, err := tx.EntityMediaRepo.FindLink(ctx, in.MediaID, in.EntityID, in.EntityType)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, internalFailure(err, "failed to load association")
	}

	count, err := tx.EntityMediaRepo.CountByEntity(ctx, in.EntityID, in.EntityType)
	if err != nil {
		return nil, false, internalFailure(err, "failed to count associations")
	}

	isPrimary := count == 0
	if in.IsPrimary != nil {
		isPrimary = *in.IsPrimary
	}
	displayOrder := int(count)
	if in.DisplayOrder != nil {
		displayOrder = *in.DisplayOrder
	}

	now := time.Now()
	link := &entity.EntityMedia{
		ID:           uuid.New(),
		MediaID:      in.MediaID,
		EntityID:     in.EntityID,
		EntityType:   in.EntityType,
		IsPrimary:    isPrimary,
		DisplayOrder: displayOrder,
		CreatedAt:    now,
		CreatedBy:    in.UserID,
		UpdatedAt:    now,
		UpdatedBy:    in.UserID,
	}
	if err := tx.EntityMediaRepo.Create(ctx, link); err != nil {
		return nil, false, internalFailure(err, "failed to create association")
	}

	if isPrimary {
		if err := tx.EntityMediaRepo.ClearPrimaryExcept(ctx, in.EntityID, in.EntityType, link.ID, in.UserID); err != nil {
			return nil, false, internalFailure(err, "failed to clear previous primary")
		}
	}

	return link, true, nil
}

// SetPrimary makes mediaID the primary media of the owner. The owner's
// previous primary is cleared even when no association for mediaID exists.
func (s *Service) SetPrimary(ctx context.Context, mediaID, entityID string, entityType entity.EntityType, userID string) (record *MediaRecord, err error) {
	ctx, span := s.startSpan(ctx, "SetPrimary")
	defer func() { endSpan(span, err) }()

	if mediaID == "" {
		return nil, invalidFormat("media id is required")
	}
	if err := validateOwner(entityID, entityType); err != nil {
		return nil, err
	}

	missing := false
	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := tx.EntityMediaRepo.LockEntity(ctx, entityID, entityType); err != nil {
			return internalFailure(err, "failed to lock entity")
		}
		if err := tx.EntityMediaRepo.ClearPrimary(ctx, entityID, entityType, userID); err != nil {
			return internalFailure(err, "failed to clear primary")
		}

		rows, err := tx.EntityMediaRepo.MarkPrimary(ctx, mediaID, entityID, entityType, userID)
		if err != nil {
			return internalFailure(err, "failed to mark primary")
		}
		if rows == 0 {
			missing = true
			return nil
		}

		media, err := tx.MediaRepo.FindByID(ctx, mediaID)
		if err != nil {
			return wrapRepoError(err, "media %s not found", mediaID)
		}
		link, err := tx.EntityMediaRepo.FindLink(ctx, mediaID, entityID, entityType)
		if err != nil {
			return internalFailure(err, "failed to load association")
		}
		record = newMediaRecord(media, link)
		return nil
	})
	if err != nil {
		return nil, wrapRepoError(err, "failed to set primary media")
	}
	if missing {
		return nil, notFound("media %s is not associated with %s %s", mediaID, entityType, entityID)
	}

	s.refreshURL(ctx, &record.Media)
	return record, nil
}

// ListByEntity returns the owner's media, primary first, then by ascending
// display order.
func (s *Service) ListByEntity(ctx context.Context, entityID string, entityType entity.EntityType) (records []MediaRecord, err error) {
	ctx, span := s.startSpan(ctx, "ListByEntity")
	defer func() { endSpan(span, err) }()

	if err := validateOwner(entityID, entityType); err != nil {
		return nil, err
	}

	links, err := s.repo.EntityMediaRepo.ListByEntity(ctx, entityID, entityType)
	if err != nil {
		return nil, internalFailure(err, "failed to list media")
	}

	records = make([]MediaRecord, 0, len(links))
	refs := make([]blobRef, 0, len(links))
	for i := range links {
		link := links[i]
		entityIDCopy := link.EntityID
		entityTypeCopy := link.EntityType
		records = append(records, MediaRecord{
			Media:        link.Media,
			EntityID:     &entityIDCopy,
			EntityType:   &entityTypeCopy,
			IsPrimary:    link.IsPrimary,
			DisplayOrder: link.DisplayOrder,
		})
		refs = append(refs, blobRef{ID: link.ID, FilePath: link.FilePath})
	}

	if len(records) == 0 {
		return records, nil
	}

	urls, err := s.presignAll(ctx, refs, s.opts.PresignTTL)
	if err != nil {
		return nil, err
	}
	for i := range records {
		if url, ok := urls[records[i].ID]; ok && url != nil {
			records[i].FileURL = url
		}
	}

	return records, nil
}

// Unlink removes one association. The media row is kept.
func (s *Service) Unlink(ctx context.Context, mediaID, entityID string, entityType entity.EntityType, userID string) (err error) {
	ctx, span := s.startSpan(ctx, "Unlink")
	defer func() { endSpan(span, err) }()

	if mediaID == "" {
		return invalidFormat("media id is required")
	}
	if err := validateOwner(entityID, entityType); err != nil {
		return err
	}

	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := tx.EntityMediaRepo.LockEntity(ctx, entityID, entityType); err != nil {
			return internalFailure(err, "failed to lock entity")
		}

		link, err := tx.EntityMediaRepo.FindLink(ctx, mediaID, entityID, entityType)
		if err != nil {
			return wrapRepoError(err, "media %s is not associated with %s %s", mediaID, entityType, entityID)
		}
		if err := tx.EntityMediaRepo.Delete(ctx, link.ID); err != nil {
			return internalFailure(err, "failed to delete association")
		}

		if !link.IsPrimary || s.opts.UnlinkPromotion != UnlinkPromotionNext {
			return nil
		}

		next, err := tx.EntityMediaRepo.FindFirstByEntity(ctx, entityID, entityType)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return internalFailure(err, "failed to load next association")
		}
		if _, err := tx.EntityMediaRepo.MarkPrimary(ctx, next.MediaID, entityID, entityType, userID); err != nil {
			return internalFailure(err, "failed to promote next association")
		}
		return nil
	})
	if err != nil {
		return wrapRepoError(err, "failed to unlink media")
	}

	s.logInfo(ctx, "[Media] Unlinked media %s from %s %s", mediaID, entityType, entityID)
	return nil
}

// Reorder sets each listed association's display order to its position in
// mediaIDs. Associations not listed keep their order.
func (s *Service) Reorder(ctx context.Context, entityID string, entityType entity.EntityType, mediaIDs []string, userID string) (records []MediaRecord, err error) {
	ctx, span := s.startSpan(ctx, "Reorder")
	defer func() { endSpan(span, err) }()

	if err := validateOwner(entityID, entityType); err != nil {
		return nil, err
	}
	if len(mediaIDs) == 0 {
		return nil, invalidFormat("media_ids must not be empty")
	}
	seen := make(map[string]struct{}, len(mediaIDs))
	for _, id := range mediaIDs {
		if id == "" {
			return nil, invalidFormat("media_ids must not contain empty ids")
		}
		if _, dup := seen[id]; dup {
			return nil, invalidFormat("media id %s is listed more than once", id)
		}
		seen[id] = struct{}{}
	}

	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := tx.EntityMediaRepo.LockEntity(ctx, entityID, entityType); err != nil {
			return internalFailure(err, "failed to lock entity")
		}
		for position, mediaID := range mediaIDs {
			rows, err := tx.EntityMediaRepo.UpdateDisplayOrder(ctx, mediaID, entityID, entityType, position, userID)
			if err != nil {
				return internalFailure(err, "failed to update display order")
			}
			if rows == 0 {
				return notFound("media %s is not associated with %s %s", mediaID, entityType, entityID)
			}
		}
		return nil
	})
	if err != nil {
		return nil, wrapRepoError(err, "failed to reorder media")
	}

	return s.ListByEntity(ctx, entityID, entityType)
}
