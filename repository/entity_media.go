package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/tnqbao/gau-media-service/entity"
	"gorm.io/gorm"
)

type EntityMediaRepository struct {
	db *gorm.DB
}

func NewEntityMediaRepository(db *gorm.DB) *EntityMediaRepository {
	return &EntityMediaRepository{db: db}
}

// LockEntity serialises association writers for one owner until the
// surrounding transaction ends. On Postgres it takes a transaction-scoped
// advisory lock; SQLite already serialises writers.
func (r *EntityMediaRepository) LockEntity(ctx context.Context, entityID string, entityType entity.EntityType) error {
	if r.db.Dialector.Name() != "postgres" {
		return nil
	}
	return r.db.WithContext(ctx).
		Exec("SELECT pg_advisory_xact_lock(hashtext(?))", string(entityType)+":"+entityID).Error
}

func (r *EntityMediaRepository) Create(ctx context.Context, link *entity.EntityMedia) error {
	return r.db.WithContext(ctx).Create(link).Error
}

func (r *EntityMediaRepository) CountByEntity(ctx context.Context, entityID string, entityType entity.EntityType) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.EntityMedia{}).
		Where("entity_id = ? AND entity_type = ?", entityID, entityType).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *EntityMediaRepository) CountPrimaryByEntity(ctx context.Context, entityID string, entityType entity.EntityType) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.EntityMedia{}).
		Where("entity_id = ? AND entity_type = ? AND is_primary = ?", entityID, entityType, true).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *EntityMediaRepository) CountByMediaID(ctx context.Context, mediaID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.EntityMedia{}).
		Where("media_id = ?", mediaID).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *EntityMediaRepository) FindLink(ctx context.Context, mediaID, entityID string, entityType entity.EntityType) (*entity.EntityMedia, error) {
	var link entity.EntityMedia
	err := r.db.WithContext(ctx).
		Where("media_id = ? AND entity_id = ? AND entity_type = ?", mediaID, entityID, entityType).
		First(&link).Error
	if err != nil {
		return nil, err
	}
	return &link, nil
}

// FindFirstByEntity returns the association with the lowest display order.
func (r *EntityMediaRepository) FindFirstByEntity(ctx context.Context, entityID string, entityType entity.EntityType) (*entity.EntityMedia, error) {
	var link entity.EntityMedia
	err := r.db.WithContext(ctx).
		Where("entity_id = ? AND entity_type = ?", entityID, entityType).
		Order("display_order ASC").Order("created_at ASC").
		First(&link).Error
	if err != nil {
		return nil, err
	}
	return &link, nil
}

// ClearPrimaryExcept unsets is_primary on every association of the owner
// other than keepID.
func (r *EntityMediaRepository) ClearPrimaryExcept(ctx context.Context, entityID string, entityType entity.EntityType, keepID uuid.UUID, updatedBy string) error {
	return r.db.WithContext(ctx).Model(&entity.EntityMedia{}).
		Where("entity_id = ? AND entity_type = ? AND id <> ? AND is_primary = ?", entityID, entityType, keepID, true).
		Updates(map[string]interface{}{
			"is_primary": false,
			"updated_by": updatedBy,
			"updated_at": time.Now(),
		}).Error
}

// ClearPrimary unsets is_primary on every association of the owner.
func (r *EntityMediaRepository) ClearPrimary(ctx context.Context, entityID string, entityType entity.EntityType, updatedBy string) error {
	return r.db.WithContext(ctx).Model(&entity.EntityMedia{}).
		Where("entity_id = ? AND entity_type = ? AND is_primary = ?", entityID, entityType, true).
		Updates(map[string]interface{}{
			"is_primary": false,
			"updated_by": updatedBy,
			"updated_at": time.Now(),
		}).Error
}

// MarkPrimary sets is_primary on the association of mediaID with the owner and
// returns the number of rows updated.
func (r *EntityMediaRepository) MarkPrimary(ctx context.Context, mediaID, entityID string, entityType entity.EntityType, updatedBy string) (int64, error) {
	result := r.db.WithContext(ctx).Model(&entity.EntityMedia{}).
		Where("media_id = ? AND entity_id = ? AND entity_type = ?", mediaID, entityID, entityType).
		Updates(map[string]interface{}{
			"is_primary": true,
			"updated_by": updatedBy,
			"updated_at": time.Now(),
		})
	return result.RowsAffected, result.Error
}

func (r *EntityMediaRepository) UpdateDisplayOrder(ctx context.Context, mediaID, entityID string, entityType entity.EntityType, order int, updatedBy string) (int64, error) {
	result := r.db.WithContext(ctx).Model(&entity.EntityMedia{}).
		Where("media_id = ? AND entity_id = ? AND entity_type = ?", mediaID, entityID, entityType).
		Updates(map[string]interface{}{
			"display_order": order,
			"updated_by":    updatedBy,
			"updated_at":    time.Now(),
		})
	return result.RowsAffected, result.Error
}

// ListByEntity returns the owner's media joined with their associations,
// primary first, then by ascending display order.
func (r *EntityMediaRepository) ListByEntity(ctx context.Context, entityID string, entityType entity.EntityType) ([]entity.MediaLink, error) {
	var links []entity.MediaLink
	err := r.db.WithContext(ctx).
		Table("entity_media AS em").
		Select("m.*, em.id AS link_id, em.entity_id AS entity_id, em.entity_type AS entity_type, em.is_primary AS is_primary, em.display_order AS display_order").
		Joins("JOIN media AS m ON m.id = em.media_id").
		Where("em.entity_id = ? AND em.entity_type = ?", entityID, entityType).
		Order("em.is_primary DESC").
		Order("em.display_order ASC").
		Order("em.created_at ASC").
		Scan(&links).Error
	if err != nil {
		return nil, err
	}
	return links, nil
}

func (r *EntityMediaRepository) FindByMediaID(ctx context.Context, mediaID string) ([]entity.EntityMedia, error) {
	var links []entity.EntityMedia
	err := r.db.WithContext(ctx).Where("media_id = ?", mediaID).Find(&links).Error
	if err != nil {
		return nil, err
	}
	return links, nil
}

func (r *EntityMediaRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&entity.EntityMedia{}, "id = ?", id).Error
}

func (r *EntityMediaRepository) DeleteByMediaID(ctx context.Context, mediaID string) (int64, error) {
	result := r.db.WithContext(ctx).Delete(&entity.EntityMedia{}, "media_id = ?", mediaID)
	return result.RowsAffected, result.Error
}
