package repository

import (
	"context"

	"github.com/tnqbao/gau-media-service/entity"
	"gorm.io/gorm"
)

type MediaRepository struct {
	db *gorm.DB
}

func NewMediaRepository(db *gorm.DB) *MediaRepository {
	return &MediaRepository{db: db}
}

func (r *MediaRepository) Create(ctx context.Context, media *entity.Media) error {
	return r.db.WithContext(ctx).Create(media).Error
}

func (r *MediaRepository) FindByID(ctx context.Context, id string) (*entity.Media, error) {
	var media entity.Media
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&media).Error
	if err != nil {
		return nil, err
	}
	return &media, nil
}

// FindByIDs loads every media row whose id is in ids with a single query.
// Missing ids are silently absent from the result.
func (r *MediaRepository) FindByIDs(ctx context.Context, ids []string) ([]entity.Media, error) {
	var media []entity.Media
	if len(ids) == 0 {
		return media, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&media).Error
	if err != nil {
		return nil, err
	}
	return media, nil
}

func (r *MediaRepository) ExistsByID(ctx context.Context, id string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.Media{}).Where("id = ?", id).Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// UpdateFields applies a partial update and returns the number of rows touched.
func (r *MediaRepository) UpdateFields(ctx context.Context, id string, fields map[string]interface{}) (int64, error) {
	result := r.db.WithContext(ctx).Model(&entity.Media{}).Where("id = ?", id).Updates(fields)
	return result.RowsAffected, result.Error
}

func (r *MediaRepository) UpdateFileURL(ctx context.Context, id string, fileURL *string) error {
	return r.db.WithContext(ctx).Model(&entity.Media{}).Where("id = ?", id).
		Update("file_url", fileURL).Error
}

func (r *MediaRepository) Delete(ctx context.Context, id string) (int64, error) {
	result := r.db.WithContext(ctx).Delete(&entity.Media{}, "id = ?", id)
	return result.RowsAffected, result.Error
}
