package repository

import (
	"context"

	"github.com/tnqbao/gau-media-service/infra"
	"gorm.io/gorm"
)

type Repository struct {
	db              *gorm.DB
	MediaRepo       *MediaRepository
	EntityMediaRepo *EntityMediaRepository
}

var repository *Repository

func InitRepository(infra *infra.Infra) *Repository {
	repository = NewRepository(infra.Postgres.DB)
	return repository
}

func GetRepository() *Repository {
	if repository == nil {
		panic("repository not initialized")
	}
	return repository
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db:              db,
		MediaRepo:       NewMediaRepository(db),
		EntityMediaRepo: NewEntityMediaRepository(db),
	}
}

func (r *Repository) BeginTransaction(db *gorm.DB) *gorm.DB {
	return db.Begin()
}

func (r *Repository) WithTransaction(tx *gorm.DB) *Repository {
	return NewRepository(tx)
}

// Transaction runs fn against a repository bound to a single database
// transaction. The transaction commits when fn returns nil and rolls back
// otherwise.
func (r *Repository) Transaction(ctx context.Context, fn func(tx *Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(r.WithTransaction(tx))
	})
}
