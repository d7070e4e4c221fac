package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nurpe/dispatch-contracts/internal/model"
)

// DirectoryRepository reads the site and worker records the engine
// consumes. Both are maintained by an upstream system; this service
// never mutates them.
type DirectoryRepository struct {
	db *gorm.DB
}

func NewDirectoryRepository(db *gorm.DB) *DirectoryRepository {
	return &DirectoryRepository{db: db}
}

// WithTx returns a copy of the repository bound to the given transaction.
func (r *DirectoryRepository) WithTx(tx *gorm.DB) *DirectoryRepository {
	return &DirectoryRepository{db: tx}
}

func (r *DirectoryRepository) GetSite(ctx context.Context, id uuid.UUID) (*model.Site, error) {
	var site model.Site
	if err := r.db.WithContext(ctx).First(&site, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &site, nil
}

func (r *DirectoryRepository) GetWorker(ctx context.Context, id uuid.UUID) (*model.Worker, error) {
	var worker model.Worker
	if err := r.db.WithContext(ctx).First(&worker, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &worker, nil
}

// ListSitesNearConflict returns active sites whose conflict date falls
// on or before the limit, soonest first. Sites already past their
// conflict date are included.
func (r *DirectoryRepository) ListSitesNearConflict(ctx context.Context, limit time.Time) ([]model.Site, error) {
	var sites []model.Site
	err := r.db.WithContext(ctx).
		Where("is_active = ? AND conflict_date IS NOT NULL AND conflict_date <= ?", true, limit).
		Order("conflict_date ASC").
		Find(&sites).Error
	if err != nil {
		return nil, err
	}
	return sites, nil
}
