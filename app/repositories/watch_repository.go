package repositories

import (
	"context"
	"strings"

	"github.com/yfeng-ca/fengdock/app/models"
	"gorm.io/gorm"
)

type WatchRepositoryImpl interface {
	GetAll(ctx context.Context) ([]models.LoblawsWatch, error)
	GetByID(ctx context.Context, id string) (*models.LoblawsWatch, error)
	GetByURL(ctx context.Context, url string) (*models.LoblawsWatch, error)
	Create(ctx context.Context, watch *models.LoblawsWatch) error
	Update(ctx context.Context, id string, fields map[string]interface{}) (int64, error)
	Delete(ctx context.Context, id string) (int64, error)
}

type watchRepository struct {
	db *gorm.DB
}

func NewWatchRepository(db *gorm.DB) WatchRepositoryImpl {
	return &watchRepository{db}
}

// GetAll returns watches in insertion order; ranking happens in the board
// service, not here.
func (w *watchRepository) GetAll(ctx context.Context) ([]models.LoblawsWatch, error) {
	var watches []models.LoblawsWatch
	if err := w.db.WithContext(ctx).Order("created_at").Order("id").Find(&watches).Error; err != nil {
		return nil, err
	}
	return watches, nil
}

func (w *watchRepository) GetByID(ctx context.Context, id string) (*models.LoblawsWatch, error) {
	var watch models.LoblawsWatch
	if err := w.db.WithContext(ctx).Where("id = ?", id).First(&watch).Error; err != nil {
		return nil, err
	}
	return &watch, nil
}

func (w *watchRepository) GetByURL(ctx context.Context, url string) (*models.LoblawsWatch, error) {
	var watch models.LoblawsWatch
	err := w.db.WithContext(ctx).Where("url = ?", strings.TrimSpace(url)).First(&watch).Error
	if err != nil {
		return nil, err
	}
	return &watch, nil
}

func (w *watchRepository) Create(ctx context.Context, watch *models.LoblawsWatch) error {
	return w.db.WithContext(ctx).Create(watch).Error
}

// Update applies fields atomically. A zero row count means the watch was
// deleted in the meantime; callers translate that to a not-found error so a
// racing refresh never resurrects a removed row.
func (w *watchRepository) Update(ctx context.Context, id string, fields map[string]interface{}) (int64, error) {
	result := w.db.WithContext(ctx).Model(&models.LoblawsWatch{}).Where("id = ?", id).Updates(fields)
	return result.RowsAffected, result.Error
}

func (w *watchRepository) Delete(ctx context.Context, id string) (int64, error) {
	result := w.db.WithContext(ctx).Where("id = ?", id).Delete(&models.LoblawsWatch{})
	return result.RowsAffected, result.Error
}
