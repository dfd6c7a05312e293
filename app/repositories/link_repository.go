package repositories

import (
	"context"
	"strings"
	"time"

	"github.com/yfeng-ca/fengdock/app/models"
	"gorm.io/gorm"
)

// LinkStatusUpdate carries one health check result for bulk persistence.
type LinkStatusUpdate struct {
	ID     string
	Status string
}

type LinkRepositoryImpl interface {
	GetAll(ctx context.Context, includeInactive bool, ordering string, limit int) ([]models.Link, error)
	GetByID(ctx context.Context, id string) (*models.Link, error)
	GetByURL(ctx context.Context, url string) (*models.Link, error)
	Create(ctx context.Context, link *models.Link) error
	Update(ctx context.Context, id string, fields map[string]interface{}) (int64, error)
	Delete(ctx context.Context, id string) (int64, error)
	RecordClick(ctx context.Context, id string) error
	BulkUpdateStatus(ctx context.Context, updates []LinkStatusUpdate) error
}

type linkRepository struct {
	db *gorm.DB
}

func NewLinkRepository(db *gorm.DB) LinkRepositoryImpl {
	return &linkRepository{db}
}

func (l *linkRepository) GetAll(ctx context.Context, includeInactive bool, ordering string, limit int) ([]models.Link, error) {
	var links []models.Link
	query := l.db.WithContext(ctx).Model(&models.Link{})
	if !includeInactive {
		query = query.Where("is_active = ?", true)
	}
	if ordering == "clicks" {
		query = query.Order("click_count DESC").Order("last_clicked_at DESC").Order("order_index").Order("created_at")
	} else {
		query = query.Order("order_index").Order("created_at")
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&links).Error; err != nil {
		return nil, err
	}
	return links, nil
}

func (l *linkRepository) GetByID(ctx context.Context, id string) (*models.Link, error) {
	var link models.Link
	if err := l.db.WithContext(ctx).Where("id = ?", id).First(&link).Error; err != nil {
		return nil, err
	}
	return &link, nil
}

// GetByURL matches with and without a trailing slash so click tracking from
// the homepage resolves either form.
func (l *linkRepository) GetByURL(ctx context.Context, url string) (*models.Link, error) {
	normalized := strings.TrimSpace(url)
	candidates := []string{normalized}
	if strings.HasSuffix(normalized, "/") {
		candidates = append(candidates, strings.TrimRight(normalized, "/"))
	} else {
		candidates = append(candidates, normalized+"/")
	}

	var link models.Link
	if err := l.db.WithContext(ctx).Where("url IN ?", candidates).First(&link).Error; err != nil {
		return nil, err
	}
	return &link, nil
}

func (l *linkRepository) Create(ctx context.Context, link *models.Link) error {
	return l.db.WithContext(ctx).Create(link).Error
}

func (l *linkRepository) Update(ctx context.Context, id string, fields map[string]interface{}) (int64, error) {
	result := l.db.WithContext(ctx).Model(&models.Link{}).Where("id = ?", id).Updates(fields)
	return result.RowsAffected, result.Error
}

func (l *linkRepository) Delete(ctx context.Context, id string) (int64, error) {
	result := l.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Link{})
	return result.RowsAffected, result.Error
}

func (l *linkRepository) RecordClick(ctx context.Context, id string) error {
	return l.db.WithContext(ctx).Model(&models.Link{}).Where("id = ?", id).Updates(map[string]interface{}{
		"click_count":     gorm.Expr("click_count + 1"),
		"last_clicked_at": time.Now().UTC(),
	}).Error
}

func (l *linkRepository) BulkUpdateStatus(ctx context.Context, updates []LinkStatusUpdate) error {
	now := time.Now().UTC()
	return l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, update := range updates {
			err := tx.Model(&models.Link{}).Where("id = ?", update.ID).Updates(map[string]interface{}{
				"status":          update.Status,
				"last_checked_at": now,
			}).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
}
