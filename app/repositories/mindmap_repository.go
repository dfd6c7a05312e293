package repositories

import (
	"context"

	"github.com/yfeng-ca/fengdock/app/models"
	"gorm.io/gorm"
)

type MindMapRepositoryImpl interface {
	GetAll(ctx context.Context) ([]models.MindMapDoc, error)
	GetByID(ctx context.Context, id string) (*models.MindMapDoc, error)
	Create(ctx context.Context, doc *models.MindMapDoc) error
	Save(ctx context.Context, doc *models.MindMapDoc) error
	Delete(ctx context.Context, id string) (int64, error)
}

type mindMapRepository struct {
	db *gorm.DB
}

func NewMindMapRepository(db *gorm.DB) MindMapRepositoryImpl {
	return &mindMapRepository{db}
}

func (m *mindMapRepository) GetAll(ctx context.Context) ([]models.MindMapDoc, error) {
	var docs []models.MindMapDoc
	if err := m.db.WithContext(ctx).Order("updated_at DESC").Find(&docs).Error; err != nil {
		return nil, err
	}
	return docs, nil
}

func (m *mindMapRepository) GetByID(ctx context.Context, id string) (*models.MindMapDoc, error) {
	var doc models.MindMapDoc
	if err := m.db.WithContext(ctx).Where("id = ?", id).First(&doc).Error; err != nil {
		return nil, err
	}
	return &doc, nil
}

func (m *mindMapRepository) Create(ctx context.Context, doc *models.MindMapDoc) error {
	return m.db.WithContext(ctx).Create(doc).Error
}

func (m *mindMapRepository) Save(ctx context.Context, doc *models.MindMapDoc) error {
	return m.db.WithContext(ctx).Save(doc).Error
}

func (m *mindMapRepository) Delete(ctx context.Context, id string) (int64, error) {
	result := m.db.WithContext(ctx).Where("id = ?", id).Delete(&models.MindMapDoc{})
	return result.RowsAffected, result.Error
}
