package migrations

import (
	"github.com/yfeng-ca/fengdock/app/models"
	"gorm.io/gorm"
)

func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&models.Link{}, &models.LoblawsWatch{}, &models.MindMapDoc{})
}
