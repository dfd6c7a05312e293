package seeders

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/yfeng-ca/fengdock/app/models"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

// LinkSeed is one entry of the optional links.yaml bootstrap file.
type LinkSeed struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	URL         string `yaml:"url"`
	Category    string `yaml:"category"`
	ColorClass  string `yaml:"color_class"`
	OrderIndex  int    `yaml:"order_index"`
}

type linkSeedFile struct {
	Links []LinkSeed `yaml:"links"`
}

// SeedLinks loads the YAML seed file and inserts any link whose URL is not
// already present. A missing file is not an error; seeding is optional.
func SeedLinks(db *gorm.DB, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}

	var file linkSeedFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return 0, fmt.Errorf("parse %s: %w", path, err)
	}

	inserted := 0
	for _, seed := range file.Links {
		if seed.URL == "" || seed.Title == "" {
			continue
		}

		var count int64
		if err := db.Model(&models.Link{}).Where("url = ?", seed.URL).Count(&count).Error; err != nil {
			return inserted, err
		}
		if count > 0 {
			continue
		}

		link := models.Link{
			ID:          uuid.NewString(),
			Title:       seed.Title,
			Description: seed.Description,
			URL:         seed.URL,
			Category:    seed.Category,
			ColorClass:  seed.ColorClass,
			OrderIndex:  seed.OrderIndex,
			IsActive:    true,
			Status:      models.LinkStatusUnknown,
		}
		if link.Category == "" {
			link.Category = "general"
		}
		if link.ColorClass == "" {
			link.ColorClass = "intense-work"
		}
		if err := db.Create(&link).Error; err != nil {
			return inserted, err
		}
		inserted++
	}
	return inserted, nil
}
