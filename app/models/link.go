package models

import (
	"time"
)

const (
	LinkStatusUnknown  = "unknown"
	LinkStatusUp       = "up"
	LinkStatusDegraded = "degraded"
	LinkStatusDown     = "down"
	LinkStatusError    = "error"
)

// Link is a bookmark style entry shown on the homepage. Its status field is
// maintained by the periodic health check job.
type Link struct {
	ID            string     `gorm:"size:36;not null;uniqueIndex;primary_key" json:"id"`
	Title         string     `gorm:"size:100;not null" json:"title"`
	Description   string     `gorm:"type:text" json:"description"`
	URL           string     `gorm:"size:512;not null;uniqueIndex" json:"url"`
	Category      string     `gorm:"size:50;not null" json:"category"`
	ColorClass    string     `gorm:"size:50;not null;default:intense-work" json:"color_class"`
	OrderIndex    int        `gorm:"not null;default:0" json:"order_index"`
	IsActive      bool       `gorm:"not null;default:true" json:"is_active"`
	Status        string     `gorm:"size:20;not null;default:unknown" json:"status"`
	LastCheckedAt *time.Time `json:"last_checked_at"`
	ClickCount    int        `gorm:"not null;default:0" json:"click_count"`
	LastClickedAt *time.Time `json:"last_clicked_at"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}
