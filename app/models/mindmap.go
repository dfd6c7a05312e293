package models

import (
	"time"
)

// MindMapDoc is a shared JSON document edited through the viewer tool.
// Version increments on every successful update and backs the optimistic
// concurrency check in the handler.
type MindMapDoc struct {
	ID        string    `gorm:"size:36;not null;uniqueIndex;primary_key" json:"id"`
	Title     string    `gorm:"size:200;not null" json:"title"`
	DataJSON  string    `gorm:"type:text;not null" json:"-"`
	Version   int       `gorm:"not null;default:1" json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
