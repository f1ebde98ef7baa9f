package models

import (
	"time"
)

// News publication states.
const (
	NewsDraft     = "draft"
	NewsScheduled = "scheduled"
	NewsPublished = "published"
)

// NewsItem is a site article. Slug is derived from the title on create and
// kept stable afterwards so published URLs don't break on edits.
type NewsItem struct {
	ID       string `gorm:"primaryKey" json:"id"`
	Title    string `gorm:"not null" json:"title"`
	Slug     string `gorm:"uniqueIndex;not null" json:"slug"`
	Summary  string `json:"summary"`
	Content  string `gorm:"type:text" json:"content"`
	ImageURL string `json:"image_url"`
	Category string `json:"category"`
	Author   string `json:"author"`

	Status    string     `gorm:"type:varchar(16);default:'published'" json:"status"`
	PublishAt *time.Time `gorm:"index" json:"publish_at,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
