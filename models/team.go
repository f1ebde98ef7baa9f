package models

import (
	"time"
)

// Team is a club side referenced by matches. Read-only from the live-match
// core's perspective.
type Team struct {
	ID         string    `gorm:"primaryKey" json:"id"`
	Name       string    `gorm:"not null;index" json:"name"`
	Category   string    `gorm:"type:varchar(16);default:'Men'" json:"category"` // Men / Women
	HomeGround string    `json:"home_ground"`
	LogoURL    string    `json:"logo_url"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
}
