package models

import "time"

// TableSession mirrors the active token of a table. One row per table.
type TableSession struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	TableNumber     uint       `gorm:"not null;uniqueIndex" json:"table_number"`
	SessionID       string     `gorm:"type:varchar(32);not null" json:"session_id"`
	LastValidatedAt *time.Time `json:"last_validated_at"`
	ExpiresAt       time.Time  `gorm:"not null" json:"expires_at"`
	IsActive        bool       `gorm:"not null;default:false" json:"is_active"`
	CreatedAt       time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"not null" json:"updated_at"`
}
