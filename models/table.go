package models

import "time"

type Table struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Number       uint      `gorm:"not null;uniqueIndex" json:"number"`
	Name         string    `gorm:"type:varchar(50)" json:"name"`
	SecurityCode string    `gorm:"type:varchar(32);not null" json:"-"`
	CreatedAt    time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time `gorm:"not null" json:"updated_at"`
}
