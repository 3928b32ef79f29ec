package models

import (
	"time"
)

// Notification is an alert raised by the change notifier, kept for staff
// dashboards to poll.
type Notification struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Kind        string    `gorm:"type:varchar(20);not null;index" json:"kind"`
	Cue         string    `gorm:"type:varchar(30);not null" json:"cue"`
	Count       int       `gorm:"not null;default:0" json:"count"`
	TableNumber *uint     `json:"table_number,omitempty"`
	OrderID     *uint     `json:"order_id,omitempty"`
	CallID      *uint     `json:"call_id,omitempty"`
	Message     string    `gorm:"type:text;not null" json:"message"`
	CreatedAt   time.Time `gorm:"not null;index" json:"created_at"`
}
