package models

import "time"

type WaiterCall struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	TableNumber uint       `gorm:"not null;index" json:"table_number"`
	SessionID   string     `gorm:"type:varchar(32);not null;index" json:"session_id"`
	Status      CallStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	Timestamp   time.Time  `gorm:"not null;index" json:"timestamp"`
	AttendedBy  string     `gorm:"type:varchar(100)" json:"attended_by"`
	AttendedAt  *time.Time `json:"attended_at,omitempty"`
	Notes       string     `gorm:"type:text" json:"notes"`
	UpdatedAt   time.Time  `gorm:"not null" json:"updated_at"`
}

func (w WaiterCall) IsPending() bool { return w.Status == CallPending }

func (w WaiterCall) ReferenceTime() time.Time { return w.Timestamp }
