package models

import (
	"time"
)

type Order struct {
	ID            uint        `gorm:"primaryKey" json:"id"`
	OrderNumber   string      `gorm:"type:varchar(40);not null;uniqueIndex" json:"order_number"`
	TableNumber   uint        `gorm:"not null;index" json:"table_number"`
	SessionID     string      `gorm:"type:varchar(32);not null;index" json:"session_id"`
	Status        OrderStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	TotalPrice    float64     `gorm:"type:decimal(10,2);not null;default:0.00" json:"total_price"`
	EstimatedTime int         `gorm:"not null;default:15" json:"estimated_time"`
	Notes         string      `gorm:"type:text" json:"notes"`
	CustomerName  string      `gorm:"type:varchar(100)" json:"customer_name"`
	Priority      string      `gorm:"type:varchar(20);not null;default:'normal'" json:"priority"`
	CreatedAt     time.Time   `gorm:"not null;index" json:"created_at"`
	UpdatedAt     time.Time   `gorm:"not null" json:"updated_at"`
	Items         []OrderItem `gorm:"foreignKey:OrderID" json:"items"`
}

// IsPending and ReferenceTime let orders go through the urgency sort.
func (o Order) IsPending() bool { return o.Status == OrderPending }

func (o Order) ReferenceTime() time.Time { return o.CreatedAt }
