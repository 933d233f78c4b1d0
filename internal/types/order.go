package types

import (
	"time"

	"github.com/google/uuid"
)

const (
	OrderStatusPending   = "pending"
	OrderStatusPaid      = "paid"
	OrderStatusShipped   = "shipped"
	OrderStatusDelivered = "delivered"
	OrderStatusCancelled = "cancelled"
)

func ValidOrderStatus(s string) bool {
	switch s {
	case OrderStatusPending, OrderStatusPaid, OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

type Order struct {
	ID           uuid.UUID   `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID       uuid.UUID   `gorm:"type:uuid;not null;index;column:user_id" json:"user_id"`
	Total        float64     `gorm:"not null;column:total" json:"total"`
	Status       string      `gorm:"not null;default:pending;column:status" json:"status"`
	IsVerified   bool        `gorm:"not null;default:false;column:is_verified" json:"is_verified"`
	SlipImageURL string      `gorm:"column:slip_image_url" json:"slip_image_url"`
	Items        []OrderItem `gorm:"foreignKey:OrderID" json:"items"`
	CreatedAt    time.Time   `gorm:"not null;default:now();index" json:"created_at"`
	UpdatedAt    time.Time   `gorm:"not null;default:now()" json:"updated_at"`
}

func (Order) TableName() string {
	return "order"
}

// OrderItem rows are immutable once attached to an order.
type OrderItem struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	OrderID   uuid.UUID `gorm:"type:uuid;not null;index;column:order_id" json:"order_id"`
	ProductID uuid.UUID `gorm:"type:uuid;not null;index;column:product_id" json:"product_id"`
	Quantity  int       `gorm:"not null;column:quantity" json:"quantity"`
	Price     float64   `gorm:"not null;column:price" json:"price"`
	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (OrderItem) TableName() string {
	return "order_item"
}
