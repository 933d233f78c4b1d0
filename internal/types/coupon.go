package types

import (
	"time"

	"github.com/google/uuid"
)

type Coupon struct {
	ID               uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Code             string     `gorm:"uniqueIndex;not null;column:code" json:"code"`
	DiscountPercent  int        `gorm:"not null;column:discount_percent" json:"discount_percent"`
	IsHidden         bool       `gorm:"not null;default:false;column:is_hidden" json:"is_hidden"`
	GeneratedForUser *uuid.UUID `gorm:"type:uuid;index;column:generated_for_user" json:"generated_for_user,omitempty"`
	Redeemed         bool       `gorm:"not null;default:false;column:redeemed" json:"redeemed"`
	ValidUntil       *time.Time `gorm:"column:valid_until" json:"valid_until,omitempty"`
	CreatedAt        time.Time  `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt        time.Time  `gorm:"not null;default:now()" json:"updated_at"`
}

func (Coupon) TableName() string {
	return "coupon"
}
