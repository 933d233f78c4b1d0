package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Product struct {
	ID                 uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Title              string         `gorm:"not null;column:title" json:"title"`
	Description        string         `gorm:"column:description" json:"description"`
	Price              float64        `gorm:"not null;column:price" json:"price"`
	CostPrice          float64        `gorm:"column:cost_price" json:"cost_price"`
	Category           string         `gorm:"index;column:category" json:"category"`
	Tags               datatypes.JSON `gorm:"type:jsonb;column:tags" json:"tags"`
	Images             datatypes.JSON `gorm:"type:jsonb;column:images" json:"images"`
	Stock              int            `gorm:"not null;default:0;column:stock" json:"stock"`
	SEOTitle           string         `gorm:"column:seo_title" json:"seo_title"`
	SEODescription     string         `gorm:"column:seo_description" json:"seo_description"`
	IsPinned           bool           `gorm:"not null;default:false;column:is_pinned" json:"is_pinned"`
	IsFlashSale        bool           `gorm:"not null;default:false;column:is_flash_sale" json:"is_flash_sale"`
	FlashPrice         *float64       `gorm:"column:flash_price" json:"flash_price,omitempty"`
	CompetitorURL      string         `gorm:"column:competitor_url" json:"competitor_url"`
	CompetitorPrice    *float64       `gorm:"column:competitor_price" json:"competitor_price,omitempty"`
	AutoPricingEnabled bool           `gorm:"not null;default:false;column:auto_pricing_enabled" json:"auto_pricing_enabled"`
	Embedding          datatypes.JSON `gorm:"type:jsonb;column:embedding" json:"-"`
	Views              int64          `gorm:"not null;default:0;column:views" json:"views"`
	SellerID           *uuid.UUID     `gorm:"type:uuid;index;column:seller_id" json:"seller_id,omitempty"`
	CreatedAt          time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt          time.Time      `gorm:"not null;default:now()" json:"updated_at"`
}

func (Product) TableName() string {
	return "product"
}
