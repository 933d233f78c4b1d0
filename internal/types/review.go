package types

import (
	"time"

	"github.com/google/uuid"
)

// Review rows are created once per submission and never updated in place.
type Review struct {
	ID             uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ProductID      uuid.UUID `gorm:"type:uuid;not null;index;column:product_id" json:"product_id"`
	UserID         uuid.UUID `gorm:"type:uuid;not null;index;column:user_id" json:"user_id"`
	Rating         int       `gorm:"not null;column:rating" json:"rating"`
	Comment        string    `gorm:"not null;column:comment" json:"comment"`
	SentimentScore float64   `gorm:"column:sentiment_score" json:"sentiment_score"`
	IsToxic        bool      `gorm:"not null;default:false;column:is_toxic" json:"is_toxic"`
	AutoReply      string    `gorm:"column:auto_reply" json:"auto_reply"`
	CreatedAt      time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt      time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (Review) TableName() string {
	return "review"
}
