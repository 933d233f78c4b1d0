package types

import (
	"time"

	"github.com/google/uuid"
)

type SearchLog struct {
	ID           uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Query        string     `gorm:"not null;column:query" json:"query"`
	UserID       *uuid.UUID `gorm:"type:uuid;index;column:user_id" json:"user_id,omitempty"`
	ResultsCount int        `gorm:"not null;default:0;column:results_count" json:"results_count"`
	CreatedAt    time.Time  `gorm:"not null;default:now();index" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"not null;default:now()" json:"updated_at"`
}

func (SearchLog) TableName() string {
	return "search_log"
}
