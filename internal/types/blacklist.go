package types

import (
	"time"

	"github.com/google/uuid"
)

// BlacklistEntry rows are created by fraud and velocity checks and are
// consulted, never removed, on later checks.
type BlacklistEntry struct {
	ID           uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID       uuid.UUID `gorm:"type:uuid;not null;index;column:user_id" json:"user_id"`
	Reason       string    `gorm:"not null;column:reason" json:"reason"`
	ShadowBanned bool      `gorm:"not null;default:false;column:shadow_banned" json:"shadow_banned"`
	CreatedAt    time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt    time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (BlacklistEntry) TableName() string {
	return "blacklist_entry"
}
