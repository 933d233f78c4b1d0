package types

import (
	"time"

	"github.com/google/uuid"
)

const (
	LogLevelInfo = "INFO"
	LogLevelWarn = "WARN"
	LogLevelErr  = "ERROR"
)

// SystemLog is an append-only audit trail.
type SystemLog struct {
	ID          uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Level       string    `gorm:"not null;column:level" json:"level"`
	Message     string    `gorm:"not null;column:message" json:"message"`
	AIDiagnosis string    `gorm:"column:ai_diagnosis" json:"ai_diagnosis"`
	CreatedAt   time.Time `gorm:"not null;default:now();index" json:"created_at"`
	UpdatedAt   time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (SystemLog) TableName() string {
	return "system_log"
}
