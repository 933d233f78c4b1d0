package repos

import (
	"context"

	"gorm.io/gorm"

	"github.com/omniflow/omniflow-backend/internal/logger"
	"github.com/omniflow/omniflow-backend/internal/types"
)

type SystemLogRepo interface {
	Create(ctx context.Context, tx *gorm.DB, logs []*types.SystemLog) ([]*types.SystemLog, error)
	ListRecent(ctx context.Context, tx *gorm.DB, limit int) ([]*types.SystemLog, error)
}

type systemLogRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSystemLogRepo(db *gorm.DB, baseLog *logger.Logger) SystemLogRepo {
	repoLog := baseLog.With("repo", "SystemLogRepo")
	return &systemLogRepo{db: db, log: repoLog}
}

func (sr *systemLogRepo) Create(ctx context.Context, tx *gorm.DB, logs []*types.SystemLog) ([]*types.SystemLog, error) {
	transaction := tx
	if transaction == nil {
		transaction = sr.db
	}
	if len(logs) == 0 {
		return []*types.SystemLog{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}

func (sr *systemLogRepo) ListRecent(ctx context.Context, tx *gorm.DB, limit int) ([]*types.SystemLog, error) {
	transaction := tx
	if transaction == nil {
		transaction = sr.db
	}
	var results []*types.SystemLog
	if err := transaction.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
