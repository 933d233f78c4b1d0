package repos

import (
	"context"

	"gorm.io/gorm"

	"github.com/omniflow/omniflow-backend/internal/logger"
	"github.com/omniflow/omniflow-backend/internal/types"
)

type SearchLogRepo interface {
	Create(ctx context.Context, tx *gorm.DB, logs []*types.SearchLog) ([]*types.SearchLog, error)
	ListZeroResult(ctx context.Context, tx *gorm.DB, limit int) ([]*types.SearchLog, error)
}

type searchLogRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSearchLogRepo(db *gorm.DB, baseLog *logger.Logger) SearchLogRepo {
	repoLog := baseLog.With("repo", "SearchLogRepo")
	return &searchLogRepo{db: db, log: repoLog}
}

func (sr *searchLogRepo) Create(ctx context.Context, tx *gorm.DB, logs []*types.SearchLog) ([]*types.SearchLog, error) {
	transaction := tx
	if transaction == nil {
		transaction = sr.db
	}
	if len(logs) == 0 {
		return []*types.SearchLog{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}

// ListZeroResult feeds the trend oracle with the search-gap log. The cap
// keeps the model prompt bounded.
func (sr *searchLogRepo) ListZeroResult(ctx context.Context, tx *gorm.DB, limit int) ([]*types.SearchLog, error) {
	transaction := tx
	if transaction == nil {
		transaction = sr.db
	}
	var results []*types.SearchLog
	if err := transaction.WithContext(ctx).
		Where("results_count = 0").
		Order("created_at DESC").
		Limit(limit).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
