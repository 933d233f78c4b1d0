package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/omniflow/omniflow-backend/internal/logger"
	"github.com/omniflow/omniflow-backend/internal/types"
)

type BlacklistRepo interface {
	Create(ctx context.Context, tx *gorm.DB, entries []*types.BlacklistEntry) ([]*types.BlacklistEntry, error)
	IsShadowBanned(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (bool, error)
}

type blacklistRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewBlacklistRepo(db *gorm.DB, baseLog *logger.Logger) BlacklistRepo {
	repoLog := baseLog.With("repo", "BlacklistRepo")
	return &blacklistRepo{db: db, log: repoLog}
}

func (br *blacklistRepo) Create(ctx context.Context, tx *gorm.DB, entries []*types.BlacklistEntry) ([]*types.BlacklistEntry, error) {
	transaction := tx
	if transaction == nil {
		transaction = br.db
	}
	if len(entries) == 0 {
		return []*types.BlacklistEntry{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (br *blacklistRepo) IsShadowBanned(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = br.db
	}
	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.BlacklistEntry{}).
		Where("user_id = ? AND shadow_banned = ?", userID, true).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
