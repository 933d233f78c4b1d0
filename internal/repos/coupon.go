package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/omniflow/omniflow-backend/internal/logger"
	"github.com/omniflow/omniflow-backend/internal/types"
)

type CouponRepo interface {
	Create(ctx context.Context, tx *gorm.DB, coupons []*types.Coupon) ([]*types.Coupon, error)
	GetByCode(ctx context.Context, tx *gorm.DB, code string) (*types.Coupon, error)
	ListForUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID, limit int) ([]*types.Coupon, error)
	MarkRedeemed(ctx context.Context, tx *gorm.DB, couponID uuid.UUID) error
}

type couponRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCouponRepo(db *gorm.DB, baseLog *logger.Logger) CouponRepo {
	repoLog := baseLog.With("repo", "CouponRepo")
	return &couponRepo{db: db, log: repoLog}
}

func (cr *couponRepo) Create(ctx context.Context, tx *gorm.DB, coupons []*types.Coupon) ([]*types.Coupon, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	if len(coupons) == 0 {
		return []*types.Coupon{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&coupons).Error; err != nil {
		return nil, err
	}
	return coupons, nil
}

func (cr *couponRepo) GetByCode(ctx context.Context, tx *gorm.DB, code string) (*types.Coupon, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	var result types.Coupon
	if err := transaction.WithContext(ctx).
		Where("code = ?", code).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (cr *couponRepo) ListForUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID, limit int) ([]*types.Coupon, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	var results []*types.Coupon
	if err := transaction.WithContext(ctx).
		Where("generated_for_user = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (cr *couponRepo) MarkRedeemed(ctx context.Context, tx *gorm.DB, couponID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	return transaction.WithContext(ctx).
		Model(&types.Coupon{}).
		Where("id = ?", couponID).
		Update("redeemed", true).Error
}
