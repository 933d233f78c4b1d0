package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/omniflow/omniflow-backend/internal/logger"
	"github.com/omniflow/omniflow-backend/internal/repos"
	"github.com/omniflow/omniflow-backend/internal/types"
)

const userListLimit = 100

type UserService interface {
	Get(ctx context.Context, userID uuid.UUID) (*types.User, error)
	List(ctx context.Context, limit int) ([]*types.User, error)
	SetStatus(ctx context.Context, userID uuid.UUID, status string) error
	Delete(ctx context.Context, userID uuid.UUID) error
	Coupons(ctx context.Context, userID uuid.UUID) ([]*types.Coupon, error)
}

type userService struct {
	log        *logger.Logger
	userRepo   repos.UserRepo
	couponRepo repos.CouponRepo
}

func NewUserService(log *logger.Logger, userRepo repos.UserRepo, couponRepo repos.CouponRepo) UserService {
	return &userService{
		log:        log.With("service", "UserService"),
		userRepo:   userRepo,
		couponRepo: couponRepo,
	}
}

func (us *userService) Get(ctx context.Context, userID uuid.UUID) (*types.User, error) {
	user, err := us.userRepo.GetByID(ctx, nil, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return user, nil
}

func (us *userService) List(ctx context.Context, limit int) ([]*types.User, error) {
	if limit <= 0 || limit > userListLimit {
		limit = userListLimit
	}
	users, err := us.userRepo.List(ctx, nil, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

func (us *userService) SetStatus(ctx context.Context, userID uuid.UUID, status string) error {
	if status != types.UserStatusActive && status != types.UserStatusSuspended {
		return fmt.Errorf("invalid user status %q", status)
	}
	if err := us.userRepo.UpdateStatus(ctx, nil, userID, status); err != nil {
		return fmt.Errorf("failed to update user status: %w", err)
	}
	us.log.Info("Updated user status", "user_id", userID, "status", status)
	return nil
}

func (us *userService) Delete(ctx context.Context, userID uuid.UUID) error {
	if err := us.userRepo.Delete(ctx, nil, userID); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	us.log.Info("Deleted user", "user_id", userID)
	return nil
}

func (us *userService) Coupons(ctx context.Context, userID uuid.UUID) ([]*types.Coupon, error) {
	coupons, err := us.couponRepo.ListForUser(ctx, nil, userID, 50)
	if err != nil {
		return nil, fmt.Errorf("failed to list coupons: %w", err)
	}
	return coupons, nil
}
