package testutil

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/omniflow/omniflow-backend/internal/types"
	"gorm.io/gorm"
)

func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, email string) *types.User {
	tb.Helper()
	u := &types.User{
		ID:       uuid.New(),
		Email:    email,
		Password: "pw",
		Name:     "Test User",
		Role:     types.UserRoleCustomer,
		Status:   types.UserStatusActive,
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

func SeedProduct(tb testing.TB, ctx context.Context, tx *gorm.DB, title string, price float64) *types.Product {
	tb.Helper()
	p := &types.Product{
		ID:    uuid.New(),
		Title: title,
		Price: price,
		Stock: 10,
	}
	if err := tx.WithContext(ctx).Create(p).Error; err != nil {
		tb.Fatalf("seed product: %v", err)
	}
	return p
}

func SeedOrder(tb testing.TB, ctx context.Context, tx *gorm.DB, userID uuid.UUID, total float64, status string) *types.Order {
	tb.Helper()
	o := &types.Order{
		ID:     uuid.New(),
		UserID: userID,
		Total:  total,
		Status: status,
	}
	if err := tx.WithContext(ctx).Create(o).Error; err != nil {
		tb.Fatalf("seed order: %v", err)
	}
	return o
}

func SeedReview(tb testing.TB, ctx context.Context, tx *gorm.DB, productID, userID uuid.UUID, rating int, comment string) *types.Review {
	tb.Helper()
	r := &types.Review{
		ID:        uuid.New(),
		ProductID: productID,
		UserID:    userID,
		Rating:    rating,
		Comment:   comment,
	}
	if err := tx.WithContext(ctx).Create(r).Error; err != nil {
		tb.Fatalf("seed review: %v", err)
	}
	return r
}
