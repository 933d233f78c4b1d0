package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/omniflow/omniflow-backend/internal/ai"
	"github.com/omniflow/omniflow-backend/internal/logger"
	"github.com/omniflow/omniflow-backend/internal/repos"
	"github.com/omniflow/omniflow-backend/internal/types"
)

func testLogger() *logger.Logger {
	return logger.NewNop()
}

func testPrompts() *PromptCatalog {
	return &PromptCatalog{log: testLogger(), overrides: map[string]string{}}
}

// fakeInvoker scripts the model boundary. Unset functions return
// ErrModelUnavailable so a test never silently hits a nil response.
type fakeInvoker struct {
	jsonFn  func(ctx context.Context, req ai.JSONRequest) (map[string]any, error)
	textFn  func(ctx context.Context, req ai.TextRequest) (string, error)
	embedFn func(ctx context.Context, inputs []string) ([][]float32, error)
}

func (f *fakeInvoker) GenerateJSON(ctx context.Context, req ai.JSONRequest) (map[string]any, error) {
	if f.jsonFn == nil {
		return nil, ai.ErrModelUnavailable
	}
	return f.jsonFn(ctx, req)
}

func (f *fakeInvoker) GenerateText(ctx context.Context, req ai.TextRequest) (string, error) {
	if f.textFn == nil {
		return "", ai.ErrModelUnavailable
	}
	return f.textFn(ctx, req)
}

func (f *fakeInvoker) Embed(ctx context.Context, inputs []string) ([][]float32, error) {
	if f.embedFn == nil {
		return nil, ai.ErrModelUnavailable
	}
	return f.embedFn(ctx, inputs)
}

// stubProductRepo implements repos.ProductRepo with optional overrides.
type stubProductRepo struct {
	createFn        func(products []*types.Product) ([]*types.Product, error)
	getByIDFn       func(productID uuid.UUID) (*types.Product, error)
	listFn          func(limit int) ([]*types.Product, error)
	countFn         func() (int64, error)
	searchSubstrFn  func(query string, limit int) ([]*types.Product, error)
	searchFilterFn  func(filter repos.ProductFilter) ([]*types.Product, error)
	listEmbeddedFn  func(limit int) ([]*types.Product, error)
	listAutoPriceFn func() ([]*types.Product, error)
	updateFieldsFn  func(productID uuid.UUID, fields map[string]any) error
	deleteFn        func(productID uuid.UUID) error
}

func (s *stubProductRepo) Create(_ context.Context, _ *gorm.DB, products []*types.Product) ([]*types.Product, error) {
	if s.createFn == nil {
		return products, nil
	}
	return s.createFn(products)
}

func (s *stubProductRepo) GetByID(_ context.Context, _ *gorm.DB, productID uuid.UUID) (*types.Product, error) {
	if s.getByIDFn == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return s.getByIDFn(productID)
}

func (s *stubProductRepo) List(_ context.Context, _ *gorm.DB, limit int) ([]*types.Product, error) {
	if s.listFn == nil {
		return nil, nil
	}
	return s.listFn(limit)
}

func (s *stubProductRepo) Count(_ context.Context, _ *gorm.DB) (int64, error) {
	if s.countFn == nil {
		return 0, nil
	}
	return s.countFn()
}

func (s *stubProductRepo) SearchSubstring(_ context.Context, _ *gorm.DB, query string, limit int) ([]*types.Product, error) {
	if s.searchSubstrFn == nil {
		return nil, nil
	}
	return s.searchSubstrFn(query, limit)
}

func (s *stubProductRepo) SearchFiltered(_ context.Context, _ *gorm.DB, filter repos.ProductFilter) ([]*types.Product, error) {
	if s.searchFilterFn == nil {
		return nil, nil
	}
	return s.searchFilterFn(filter)
}

func (s *stubProductRepo) ListWithEmbeddings(_ context.Context, _ *gorm.DB, limit int) ([]*types.Product, error) {
	if s.listEmbeddedFn == nil {
		return nil, nil
	}
	return s.listEmbeddedFn(limit)
}

func (s *stubProductRepo) ListAutoPricing(_ context.Context, _ *gorm.DB) ([]*types.Product, error) {
	if s.listAutoPriceFn == nil {
		return nil, nil
	}
	return s.listAutoPriceFn()
}

func (s *stubProductRepo) UpdateFields(_ context.Context, _ *gorm.DB, productID uuid.UUID, fields map[string]any) error {
	if s.updateFieldsFn == nil {
		return nil
	}
	return s.updateFieldsFn(productID, fields)
}

func (s *stubProductRepo) Delete(_ context.Context, _ *gorm.DB, productID uuid.UUID) error {
	if s.deleteFn == nil {
		return nil
	}
	return s.deleteFn(productID)
}

// stubOrderRepo implements repos.OrderRepo.
type stubOrderRepo struct {
	createFn      func(orders []*types.Order) ([]*types.Order, error)
	getByIDFn     func(orderID uuid.UUID) (*types.Order, error)
	listRecentFn  func(limit int) ([]*types.Order, error)
	listByUserFn  func(userID uuid.UUID, limit int) ([]*types.Order, error)
	countSinceFn  func(userID uuid.UUID, since time.Time) (int64, error)
	countFn       func() (int64, error)
	sumByStatusFn func(status string) (float64, error)
	updateStatFn  func(orderID uuid.UUID, status string) error
	setVerifiedFn func(orderID uuid.UUID, verified bool) error
}

func (s *stubOrderRepo) Create(_ context.Context, _ *gorm.DB, orders []*types.Order) ([]*types.Order, error) {
	if s.createFn == nil {
		return orders, nil
	}
	return s.createFn(orders)
}

func (s *stubOrderRepo) GetByID(_ context.Context, _ *gorm.DB, orderID uuid.UUID) (*types.Order, error) {
	if s.getByIDFn == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return s.getByIDFn(orderID)
}

func (s *stubOrderRepo) ListRecent(_ context.Context, _ *gorm.DB, limit int) ([]*types.Order, error) {
	if s.listRecentFn == nil {
		return nil, nil
	}
	return s.listRecentFn(limit)
}

func (s *stubOrderRepo) ListByUser(_ context.Context, _ *gorm.DB, userID uuid.UUID, limit int) ([]*types.Order, error) {
	if s.listByUserFn == nil {
		return nil, nil
	}
	return s.listByUserFn(userID, limit)
}

func (s *stubOrderRepo) CountByUserSince(_ context.Context, _ *gorm.DB, userID uuid.UUID, since time.Time) (int64, error) {
	if s.countSinceFn == nil {
		return 0, nil
	}
	return s.countSinceFn(userID, since)
}

func (s *stubOrderRepo) Count(_ context.Context, _ *gorm.DB) (int64, error) {
	if s.countFn == nil {
		return 0, nil
	}
	return s.countFn()
}

func (s *stubOrderRepo) SumTotalByStatus(_ context.Context, _ *gorm.DB, status string) (float64, error) {
	if s.sumByStatusFn == nil {
		return 0, nil
	}
	return s.sumByStatusFn(status)
}

func (s *stubOrderRepo) UpdateStatus(_ context.Context, _ *gorm.DB, orderID uuid.UUID, status string) error {
	if s.updateStatFn == nil {
		return nil
	}
	return s.updateStatFn(orderID, status)
}

func (s *stubOrderRepo) SetVerified(_ context.Context, _ *gorm.DB, orderID uuid.UUID, verified bool) error {
	if s.setVerifiedFn == nil {
		return nil
	}
	return s.setVerifiedFn(orderID, verified)
}

// stubCouponRepo implements repos.CouponRepo.
type stubCouponRepo struct {
	createFn   func(coupons []*types.Coupon) ([]*types.Coupon, error)
	getCodeFn  func(code string) (*types.Coupon, error)
	listUserFn func(userID uuid.UUID, limit int) ([]*types.Coupon, error)
	redeemFn   func(couponID uuid.UUID) error
}

func (s *stubCouponRepo) Create(_ context.Context, _ *gorm.DB, coupons []*types.Coupon) ([]*types.Coupon, error) {
	if s.createFn == nil {
		return coupons, nil
	}
	return s.createFn(coupons)
}

func (s *stubCouponRepo) GetByCode(_ context.Context, _ *gorm.DB, code string) (*types.Coupon, error) {
	if s.getCodeFn == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return s.getCodeFn(code)
}

func (s *stubCouponRepo) ListForUser(_ context.Context, _ *gorm.DB, userID uuid.UUID, limit int) ([]*types.Coupon, error) {
	if s.listUserFn == nil {
		return nil, nil
	}
	return s.listUserFn(userID, limit)
}

func (s *stubCouponRepo) MarkRedeemed(_ context.Context, _ *gorm.DB, couponID uuid.UUID) error {
	if s.redeemFn == nil {
		return nil
	}
	return s.redeemFn(couponID)
}

// stubReviewRepo implements repos.ReviewRepo.
type stubReviewRepo struct {
	createFn func(reviews []*types.Review) ([]*types.Review, error)
	listFn   func(productID uuid.UUID, limit int) ([]*types.Review, error)
}

func (s *stubReviewRepo) Create(_ context.Context, _ *gorm.DB, reviews []*types.Review) ([]*types.Review, error) {
	if s.createFn == nil {
		return reviews, nil
	}
	return s.createFn(reviews)
}

func (s *stubReviewRepo) ListByProduct(_ context.Context, _ *gorm.DB, productID uuid.UUID, limit int) ([]*types.Review, error) {
	if s.listFn == nil {
		return nil, nil
	}
	return s.listFn(productID, limit)
}

// stubSearchLogRepo implements repos.SearchLogRepo.
type stubSearchLogRepo struct {
	createFn func(logs []*types.SearchLog) ([]*types.SearchLog, error)
	zeroFn   func(limit int) ([]*types.SearchLog, error)
}

func (s *stubSearchLogRepo) Create(_ context.Context, _ *gorm.DB, logs []*types.SearchLog) ([]*types.SearchLog, error) {
	if s.createFn == nil {
		return logs, nil
	}
	return s.createFn(logs)
}

func (s *stubSearchLogRepo) ListZeroResult(_ context.Context, _ *gorm.DB, limit int) ([]*types.SearchLog, error) {
	if s.zeroFn == nil {
		return nil, nil
	}
	return s.zeroFn(limit)
}

// stubSystemLogRepo implements repos.SystemLogRepo.
type stubSystemLogRepo struct {
	createFn func(logs []*types.SystemLog) ([]*types.SystemLog, error)
	recentFn func(limit int) ([]*types.SystemLog, error)
}

func (s *stubSystemLogRepo) Create(_ context.Context, _ *gorm.DB, logs []*types.SystemLog) ([]*types.SystemLog, error) {
	if s.createFn == nil {
		return logs, nil
	}
	return s.createFn(logs)
}

func (s *stubSystemLogRepo) ListRecent(_ context.Context, _ *gorm.DB, limit int) ([]*types.SystemLog, error) {
	if s.recentFn == nil {
		return nil, nil
	}
	return s.recentFn(limit)
}

// stubBlacklistRepo implements repos.BlacklistRepo.
type stubBlacklistRepo struct {
	createFn func(entries []*types.BlacklistEntry) ([]*types.BlacklistEntry, error)
	bannedFn func(userID uuid.UUID) (bool, error)
}

func (s *stubBlacklistRepo) Create(_ context.Context, _ *gorm.DB, entries []*types.BlacklistEntry) ([]*types.BlacklistEntry, error) {
	if s.createFn == nil {
		return entries, nil
	}
	return s.createFn(entries)
}

func (s *stubBlacklistRepo) IsShadowBanned(_ context.Context, _ *gorm.DB, userID uuid.UUID) (bool, error) {
	if s.bannedFn == nil {
		return false, nil
	}
	return s.bannedFn(userID)
}

// stubVelocity implements VelocityCounter with a fixed count.
type stubVelocity struct {
	count int64
	err   error
}

func (s *stubVelocity) Bump(_ context.Context, _ uuid.UUID) (int64, error) {
	return s.count, s.err
}

// stubUserRepo implements repos.UserRepo.
type stubUserRepo struct {
	createFn    func(users []*types.User) ([]*types.User, error)
	getByIDFn   func(userID uuid.UUID) (*types.User, error)
	getEmailFn  func(email string) (*types.User, error)
	existsFn    func(email string) (bool, error)
	listFn      func(limit int) ([]*types.User, error)
	countFn     func() (int64, error)
	setStatusFn func(userID uuid.UUID, status string) error
	deleteFn    func(userID uuid.UUID) error
}

func stubUserRepoEmpty() *stubUserRepo { return &stubUserRepo{} }

func (s *stubUserRepo) Create(_ context.Context, _ *gorm.DB, users []*types.User) ([]*types.User, error) {
	if s.createFn == nil {
		return users, nil
	}
	return s.createFn(users)
}

func (s *stubUserRepo) GetByID(_ context.Context, _ *gorm.DB, userID uuid.UUID) (*types.User, error) {
	if s.getByIDFn == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return s.getByIDFn(userID)
}

func (s *stubUserRepo) GetByEmail(_ context.Context, _ *gorm.DB, email string) (*types.User, error) {
	if s.getEmailFn == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return s.getEmailFn(email)
}

func (s *stubUserRepo) EmailExists(_ context.Context, _ *gorm.DB, email string) (bool, error) {
	if s.existsFn == nil {
		return false, nil
	}
	return s.existsFn(email)
}

func (s *stubUserRepo) List(_ context.Context, _ *gorm.DB, limit int) ([]*types.User, error) {
	if s.listFn == nil {
		return nil, nil
	}
	return s.listFn(limit)
}

func (s *stubUserRepo) Count(_ context.Context, _ *gorm.DB) (int64, error) {
	if s.countFn == nil {
		return 0, nil
	}
	return s.countFn()
}

func (s *stubUserRepo) UpdateStatus(_ context.Context, _ *gorm.DB, userID uuid.UUID, status string) error {
	if s.setStatusFn == nil {
		return nil
	}
	return s.setStatusFn(userID, status)
}

func (s *stubUserRepo) Delete(_ context.Context, _ *gorm.DB, userID uuid.UUID) error {
	if s.deleteFn == nil {
		return nil
	}
	return s.deleteFn(userID)
}

// stubBucket implements BucketService against an imaginary CDN.
type stubBucket struct {
	uploadErr error
	uploaded  []string
}

func (s *stubBucket) UploadBytes(_ context.Context, key string, _ []byte, _ string) error {
	if s.uploadErr != nil {
		return s.uploadErr
	}
	s.uploaded = append(s.uploaded, key)
	return nil
}

func (s *stubBucket) DeleteFile(context.Context, string) error { return nil }

func (s *stubBucket) GetPublicURL(key string) string { return "https://cdn.test/" + key }
