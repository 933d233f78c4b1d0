package repos

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/omniflow/omniflow-backend/internal/logger"
	"github.com/omniflow/omniflow-backend/internal/types"
)

// ProductFilter is the typed predicate set produced by the smart-search
// interpreter. Zero values mean "no constraint".
type ProductFilter struct {
	Keywords []string
	MinPrice *float64
	MaxPrice *float64
	Category string
	Limit    int
}

type ProductRepo interface {
	Create(ctx context.Context, tx *gorm.DB, products []*types.Product) ([]*types.Product, error)
	GetByID(ctx context.Context, tx *gorm.DB, productID uuid.UUID) (*types.Product, error)
	List(ctx context.Context, tx *gorm.DB, limit int) ([]*types.Product, error)
	Count(ctx context.Context, tx *gorm.DB) (int64, error)
	SearchSubstring(ctx context.Context, tx *gorm.DB, query string, limit int) ([]*types.Product, error)
	SearchFiltered(ctx context.Context, tx *gorm.DB, filter ProductFilter) ([]*types.Product, error)
	ListWithEmbeddings(ctx context.Context, tx *gorm.DB, limit int) ([]*types.Product, error)
	ListAutoPricing(ctx context.Context, tx *gorm.DB) ([]*types.Product, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, productID uuid.UUID, fields map[string]any) error
	Delete(ctx context.Context, tx *gorm.DB, productID uuid.UUID) error
}

type productRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProductRepo(db *gorm.DB, baseLog *logger.Logger) ProductRepo {
	repoLog := baseLog.With("repo", "ProductRepo")
	return &productRepo{db: db, log: repoLog}
}

func (pr *productRepo) Create(ctx context.Context, tx *gorm.DB, products []*types.Product) ([]*types.Product, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}
	if len(products) == 0 {
		return []*types.Product{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

func (pr *productRepo) GetByID(ctx context.Context, tx *gorm.DB, productID uuid.UUID) (*types.Product, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}
	var result types.Product
	if err := transaction.WithContext(ctx).
		Where("id = ?", productID).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (pr *productRepo) List(ctx context.Context, tx *gorm.DB, limit int) ([]*types.Product, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}
	var results []*types.Product
	if err := transaction.WithContext(ctx).
		Order("is_pinned DESC, created_at DESC").
		Limit(limit).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (pr *productRepo) Count(ctx context.Context, tx *gorm.DB) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}
	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.Product{}).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// SearchSubstring is the degraded keyword search used when the model-backed
// interpreter is unavailable. Matches title and description only.
func (pr *productRepo) SearchSubstring(ctx context.Context, tx *gorm.DB, query string, limit int) ([]*types.Product, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}
	pat := "%" + strings.ToLower(strings.TrimSpace(query)) + "%"
	var results []*types.Product
	if err := transaction.WithContext(ctx).
		Where("lower(title) LIKE ? OR lower(description) LIKE ?", pat, pat).
		Order("views DESC").
		Limit(limit).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (pr *productRepo) SearchFiltered(ctx context.Context, tx *gorm.DB, filter ProductFilter) ([]*types.Product, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}
	limit := filter.Limit
	if limit <= 0 || limit > 50 {
		limit = 20
	}
	q := transaction.WithContext(ctx).Model(&types.Product{})
	if len(filter.Keywords) > 0 {
		clauses := make([]string, 0, len(filter.Keywords))
		args := make([]any, 0, len(filter.Keywords)*3)
		for _, kw := range filter.Keywords {
			pat := "%" + strings.ToLower(strings.TrimSpace(kw)) + "%"
			clauses = append(clauses, "(lower(title) LIKE ? OR lower(description) LIKE ? OR lower(CAST(tags AS TEXT)) LIKE ?)")
			args = append(args, pat, pat, pat)
		}
		q = q.Where(strings.Join(clauses, " OR "), args...)
	}
	if filter.MinPrice != nil {
		q = q.Where("price >= ?", *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		q = q.Where("price <= ?", *filter.MaxPrice)
	}
	if filter.Category != "" {
		q = q.Where("lower(category) LIKE ?", "%"+strings.ToLower(filter.Category)+"%")
	}
	var results []*types.Product
	if err := q.Order("views DESC").Limit(limit).Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (pr *productRepo) ListWithEmbeddings(ctx context.Context, tx *gorm.DB, limit int) ([]*types.Product, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}
	var results []*types.Product
	if err := transaction.WithContext(ctx).
		Where("embedding IS NOT NULL").
		Order("created_at DESC").
		Limit(limit).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (pr *productRepo) ListAutoPricing(ctx context.Context, tx *gorm.DB) ([]*types.Product, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}
	var results []*types.Product
	if err := transaction.WithContext(ctx).
		Where("auto_pricing_enabled = ? AND competitor_url <> ''", true).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (pr *productRepo) UpdateFields(ctx context.Context, tx *gorm.DB, productID uuid.UUID, fields map[string]any) error {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}
	return transaction.WithContext(ctx).
		Model(&types.Product{}).
		Where("id = ?", productID).
		Updates(fields).Error
}

func (pr *productRepo) Delete(ctx context.Context, tx *gorm.DB, productID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}
	return transaction.WithContext(ctx).
		Where("id = ?", productID).
		Delete(&types.Product{}).Error
}
