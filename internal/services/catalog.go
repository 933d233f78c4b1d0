package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/omniflow/omniflow-backend/internal/ai"
	"github.com/omniflow/omniflow-backend/internal/logger"
	"github.com/omniflow/omniflow-backend/internal/repos"
	"github.com/omniflow/omniflow-backend/internal/types"
)

const (
	catalogListLimit      = 50
	magicUploadStock      = 100
	listingKeywordsPrompt = "Write a sales listing for a product. Seller notes: %s"
)

var listingDraftSchema = &ai.Schema{
	Name: "listing_draft",
	Fields: []ai.Field{
		{Name: "title", Type: ai.TypeString, Description: "Catchy product title, max 80 characters"},
		{Name: "description", Type: ai.TypeString, Description: "Two to three paragraph sales description"},
		{Name: "category", Type: ai.TypeString, Description: "Single product category"},
		{Name: "tags", Type: ai.TypeStringArray, Description: "Three to eight search tags"},
		{Name: "seo_title", Type: ai.TypeString, Description: "SEO page title"},
		{Name: "seo_description", Type: ai.TypeString, Description: "SEO meta description, max 160 characters"},
		{Name: "suggested_price", Type: ai.TypeNumber, Min: ai.Float(0), Description: "Suggested retail price", Optional: true},
	},
}

// ListingDraft is a model-written listing that has not touched the database.
type ListingDraft struct {
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	Category       string   `json:"category"`
	Tags           []string `json:"tags"`
	SEOTitle       string   `json:"seo_title"`
	SEODescription string   `json:"seo_description"`
	SuggestedPrice *float64 `json:"suggested_price,omitempty"`
}

type CreateProductInput struct {
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	Price          float64  `json:"price"`
	CostPrice      float64  `json:"cost_price"`
	Category       string   `json:"category"`
	Tags           []string `json:"tags"`
	Stock          int      `json:"stock"`
	SEOTitle       string   `json:"seo_title"`
	SEODescription string   `json:"seo_description"`
	CompetitorURL  string   `json:"competitor_url"`
	SellerID       *uuid.UUID
}

type CatalogService interface {
	GenerateListing(ctx context.Context, notes string) (*ListingDraft, error)
	MagicUpload(ctx context.Context, sellerID uuid.UUID, image ai.ImagePart, price float64) (*types.Product, error)
	CreateProduct(ctx context.Context, input CreateProductInput) (*types.Product, error)
	GetProduct(ctx context.Context, productID uuid.UUID) (*types.Product, error)
	ListProducts(ctx context.Context, limit int) ([]*types.Product, error)
	UpdateProduct(ctx context.Context, productID uuid.UUID, fields map[string]any) (*types.Product, error)
	DeleteProduct(ctx context.Context, productID uuid.UUID) error
	SetPinned(ctx context.Context, productID uuid.UUID, pinned bool) error
	SetFlashSale(ctx context.Context, productID uuid.UUID, active bool, flashPrice *float64) error
}

type catalogService struct {
	log         *logger.Logger
	invoker     ai.ModelInvoker
	prompts     *PromptCatalog
	bucket      BucketService
	productRepo repos.ProductRepo
}

func NewCatalogService(
	log *logger.Logger,
	invoker ai.ModelInvoker,
	prompts *PromptCatalog,
	bucket BucketService,
	productRepo repos.ProductRepo,
) CatalogService {
	return &catalogService{
		log:         log.With("service", "CatalogService"),
		invoker:     invoker,
		prompts:     prompts,
		bucket:      bucket,
		productRepo: productRepo,
	}
}

func (cs *catalogService) GenerateListing(ctx context.Context, notes string) (*ListingDraft, error) {
	notes = strings.TrimSpace(notes)
	if notes == "" {
		return nil, fmt.Errorf("seller notes are required")
	}
	data, err := cs.invoker.GenerateJSON(ctx, ai.JSONRequest{
		Task:   TaskListingDraft,
		System: cs.prompts.System(TaskListingDraft),
		Prompt: fmt.Sprintf(listingKeywordsPrompt, notes),
		Schema: listingDraftSchema,
	})
	if err != nil {
		return nil, err
	}
	return &ListingDraft{
		Title:          ai.Str(data, "title"),
		Description:    ai.Str(data, "description"),
		Category:       ai.Str(data, "category"),
		Tags:           ai.StrSlice(data, "tags"),
		SEOTitle:       ai.Str(data, "seo_title"),
		SEODescription: ai.Str(data, "seo_description"),
		SuggestedPrice: ai.OptNum(data, "suggested_price"),
	}, nil
}

// MagicUpload turns a single product photo into a live listing. The image
// upload is tolerated as best-effort; the generated listing is not.
func (cs *catalogService) MagicUpload(ctx context.Context, sellerID uuid.UUID, image ai.ImagePart, price float64) (*types.Product, error) {
	if len(image.Data) == 0 {
		return nil, fmt.Errorf("image is required")
	}
	if price <= 0 {
		return nil, fmt.Errorf("price must be positive")
	}

	data, err := cs.invoker.GenerateJSON(ctx, ai.JSONRequest{
		Task:   TaskMagicUpload,
		System: cs.prompts.System(TaskMagicUpload),
		Prompt: "Write a complete sales listing for the product in this photo.",
		Image:  &image,
		Schema: listingDraftSchema,
	})
	if err != nil {
		return nil, err
	}

	product := &types.Product{
		Title:          ai.Str(data, "title"),
		Description:    ai.Str(data, "description"),
		Category:       ai.Str(data, "category"),
		Tags:           toJSONArray(ai.StrSlice(data, "tags")),
		SEOTitle:       ai.Str(data, "seo_title"),
		SEODescription: ai.Str(data, "seo_description"),
		Price:          price,
		Stock:          magicUploadStock,
		SellerID:       &sellerID,
	}

	// Storage can be unconfigured or down; the listing still gets created,
	// just without an image.
	if cs.bucket == nil {
		cs.log.Warn("No bucket configured, creating listing without image", "seller_id", sellerID)
	} else {
		key := fmt.Sprintf("products/%s/%s", sellerID, uuid.NewString())
		if uerr := cs.bucket.UploadBytes(ctx, key, image.Data, image.MIMEType); uerr != nil {
			cs.log.Warn("Product image upload failed, creating listing without image", "seller_id", sellerID, "error", uerr)
		} else {
			product.Images = toJSONArray([]string{cs.bucket.GetPublicURL(key)})
		}
	}

	if vecs, eerr := cs.invoker.Embed(ctx, []string{product.Title + "\n" + product.Description}); eerr != nil || len(vecs) == 0 {
		cs.log.Warn("Product embedding failed, listing will be excluded from visual search", "error", eerr)
	} else {
		product.Embedding = encodeEmbedding(vecs[0])
	}

	created, err := cs.productRepo.Create(ctx, nil, []*types.Product{product})
	if err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return created[0], nil
}

func (cs *catalogService) CreateProduct(ctx context.Context, input CreateProductInput) (*types.Product, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, fmt.Errorf("title is required")
	}
	if input.Price <= 0 {
		return nil, fmt.Errorf("price must be positive")
	}

	product := &types.Product{
		Title:          input.Title,
		Description:    input.Description,
		Price:          input.Price,
		CostPrice:      input.CostPrice,
		Category:       input.Category,
		Tags:           toJSONArray(input.Tags),
		Stock:          input.Stock,
		SEOTitle:       input.SEOTitle,
		SEODescription: input.SEODescription,
		CompetitorURL:  input.CompetitorURL,
		SellerID:       input.SellerID,
	}
	if vecs, err := cs.invoker.Embed(ctx, []string{product.Title + "\n" + product.Description}); err != nil || len(vecs) == 0 {
		cs.log.Warn("Product embedding failed", "title", input.Title, "error", err)
	} else {
		product.Embedding = encodeEmbedding(vecs[0])
	}

	created, err := cs.productRepo.Create(ctx, nil, []*types.Product{product})
	if err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return created[0], nil
}

func (cs *catalogService) GetProduct(ctx context.Context, productID uuid.UUID) (*types.Product, error) {
	product, err := cs.productRepo.GetByID(ctx, nil, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to load product: %w", err)
	}
	// View counting is best-effort.
	if err := cs.productRepo.UpdateFields(ctx, nil, productID, map[string]any{
		"views": product.Views + 1,
	}); err != nil {
		cs.log.Warn("Failed to bump product views", "product_id", productID, "error", err)
	}
	return product, nil
}

func (cs *catalogService) ListProducts(ctx context.Context, limit int) ([]*types.Product, error) {
	if limit <= 0 || limit > catalogListLimit {
		limit = catalogListLimit
	}
	products, err := cs.productRepo.List(ctx, nil, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

// allowed mutable columns for the generic update path
var productUpdatableFields = map[string]bool{
	"title":                true,
	"description":          true,
	"price":                true,
	"cost_price":           true,
	"category":             true,
	"stock":                true,
	"seo_title":            true,
	"seo_description":      true,
	"competitor_url":       true,
	"auto_pricing_enabled": true,
}

func (cs *catalogService) UpdateProduct(ctx context.Context, productID uuid.UUID, fields map[string]any) (*types.Product, error) {
	filtered := make(map[string]any, len(fields))
	for k, v := range fields {
		if productUpdatableFields[k] {
			filtered[k] = v
		}
	}
	if len(filtered) == 0 {
		return nil, fmt.Errorf("no updatable fields supplied")
	}
	if price, ok := filtered["price"]; ok {
		if p, ok := price.(float64); !ok || p <= 0 {
			return nil, fmt.Errorf("price must be positive")
		}
	}
	if err := cs.productRepo.UpdateFields(ctx, nil, productID, filtered); err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	return cs.productRepo.GetByID(ctx, nil, productID)
}

func (cs *catalogService) DeleteProduct(ctx context.Context, productID uuid.UUID) error {
	if err := cs.productRepo.Delete(ctx, nil, productID); err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	return nil
}

func (cs *catalogService) SetPinned(ctx context.Context, productID uuid.UUID, pinned bool) error {
	if err := cs.productRepo.UpdateFields(ctx, nil, productID, map[string]any{
		"is_pinned": pinned,
	}); err != nil {
		return fmt.Errorf("failed to update pin state: %w", err)
	}
	return nil
}

// SetFlashSale activates a flash sale. The flash price may never exceed the
// list price.
func (cs *catalogService) SetFlashSale(ctx context.Context, productID uuid.UUID, active bool, flashPrice *float64) error {
	fields := map[string]any{"is_flash_sale": false, "flash_price": nil}
	if active {
		if flashPrice == nil || *flashPrice <= 0 {
			return fmt.Errorf("flash price must be positive")
		}
		product, err := cs.productRepo.GetByID(ctx, nil, productID)
		if err != nil {
			return fmt.Errorf("failed to load product: %w", err)
		}
		if *flashPrice > product.Price {
			return fmt.Errorf("flash price %.2f exceeds list price %.2f", *flashPrice, product.Price)
		}
		fields["is_flash_sale"] = true
		fields["flash_price"] = *flashPrice
	}
	if err := cs.productRepo.UpdateFields(ctx, nil, productID, fields); err != nil {
		return fmt.Errorf("failed to update flash sale: %w", err)
	}
	return nil
}

func toJSONArray(values []string) datatypes.JSON {
	if len(values) == 0 {
		return nil
	}
	raw, err := json.Marshal(values)
	if err != nil {
		return nil
	}
	return datatypes.JSON(raw)
}
