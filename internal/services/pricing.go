package services

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/omniflow/omniflow-backend/internal/ai"
	"github.com/omniflow/omniflow-backend/internal/logger"
	"github.com/omniflow/omniflow-backend/internal/repos"
	"github.com/omniflow/omniflow-backend/internal/types"
)

const (
	competitorPageByteCap = 64 * 1024
	competitorFetchTO     = 15 * time.Second
	repriceUndercut       = 1.0
)

var competitorIntelSchema = &ai.Schema{
	Name: "competitor_intel",
	Fields: []ai.Field{
		{Name: "price", Type: ai.TypeNumber, Min: ai.Float(0), Description: "The competitor's current price for the product, numeric only"},
		{Name: "currency", Type: ai.TypeString, Description: "Currency code if visible on the page", Optional: true},
		{Name: "in_stock", Type: ai.TypeBool, Description: "Whether the competitor shows the product as in stock", Optional: true},
		{Name: "reasoning", Type: ai.TypeString, Description: "Where on the page the price was found"},
	},
}

type CompetitorIntel struct {
	ProductID uuid.UUID `json:"product_id"`
	Price     float64   `json:"price"`
	Currency  string    `json:"currency,omitempty"`
	Reasoning string    `json:"reasoning,omitempty"`
}

type RepriceOutcome struct {
	ProductID uuid.UUID `json:"product_id"`
	Changed   bool      `json:"changed"`
	OldPrice  float64   `json:"old_price"`
	NewPrice  float64   `json:"new_price,omitempty"`
	Message   string    `json:"message"`
}

type PricingService interface {
	SpyCompetitor(ctx context.Context, productID uuid.UUID) (*CompetitorIntel, error)
	Reprice(ctx context.Context, productID uuid.UUID) (*RepriceOutcome, error)
	RunAutoRepricing(ctx context.Context) ([]*RepriceOutcome, error)
}

type pricingService struct {
	log         *logger.Logger
	invoker     ai.ModelInvoker
	prompts     *PromptCatalog
	productRepo repos.ProductRepo
	httpClient  *http.Client
}

func NewPricingService(
	log *logger.Logger,
	invoker ai.ModelInvoker,
	prompts *PromptCatalog,
	productRepo repos.ProductRepo,
) PricingService {
	return &pricingService{
		log:         log.With("service", "PricingService"),
		invoker:     invoker,
		prompts:     prompts,
		productRepo: productRepo,
		httpClient:  &http.Client{Timeout: competitorFetchTO},
	}
}

func (ps *pricingService) fetchCompetitorPage(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build competitor request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; OmniflowBot/1.0)")
	resp, err := ps.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch competitor page: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("competitor page returned status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, competitorPageByteCap))
	if err != nil {
		return "", fmt.Errorf("failed to read competitor page: %w", err)
	}
	return string(body), nil
}

func (ps *pricingService) SpyCompetitor(ctx context.Context, productID uuid.UUID) (*CompetitorIntel, error) {
	product, err := ps.productRepo.GetByID(ctx, nil, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to load product: %w", err)
	}
	if strings.TrimSpace(product.CompetitorURL) == "" {
		return nil, fmt.Errorf("product has no competitor URL configured")
	}

	page, err := ps.fetchCompetitorPage(ctx, product.CompetitorURL)
	if err != nil {
		return nil, err
	}

	data, err := ps.invoker.GenerateJSON(ctx, ai.JSONRequest{
		Task:   TaskCompetitorIntel,
		System: ps.prompts.System(TaskCompetitorIntel),
		Prompt: fmt.Sprintf("We sell %q at %.2f. Extract the competitor's price for the equivalent product from this page:\n\n%s", product.Title, product.Price, page),
		Schema: competitorIntelSchema,
	})
	if err != nil {
		return nil, err
	}

	intel := &CompetitorIntel{
		ProductID: product.ID,
		Price:     ai.Num(data, "price"),
		Currency:  ai.Str(data, "currency"),
		Reasoning: ai.Str(data, "reasoning"),
	}
	if err := ps.productRepo.UpdateFields(ctx, nil, product.ID, map[string]any{
		"competitor_price": intel.Price,
	}); err != nil {
		return nil, fmt.Errorf("failed to store competitor price: %w", err)
	}
	return intel, nil
}

// costFloor is the minimum allowed sale price. A missing cost price falls
// back to a conservative 60% of the current list price.
func costFloor(p *types.Product) float64 {
	if p.CostPrice > 0 {
		return p.CostPrice
	}
	return p.Price * negotiationCostFraction
}

func (ps *pricingService) Reprice(ctx context.Context, productID uuid.UUID) (*RepriceOutcome, error) {
	product, err := ps.productRepo.GetByID(ctx, nil, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to load product: %w", err)
	}
	return ps.repriceProduct(ctx, product)
}

func (ps *pricingService) repriceProduct(ctx context.Context, product *types.Product) (*RepriceOutcome, error) {
	outcome := &RepriceOutcome{ProductID: product.ID, OldPrice: product.Price}
	if product.CompetitorPrice == nil || *product.CompetitorPrice <= 0 {
		outcome.Message = "no competitor price on record, run competitor intel first"
		return outcome, nil
	}

	// Only ever undercut. A competitor at or above our price never moves us up.
	if *product.CompetitorPrice >= product.Price {
		outcome.Message = fmt.Sprintf("competitor price %.2f is not below ours, keeping %.2f", *product.CompetitorPrice, product.Price)
		return outcome, nil
	}

	candidate := *product.CompetitorPrice - repriceUndercut
	floor := costFloor(product)
	if candidate < floor {
		outcome.Message = fmt.Sprintf("undercut price %.2f would fall below the cost floor %.2f, keeping %.2f", candidate, floor, product.Price)
		return outcome, nil
	}

	if err := ps.productRepo.UpdateFields(ctx, nil, product.ID, map[string]any{
		"price": candidate,
	}); err != nil {
		return nil, fmt.Errorf("failed to update price: %w", err)
	}
	outcome.Changed = true
	outcome.NewPrice = candidate
	outcome.Message = fmt.Sprintf("price moved from %.2f to %.2f, one below competitor", product.Price, candidate)
	ps.log.Info("Repriced product", "product_id", product.ID, "old_price", product.Price, "new_price", candidate)
	return outcome, nil
}

// RunAutoRepricing sweeps every product with auto-pricing enabled. Per-product
// failures are collected as outcomes rather than aborting the sweep.
func (ps *pricingService) RunAutoRepricing(ctx context.Context) ([]*RepriceOutcome, error) {
	products, err := ps.productRepo.ListAutoPricing(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list auto-pricing products: %w", err)
	}

	outcomes := make([]*RepriceOutcome, 0, len(products))
	for _, product := range products {
		if _, err := ps.SpyCompetitor(ctx, product.ID); err != nil {
			ps.log.Warn("Competitor intel failed during auto-repricing", "product_id", product.ID, "error", err)
			outcomes = append(outcomes, &RepriceOutcome{
				ProductID: product.ID,
				OldPrice:  product.Price,
				Message:   fmt.Sprintf("competitor intel failed: %v", err),
			})
			continue
		}
		refreshed, err := ps.productRepo.GetByID(ctx, nil, product.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to reload product: %w", err)
		}
		outcome, err := ps.repriceProduct(ctx, refreshed)
		if err != nil {
			return nil, err
		}
		outcomes = append(outcomes, outcome)
	}
	return outcomes, nil
}
