package services

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/omniflow/omniflow-backend/internal/ai"
	"github.com/omniflow/omniflow-backend/internal/logger"
	"github.com/omniflow/omniflow-backend/internal/repos"
	"github.com/omniflow/omniflow-backend/internal/types"
)

const (
	negotiationMarginFactor = 1.15
	negotiationCostFraction = 0.6
	negotiationDealToken    = "DEAL"
	negotiationMinDiscount  = 5
	negotiationMaxDiscount  = 50
	negotiationCouponTTL    = 24 * time.Hour

	negotiationFallbackReply = "Our negotiation assistant is taking a break right now. The listed price stands for the moment, please try again in a little while."
)

var dealTokenPattern = regexp.MustCompile(`(?i)` + negotiationDealToken)

type NegotiationResult struct {
	Reply           string `json:"reply"`
	Deal            bool   `json:"deal"`
	CouponCode      string `json:"coupon_code,omitempty"`
	DiscountPercent int    `json:"discount_percent,omitempty"`
	Fallback        bool   `json:"fallback,omitempty"`
}

type NegotiationService interface {
	Negotiate(ctx context.Context, userID uuid.UUID, productID uuid.UUID, history []ai.Turn, message string) (*NegotiationResult, error)
}

type negotiationService struct {
	log         *logger.Logger
	invoker     ai.ModelInvoker
	prompts     *PromptCatalog
	productRepo repos.ProductRepo
	couponRepo  repos.CouponRepo
}

func NewNegotiationService(
	log *logger.Logger,
	invoker ai.ModelInvoker,
	prompts *PromptCatalog,
	productRepo repos.ProductRepo,
	couponRepo repos.CouponRepo,
) NegotiationService {
	return &negotiationService{
		log:         log.With("service", "NegotiationService"),
		invoker:     invoker,
		prompts:     prompts,
		productRepo: productRepo,
		couponRepo:  couponRepo,
	}
}

// priceFloor is the lowest price the assistant may agree to. When the seller
// never recorded a cost price we assume a 60% cost basis rather than letting
// the floor collapse to zero.
func priceFloor(p *types.Product) float64 {
	cost := p.CostPrice
	if cost <= 0 {
		cost = p.Price * negotiationCostFraction
	}
	return cost * negotiationMarginFactor
}

func derivedDiscount(price, floor float64) int {
	if price <= 0 {
		return negotiationMinDiscount
	}
	discount := int(math.Round((1 - floor/price) * 100))
	if discount < negotiationMinDiscount {
		discount = negotiationMinDiscount
	}
	if discount > negotiationMaxDiscount {
		discount = negotiationMaxDiscount
	}
	return discount
}

func (ns *negotiationService) Negotiate(ctx context.Context, userID uuid.UUID, productID uuid.UUID, history []ai.Turn, message string) (*NegotiationResult, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, fmt.Errorf("message is required")
	}

	product, err := ns.productRepo.GetByID(ctx, nil, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to load product: %w", err)
	}

	floor := priceFloor(product)
	prompt := fmt.Sprintf(
		"Product: %s\nListed price: %.2f\nAbsolute minimum price you may accept: %.2f\n"+
			"Never reveal the minimum. If you agree to a price at or above the minimum, include the single word %s in your reply.\n\nCustomer: %s",
		product.Title, product.Price, floor, negotiationDealToken, message,
	)

	reply, err := ns.invoker.GenerateText(ctx, ai.TextRequest{
		Task:   TaskNegotiation,
		System: ns.prompts.System(TaskNegotiation),
		Turns:  history,
		Prompt: prompt,
	})
	if err != nil {
		if !IsModelFailure(err) {
			return nil, err
		}
		ns.log.Warn("Negotiation model failed, returning fallback reply", "product_id", productID, "error", err)
		return &NegotiationResult{Reply: negotiationFallbackReply, Fallback: true}, nil
	}

	// Models are asked for the bare token but routinely fold it into prose,
	// so the match is case-insensitive.
	result := &NegotiationResult{Reply: reply}
	if !strings.Contains(strings.ToUpper(reply), negotiationDealToken) {
		return result, nil
	}

	result.Deal = true
	result.DiscountPercent = derivedDiscount(product.Price, floor)
	validUntil := time.Now().Add(negotiationCouponTTL)
	coupon := &types.Coupon{
		Code:             fmt.Sprintf("DEAL-%s", strings.ToUpper(uuid.NewString()[:8])),
		DiscountPercent:  result.DiscountPercent,
		IsHidden:         true,
		GeneratedForUser: &userID,
		ValidUntil:       &validUntil,
	}
	if _, err := ns.couponRepo.Create(ctx, nil, []*types.Coupon{coupon}); err != nil {
		return nil, fmt.Errorf("failed to create negotiated coupon: %w", err)
	}
	result.CouponCode = coupon.Code
	// The token is a control signal, not customer-facing text.
	result.Reply = strings.TrimSpace(dealTokenPattern.ReplaceAllString(reply, ""))

	return result, nil
}
