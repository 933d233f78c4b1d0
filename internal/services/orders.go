package services

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/omniflow/omniflow-backend/internal/ai"
	"github.com/omniflow/omniflow-backend/internal/logger"
	"github.com/omniflow/omniflow-backend/internal/repos"
	"github.com/omniflow/omniflow-backend/internal/types"
)

type OrderItemInput struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
}

type PlaceOrderInput struct {
	UserID       uuid.UUID
	Items        []OrderItemInput
	SlipImageB64 string
	SlipMIMEType string
}

const (
	VerificationVerified    = "verified"
	VerificationUnverified  = "unverified"
	VerificationUnavailable = "unavailable"
	VerificationSkipped     = "skipped"
)

type PlaceOrderResult struct {
	OrderID      uuid.UUID `json:"order_id"`
	Total        float64   `json:"total"`
	Verification string    `json:"verification"`
}

type OrderService interface {
	PlaceOrder(ctx context.Context, input PlaceOrderInput) (*PlaceOrderResult, error)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, status string) error
	GetOrder(ctx context.Context, orderID uuid.UUID) (*types.Order, error)
	ListRecent(ctx context.Context, limit int) ([]*types.Order, error)
	ListForUser(ctx context.Context, userID uuid.UUID, limit int) ([]*types.Order, error)
}

type orderService struct {
	db          *gorm.DB
	log         *logger.Logger
	orderRepo   repos.OrderRepo
	productRepo repos.ProductRepo
	fraud       FraudService
	bucket      BucketService
}

func NewOrderService(
	db *gorm.DB,
	log *logger.Logger,
	orderRepo repos.OrderRepo,
	productRepo repos.ProductRepo,
	fraud FraudService,
	bucket BucketService,
) OrderService {
	return &orderService{
		db:          db,
		log:         log.With("service", "OrderService"),
		orderRepo:   orderRepo,
		productRepo: productRepo,
		fraud:       fraud,
		bucket:      bucket,
	}
}

// PlaceOrder runs the checkout orchestration: validate, fraud-check the
// user, price the items server-side, analyze the payment slip when one is
// attached, then apply order + verdict + warning log in one transaction.
// Slip verification runs synchronously by policy; a model failure leaves
// the order unverified instead of failing checkout.
func (svc *orderService) PlaceOrder(ctx context.Context, input PlaceOrderInput) (*PlaceOrderResult, error) {
	if input.UserID == uuid.Nil {
		return nil, fmt.Errorf("user id is required")
	}
	if len(input.Items) == 0 {
		return nil, fmt.Errorf("order must contain at least one item")
	}
	for _, item := range input.Items {
		if item.Quantity <= 0 {
			return nil, fmt.Errorf("item quantity must be positive")
		}
	}

	shadowBanned, err := svc.fraud.CheckUser(ctx, input.UserID)
	if err != nil {
		return nil, err
	}

	// Price server-side from the current effective price; item rows are
	// immutable once attached.
	var total float64
	items := make([]types.OrderItem, 0, len(input.Items))
	for _, item := range input.Items {
		product, err := svc.productRepo.GetByID(ctx, nil, item.ProductID)
		if err != nil {
			return nil, fmt.Errorf("failed to load product %s: %w", item.ProductID, err)
		}
		price := product.Price
		if product.IsFlashSale && product.FlashPrice != nil {
			price = *product.FlashPrice
		}
		total += price * float64(item.Quantity)
		items = append(items, types.OrderItem{
			ID:        uuid.New(),
			ProductID: product.ID,
			Quantity:  item.Quantity,
			Price:     price,
		})
	}

	var slip *ai.ImagePart
	slipURL := ""
	if input.SlipImageB64 != "" {
		raw, decErr := base64.StdEncoding.DecodeString(input.SlipImageB64)
		if decErr != nil {
			return nil, fmt.Errorf("slip image is not valid base64")
		}
		mime := input.SlipMIMEType
		if mime == "" {
			mime = "image/jpeg"
		}
		slip = &ai.ImagePart{MIMEType: mime, Data: raw}
		slipURL = svc.uploadSlip(ctx, input.UserID, raw, mime)
	}

	// Shadow-banned users see a normal success; their orders stay
	// unverified and skip slip analysis.
	var analysis *SlipAnalysis
	verification := VerificationSkipped
	if slip != nil && !shadowBanned {
		analysis, err = svc.fraud.AnalyzeSlip(ctx, total, *slip)
		if err != nil {
			if !IsModelFailure(err) {
				return nil, err
			}
			svc.log.Warn("Slip analysis unavailable, order left unverified", "user_id", input.UserID, "error", err)
			analysis = nil
			verification = VerificationUnavailable
		}
	}

	order := &types.Order{
		ID:           uuid.New(),
		UserID:       input.UserID,
		Total:        total,
		Status:       types.OrderStatusPending,
		SlipImageURL: slipURL,
		Items:        items,
	}

	if err := svc.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := svc.orderRepo.Create(ctx, tx, []*types.Order{order}); err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}
		if analysis != nil {
			verified, err := svc.fraud.ApplyVerdict(ctx, tx, order.ID, total, analysis)
			if err != nil {
				return err
			}
			if verified {
				verification = VerificationVerified
			} else {
				verification = VerificationUnverified
			}
		}
		return nil
	}); err != nil {
		return nil, err
	}

	return &PlaceOrderResult{OrderID: order.ID, Total: total, Verification: verification}, nil
}

// uploadSlip stores the slip image for later auditing. Storage failure is
// tolerated: the order proceeds without an image reference.
func (svc *orderService) uploadSlip(ctx context.Context, userID uuid.UUID, raw []byte, mime string) string {
	if svc.bucket == nil {
		return ""
	}
	key := fmt.Sprintf("slips/%s/%d", userID, time.Now().UnixNano())
	if err := svc.bucket.UploadBytes(ctx, key, raw, mime); err != nil {
		svc.log.Warn("Slip upload failed, continuing without image", "user_id", userID, "error", err)
		return ""
	}
	return svc.bucket.GetPublicURL(key)
}

func (svc *orderService) UpdateStatus(ctx context.Context, orderID uuid.UUID, status string) error {
	if !types.ValidOrderStatus(status) {
		return fmt.Errorf("invalid order status %q", status)
	}
	return svc.orderRepo.UpdateStatus(ctx, nil, orderID, status)
}

func (svc *orderService) GetOrder(ctx context.Context, orderID uuid.UUID) (*types.Order, error) {
	return svc.orderRepo.GetByID(ctx, nil, orderID)
}

func (svc *orderService) ListRecent(ctx context.Context, limit int) ([]*types.Order, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return svc.orderRepo.ListRecent(ctx, nil, limit)
}

func (svc *orderService) ListForUser(ctx context.Context, userID uuid.UUID, limit int) ([]*types.Order, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return svc.orderRepo.ListByUser(ctx, nil, userID, limit)
}
