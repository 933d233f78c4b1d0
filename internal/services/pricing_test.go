package services

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/omniflow/omniflow-backend/internal/ai"
	"github.com/omniflow/omniflow-backend/internal/types"
)

func autoPriceProduct(price, cost float64, competitor *float64) *types.Product {
	return &types.Product{
		ID:              uuid.New(),
		Title:           "desk lamp",
		Price:           price,
		CostPrice:       cost,
		CompetitorURL:   "https://rival.example/lamp",
		CompetitorPrice: competitor,
	}
}

func TestCostFloor_FallsBackToSixtyPercent(t *testing.T) {
	if got := costFloor(&types.Product{Price: 100, CostPrice: 70}); got != 70 {
		t.Fatalf("costFloor with cost price: %v", got)
	}
	if got := costFloor(&types.Product{Price: 100}); got != 60 {
		t.Fatalf("costFloor without cost price: %v", got)
	}
}

func TestReprice_UndercutsCompetitorByOne(t *testing.T) {
	ctx := context.Background()
	product := autoPriceProduct(100, 50, ai.Float(90))
	var updated map[string]any
	repo := &stubProductRepo{
		getByIDFn:      func(uuid.UUID) (*types.Product, error) { return product, nil },
		updateFieldsFn: func(_ uuid.UUID, fields map[string]any) error { updated = fields; return nil },
	}
	ps := NewPricingService(testLogger(), &fakeInvoker{}, testPrompts(), repo)

	outcome, err := ps.Reprice(ctx, product.ID)
	if err != nil {
		t.Fatalf("Reprice: %v", err)
	}
	if !outcome.Changed || outcome.NewPrice != 89 {
		t.Fatalf("expected price change to 89, got %+v", outcome)
	}
	if updated == nil || updated["price"] != float64(89) {
		t.Fatalf("expected stored price 89, got %v", updated)
	}
}

func TestReprice_RefusesToCrossCostFloor(t *testing.T) {
	ctx := context.Background()
	product := autoPriceProduct(100, 95, ai.Float(90))
	repo := &stubProductRepo{
		getByIDFn: func(uuid.UUID) (*types.Product, error) { return product, nil },
		updateFieldsFn: func(uuid.UUID, map[string]any) error {
			t.Fatalf("no write expected below the cost floor")
			return nil
		},
	}
	ps := NewPricingService(testLogger(), &fakeInvoker{}, testPrompts(), repo)

	outcome, err := ps.Reprice(ctx, product.ID)
	if err != nil {
		t.Fatalf("Reprice: %v", err)
	}
	if outcome.Changed {
		t.Fatalf("undercut to 89 with cost 95 must be a no-op")
	}
	if outcome.Message == "" {
		t.Fatalf("a refused reprice must explain itself")
	}
}

func TestReprice_NoCompetitorPriceIsNoOp(t *testing.T) {
	ctx := context.Background()
	product := autoPriceProduct(100, 50, nil)
	repo := &stubProductRepo{getByIDFn: func(uuid.UUID) (*types.Product, error) { return product, nil }}
	ps := NewPricingService(testLogger(), &fakeInvoker{}, testPrompts(), repo)

	outcome, err := ps.Reprice(ctx, product.ID)
	if err != nil {
		t.Fatalf("Reprice: %v", err)
	}
	if outcome.Changed || outcome.Message == "" {
		t.Fatalf("expected explanatory no-op, got %+v", outcome)
	}
}

func TestReprice_AlreadyAtUndercutIsNoOp(t *testing.T) {
	ctx := context.Background()
	product := autoPriceProduct(89, 50, ai.Float(90))
	repo := &stubProductRepo{
		getByIDFn: func(uuid.UUID) (*types.Product, error) { return product, nil },
		updateFieldsFn: func(uuid.UUID, map[string]any) error {
			t.Fatalf("no write expected when already at the undercut price")
			return nil
		},
	}
	ps := NewPricingService(testLogger(), &fakeInvoker{}, testPrompts(), repo)

	outcome, err := ps.Reprice(ctx, product.ID)
	if err != nil {
		t.Fatalf("Reprice: %v", err)
	}
	if outcome.Changed {
		t.Fatalf("expected no-op, got %+v", outcome)
	}
}

func TestReprice_NeverRaisesTowardPricierCompetitor(t *testing.T) {
	ctx := context.Background()
	product := autoPriceProduct(100, 50, ai.Float(150))
	repo := &stubProductRepo{
		getByIDFn: func(uuid.UUID) (*types.Product, error) { return product, nil },
		updateFieldsFn: func(uuid.UUID, map[string]any) error {
			t.Fatalf("no write expected when the competitor is more expensive")
			return nil
		},
	}
	ps := NewPricingService(testLogger(), &fakeInvoker{}, testPrompts(), repo)

	outcome, err := ps.Reprice(ctx, product.ID)
	if err != nil {
		t.Fatalf("Reprice: %v", err)
	}
	if outcome.Changed {
		t.Fatalf("competitor at 150 must not move our 100 price, got %+v", outcome)
	}
	if outcome.Message == "" {
		t.Fatalf("a refused reprice must explain itself")
	}
}

func TestRunAutoRepricing_CollectsPerProductFailures(t *testing.T) {
	// SpyCompetitor fails for every product here (no usable competitor page),
	// so the sweep must report one failed outcome per product instead of
	// aborting.
	ctx := context.Background()
	products := []*types.Product{
		autoPriceProduct(100, 50, nil),
		autoPriceProduct(40, 20, nil),
	}
	products[0].CompetitorURL = ""
	products[1].CompetitorURL = ""
	byID := map[uuid.UUID]*types.Product{products[0].ID: products[0], products[1].ID: products[1]}
	repo := &stubProductRepo{
		listAutoPriceFn: func() ([]*types.Product, error) { return products, nil },
		getByIDFn:       func(id uuid.UUID) (*types.Product, error) { return byID[id], nil },
	}
	ps := NewPricingService(testLogger(), &fakeInvoker{}, testPrompts(), repo)

	outcomes, err := ps.RunAutoRepricing(ctx)
	if err != nil {
		t.Fatalf("RunAutoRepricing: %v", err)
	}
	if len(outcomes) != 2 {
		t.Fatalf("expected 2 outcomes, got %d", len(outcomes))
	}
	for _, o := range outcomes {
		if o.Changed || o.Message == "" {
			t.Fatalf("expected explained failure outcome, got %+v", o)
		}
	}
}
