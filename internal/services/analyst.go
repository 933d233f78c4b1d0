package services

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/omniflow/omniflow-backend/internal/ai"
	"github.com/omniflow/omniflow-backend/internal/logger"
	"github.com/omniflow/omniflow-backend/internal/repos"
	"github.com/omniflow/omniflow-backend/internal/types"
)

const (
	analystRecentOrders = 5
	analystRecentLogs   = 5
	trendQuerySample    = 50

	analystFallbackAnswer = "The analyst is unavailable right now. Raw dashboard numbers are still available under /admin/stats."
)

var trendOracleSchema = &ai.Schema{
	Name: "trend_report",
	Fields: []ai.Field{
		{Name: "opportunities", Type: ai.TypeObjectArray, Description: "Clusters of unmet demand", Items: &ai.Schema{
			Name: "opportunity",
			Fields: []ai.Field{
				{Name: "theme", Type: ai.TypeString, Description: "Short name for the demand cluster"},
				{Name: "example_queries", Type: ai.TypeStringArray, Description: "Customer queries in this cluster"},
				{Name: "suggestion", Type: ai.TypeString, Description: "What the shop should stock or rename to capture it"},
			},
		}},
		{Name: "summary", Type: ai.TypeString, Description: "One paragraph overview of the findings"},
	},
}

type AnalystAnswer struct {
	Answer   string `json:"answer"`
	Fallback bool   `json:"fallback,omitempty"`
}

type TrendOpportunity struct {
	Theme          string   `json:"theme"`
	ExampleQueries []string `json:"example_queries"`
	Suggestion     string   `json:"suggestion"`
}

type TrendReport struct {
	Opportunities []TrendOpportunity `json:"opportunities"`
	Summary       string             `json:"summary"`
	SampleSize    int                `json:"sample_size"`
}

type DashboardStats struct {
	Revenue      float64 `json:"revenue"`
	OrderCount   int64   `json:"order_count"`
	ProductCount int64   `json:"product_count"`
	UserCount    int64   `json:"user_count"`
}

type AnalystService interface {
	Ask(ctx context.Context, question string) (*AnalystAnswer, error)
	TrendOracle(ctx context.Context) (*TrendReport, error)
	Stats(ctx context.Context) (*DashboardStats, error)
}

type analystService struct {
	log           *logger.Logger
	invoker       ai.ModelInvoker
	prompts       *PromptCatalog
	orderRepo     repos.OrderRepo
	productRepo   repos.ProductRepo
	userRepo      repos.UserRepo
	systemLogRepo repos.SystemLogRepo
	searchLogRepo repos.SearchLogRepo
}

func NewAnalystService(
	log *logger.Logger,
	invoker ai.ModelInvoker,
	prompts *PromptCatalog,
	orderRepo repos.OrderRepo,
	productRepo repos.ProductRepo,
	userRepo repos.UserRepo,
	systemLogRepo repos.SystemLogRepo,
	searchLogRepo repos.SearchLogRepo,
) AnalystService {
	return &analystService{
		log:           log.With("service", "AnalystService"),
		invoker:       invoker,
		prompts:       prompts,
		orderRepo:     orderRepo,
		productRepo:   productRepo,
		userRepo:      userRepo,
		systemLogRepo: systemLogRepo,
		searchLogRepo: searchLogRepo,
	}
}

// Ask answers a business question from a bounded snapshot of shop state. The
// snapshot is assembled here, never by the model.
func (as *analystService) Ask(ctx context.Context, question string) (*AnalystAnswer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("question is required")
	}

	snapshot, err := as.buildSnapshot(ctx)
	if err != nil {
		return nil, err
	}

	answer, err := as.invoker.GenerateText(ctx, ai.TextRequest{
		Task:   TaskAnalyst,
		System: as.prompts.System(TaskAnalyst),
		Prompt: fmt.Sprintf("Shop snapshot:\n%s\nQuestion: %s", snapshot, question),
	})
	if err != nil {
		if !IsModelFailure(err) {
			return nil, err
		}
		as.log.Warn("Analyst model failed", "error", err)
		return &AnalystAnswer{Answer: analystFallbackAnswer, Fallback: true}, nil
	}
	return &AnalystAnswer{Answer: answer}, nil
}

func (as *analystService) buildSnapshot(ctx context.Context) (string, error) {
	revenue, err := as.orderRepo.SumTotalByStatus(ctx, nil, types.OrderStatusPaid)
	if err != nil {
		return "", fmt.Errorf("failed to sum revenue: %w", err)
	}
	productCount, err := as.productRepo.Count(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to count products: %w", err)
	}
	orders, err := as.orderRepo.ListRecent(ctx, nil, analystRecentOrders)
	if err != nil {
		return "", fmt.Errorf("failed to list recent orders: %w", err)
	}
	logs, err := as.systemLogRepo.ListRecent(ctx, nil, analystRecentLogs)
	if err != nil {
		return "", fmt.Errorf("failed to list system logs: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Paid revenue: %.2f\n", revenue)
	fmt.Fprintf(&b, "Product count: %d\n", productCount)
	b.WriteString("Recent orders:\n")
	for _, o := range orders {
		fmt.Fprintf(&b, "- %s: total %.2f, status %s, verified %t\n", o.ID, o.Total, o.Status, o.IsVerified)
	}
	b.WriteString("Recent system logs:\n")
	for _, l := range logs {
		fmt.Fprintf(&b, "- [%s] %s\n", l.Level, l.Message)
	}
	return b.String(), nil
}

// TrendOracle clusters recent zero-result searches into stocking opportunities.
func (as *analystService) TrendOracle(ctx context.Context) (*TrendReport, error) {
	misses, err := as.searchLogRepo.ListZeroResult(ctx, nil, trendQuerySample)
	if err != nil {
		return nil, fmt.Errorf("failed to list zero-result searches: %w", err)
	}
	if len(misses) == 0 {
		return &TrendReport{Opportunities: []TrendOpportunity{}, Summary: "No unmet search demand recorded yet."}, nil
	}

	var b strings.Builder
	for _, m := range misses {
		fmt.Fprintf(&b, "- %s\n", m.Query)
	}
	data, err := as.invoker.GenerateJSON(ctx, ai.JSONRequest{
		Task:   TaskTrendOracle,
		System: as.prompts.System(TaskTrendOracle),
		Prompt: fmt.Sprintf("These customer searches returned no results. Cluster them into product opportunities:\n%s", b.String()),
		Schema: trendOracleSchema,
	})
	if err != nil {
		return nil, err
	}

	report := &TrendReport{
		Summary:    ai.Str(data, "summary"),
		SampleSize: len(misses),
	}
	for _, item := range ai.ObjSlice(data, "opportunities") {
		report.Opportunities = append(report.Opportunities, TrendOpportunity{
			Theme:          ai.Str(item, "theme"),
			ExampleQueries: ai.StrSlice(item, "example_queries"),
			Suggestion:     ai.Str(item, "suggestion"),
		})
	}
	return report, nil
}

// Stats gathers independent read-only aggregates concurrently.
func (as *analystService) Stats(ctx context.Context) (*DashboardStats, error) {
	stats := &DashboardStats{}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		revenue, err := as.orderRepo.SumTotalByStatus(gctx, nil, types.OrderStatusPaid)
		if err != nil {
			return fmt.Errorf("failed to sum revenue: %w", err)
		}
		stats.Revenue = revenue
		return nil
	})
	g.Go(func() error {
		count, err := as.orderRepo.Count(gctx, nil)
		if err != nil {
			return fmt.Errorf("failed to count orders: %w", err)
		}
		stats.OrderCount = count
		return nil
	})
	g.Go(func() error {
		count, err := as.productRepo.Count(gctx, nil)
		if err != nil {
			return fmt.Errorf("failed to count products: %w", err)
		}
		stats.ProductCount = count
		return nil
	})
	g.Go(func() error {
		count, err := as.userRepo.Count(gctx, nil)
		if err != nil {
			return fmt.Errorf("failed to count users: %w", err)
		}
		stats.UserCount = count
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return stats, nil
}
