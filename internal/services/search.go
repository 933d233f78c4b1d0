package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/omniflow/omniflow-backend/internal/ai"
	"github.com/omniflow/omniflow-backend/internal/logger"
	"github.com/omniflow/omniflow-backend/internal/repos"
	"github.com/omniflow/omniflow-backend/internal/types"
)

const (
	searchDefaultLimit   = 20
	visualCandidatePool  = 200
	visualTopK           = 10
	visualScoreThreshold = 0.7
)

var searchQuerySchema = &ai.Schema{
	Name: "search_query",
	Fields: []ai.Field{
		{Name: "keywords", Type: ai.TypeStringArray, Description: "Search terms extracted from the query, singular forms, no stopwords"},
		{Name: "min_price", Type: ai.TypeNumber, Description: "Lower price bound if the query implies one", Optional: true},
		{Name: "max_price", Type: ai.TypeNumber, Description: "Upper price bound if the query implies one", Optional: true},
		{Name: "category", Type: ai.TypeString, Description: "Product category if the query implies one", Optional: true},
		{Name: "reasoning", Type: ai.TypeString, Description: "One sentence on how the query was interpreted"},
	},
}

// SearchResult carries the matched products plus how the query was resolved,
// so callers can tell an AI-interpreted search from a plain substring one.
type SearchResult struct {
	Products []*types.Product `json:"products"`
	Fallback bool             `json:"fallback"`
	Reason   string           `json:"reason,omitempty"`
}

type VisualMatch struct {
	Product *types.Product `json:"product"`
	Score   float64        `json:"score"`
}

type VisualSearchResult struct {
	Description string        `json:"description"`
	Matches     []VisualMatch `json:"matches"`
}

type SearchService interface {
	SmartSearch(ctx context.Context, userID *uuid.UUID, query string) (*SearchResult, error)
	VisualSearch(ctx context.Context, image ai.ImagePart) (*VisualSearchResult, error)
}

type searchService struct {
	log           *logger.Logger
	invoker       ai.ModelInvoker
	prompts       *PromptCatalog
	productRepo   repos.ProductRepo
	searchLogRepo repos.SearchLogRepo
}

func NewSearchService(
	log *logger.Logger,
	invoker ai.ModelInvoker,
	prompts *PromptCatalog,
	productRepo repos.ProductRepo,
	searchLogRepo repos.SearchLogRepo,
) SearchService {
	return &searchService{
		log:           log.With("service", "SearchService"),
		invoker:       invoker,
		prompts:       prompts,
		productRepo:   productRepo,
		searchLogRepo: searchLogRepo,
	}
}

func (ss *searchService) SmartSearch(ctx context.Context, userID *uuid.UUID, query string) (*SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		products, err := ss.productRepo.List(ctx, nil, searchDefaultLimit)
		if err != nil {
			return nil, fmt.Errorf("failed to list products: %w", err)
		}
		return &SearchResult{Products: products}, nil
	}

	result, err := ss.interpretAndSearch(ctx, query)
	if err != nil {
		if !IsModelFailure(err) {
			return nil, err
		}
		ss.log.Warn("Search intent model failed, using substring fallback", "query", query, "error", err)
		products, ferr := ss.productRepo.SearchSubstring(ctx, nil, query, searchDefaultLimit)
		if ferr != nil {
			return nil, fmt.Errorf("failed to run fallback search: %w", ferr)
		}
		result = &SearchResult{Products: products, Fallback: true}
	}

	ss.recordSearch(ctx, userID, query, len(result.Products))
	return result, nil
}

func (ss *searchService) interpretAndSearch(ctx context.Context, query string) (*SearchResult, error) {
	data, err := ss.invoker.GenerateJSON(ctx, ai.JSONRequest{
		Task:   TaskSearchIntent,
		System: ss.prompts.System(TaskSearchIntent),
		Prompt: fmt.Sprintf("Interpret this product search query: %q", query),
		Schema: searchQuerySchema,
	})
	if err != nil {
		return nil, err
	}

	filter := repos.ProductFilter{
		Keywords: ai.StrSlice(data, "keywords"),
		MinPrice: ai.OptNum(data, "min_price"),
		MaxPrice: ai.OptNum(data, "max_price"),
		Category: ai.Str(data, "category"),
		Limit:    searchDefaultLimit,
	}
	if len(filter.Keywords) == 0 {
		filter.Keywords = strings.Fields(strings.ToLower(query))
	}

	products, err := ss.productRepo.SearchFiltered(ctx, nil, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to run filtered search: %w", err)
	}
	return &SearchResult{Products: products, Reason: ai.Str(data, "reasoning")}, nil
}

// recordSearch is best-effort; a failed log write never fails the search.
func (ss *searchService) recordSearch(ctx context.Context, userID *uuid.UUID, query string, count int) {
	entry := &types.SearchLog{
		UserID:       userID,
		Query:        query,
		ResultsCount: count,
	}
	if _, err := ss.searchLogRepo.Create(ctx, nil, []*types.SearchLog{entry}); err != nil {
		ss.log.Warn("Failed to record search log", "query", query, "error", err)
	}
}

func (ss *searchService) VisualSearch(ctx context.Context, image ai.ImagePart) (*VisualSearchResult, error) {
	description, err := ss.invoker.GenerateText(ctx, ai.TextRequest{
		Task:   TaskVisualDescribe,
		System: ss.prompts.System(TaskVisualDescribe),
		Prompt: "Describe the product shown in this image in one short paragraph suitable for catalog search.",
		Image:  &image,
	})
	if err != nil {
		return nil, err
	}

	vecs, err := ss.invoker.Embed(ctx, []string{description})
	if err != nil {
		return nil, err
	}
	if len(vecs) == 0 {
		return nil, fmt.Errorf("%w: empty embedding response", ai.ErrModelInvalid)
	}
	queryVec := vecs[0]

	candidates, err := ss.productRepo.ListWithEmbeddings(ctx, nil, visualCandidatePool)
	if err != nil {
		return nil, fmt.Errorf("failed to load embedded products: %w", err)
	}

	matches := make([]VisualMatch, 0, len(candidates))
	for _, p := range candidates {
		vec, ok := decodeEmbedding(p.Embedding)
		if !ok {
			continue
		}
		score := cosineSimilarity(queryVec, vec)
		if score >= visualScoreThreshold {
			matches = append(matches, VisualMatch{Product: p, Score: score})
		}
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
	if len(matches) > visualTopK {
		matches = matches[:visualTopK]
	}

	return &VisualSearchResult{Description: description, Matches: matches}, nil
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
