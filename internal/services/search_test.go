package services

import (
	"context"
	"math"
	"testing"

	"github.com/google/uuid"

	"github.com/omniflow/omniflow-backend/internal/ai"
	"github.com/omniflow/omniflow-backend/internal/repos"
	"github.com/omniflow/omniflow-backend/internal/types"
)

func TestSmartSearch_UsesInterpretedFilter(t *testing.T) {
	ctx := context.Background()
	want := []*types.Product{{ID: uuid.New(), Title: "red sneakers"}}
	var gotFilter repos.ProductFilter
	products := &stubProductRepo{searchFilterFn: func(f repos.ProductFilter) ([]*types.Product, error) {
		gotFilter = f
		return want, nil
	}}
	invoker := &fakeInvoker{jsonFn: func(_ context.Context, req ai.JSONRequest) (map[string]any, error) {
		return map[string]any{
			"keywords":  []any{"sneaker", "red"},
			"max_price": float64(50),
			"reasoning": "shoes under fifty",
		}, nil
	}}
	logged := 0
	searchLogs := &stubSearchLogRepo{createFn: func(logs []*types.SearchLog) ([]*types.SearchLog, error) {
		logged++
		if logs[0].Query != "red sneakers under $50" || logs[0].ResultsCount != 1 {
			t.Fatalf("unexpected search log %+v", logs[0])
		}
		return logs, nil
	}}
	ss := NewSearchService(testLogger(), invoker, testPrompts(), products, searchLogs)

	result, err := ss.SmartSearch(ctx, nil, "red sneakers under $50")
	if err != nil {
		t.Fatalf("SmartSearch: %v", err)
	}
	if result.Fallback {
		t.Fatalf("interpreted search must not be flagged as fallback")
	}
	if len(result.Products) != 1 || result.Products[0].Title != "red sneakers" {
		t.Fatalf("unexpected products %+v", result.Products)
	}
	if len(gotFilter.Keywords) != 2 || gotFilter.MaxPrice == nil || *gotFilter.MaxPrice != 50 {
		t.Fatalf("unexpected filter %+v", gotFilter)
	}
	if logged != 1 {
		t.Fatalf("expected one search log row, got %d", logged)
	}
}

func TestSmartSearch_FallsBackToSubstringOnModelFailure(t *testing.T) {
	ctx := context.Background()
	want := []*types.Product{{ID: uuid.New(), Title: "blue mug"}}
	products := &stubProductRepo{searchSubstrFn: func(query string, _ int) ([]*types.Product, error) {
		if query != "blue mug" {
			t.Fatalf("fallback must reuse the raw query, got %q", query)
		}
		return want, nil
	}}
	ss := NewSearchService(testLogger(), &fakeInvoker{}, testPrompts(), products, &stubSearchLogRepo{})

	result, err := ss.SmartSearch(ctx, nil, "blue mug")
	if err != nil {
		t.Fatalf("SmartSearch during outage: %v", err)
	}
	if !result.Fallback {
		t.Fatalf("expected fallback flag")
	}
	if len(result.Products) != 1 {
		t.Fatalf("expected substring results, got %+v", result.Products)
	}
}

func TestSmartSearch_EmptyQueryListsCatalog(t *testing.T) {
	ctx := context.Background()
	products := &stubProductRepo{listFn: func(limit int) ([]*types.Product, error) {
		return []*types.Product{{Title: "a"}, {Title: "b"}}, nil
	}}
	ss := NewSearchService(testLogger(), &fakeInvoker{}, testPrompts(), products, &stubSearchLogRepo{})

	result, err := ss.SmartSearch(ctx, nil, "  ")
	if err != nil {
		t.Fatalf("SmartSearch: %v", err)
	}
	if len(result.Products) != 2 {
		t.Fatalf("expected plain listing, got %+v", result.Products)
	}
}

func TestSmartSearch_LogWriteFailureDoesNotFailSearch(t *testing.T) {
	ctx := context.Background()
	products := &stubProductRepo{searchFilterFn: func(repos.ProductFilter) ([]*types.Product, error) {
		return nil, nil
	}}
	invoker := &fakeInvoker{jsonFn: func(context.Context, ai.JSONRequest) (map[string]any, error) {
		return map[string]any{"keywords": []any{"mug"}, "reasoning": "mugs"}, nil
	}}
	searchLogs := &stubSearchLogRepo{createFn: func([]*types.SearchLog) ([]*types.SearchLog, error) {
		return nil, context.DeadlineExceeded
	}}
	ss := NewSearchService(testLogger(), invoker, testPrompts(), products, searchLogs)

	if _, err := ss.SmartSearch(ctx, nil, "mug"); err != nil {
		t.Fatalf("search must survive a failed log write: %v", err)
	}
}

func TestVisualSearch_RanksBySimilarityAboveThreshold(t *testing.T) {
	ctx := context.Background()
	near := &types.Product{ID: uuid.New(), Title: "near", Embedding: encodeEmbedding([]float32{1, 0, 0})}
	mid := &types.Product{ID: uuid.New(), Title: "mid", Embedding: encodeEmbedding([]float32{0.9, 0.1, 0})}
	far := &types.Product{ID: uuid.New(), Title: "far", Embedding: encodeEmbedding([]float32{0, 0, 1})}
	products := &stubProductRepo{listEmbeddedFn: func(int) ([]*types.Product, error) {
		return []*types.Product{far, mid, near}, nil
	}}
	invoker := &fakeInvoker{
		textFn: func(context.Context, ai.TextRequest) (string, error) { return "a red lamp", nil },
		embedFn: func(_ context.Context, inputs []string) ([][]float32, error) {
			if len(inputs) != 1 || inputs[0] != "a red lamp" {
				t.Fatalf("embedding input must be the description, got %v", inputs)
			}
			return [][]float32{{1, 0, 0}}, nil
		},
	}
	ss := NewSearchService(testLogger(), invoker, testPrompts(), products, &stubSearchLogRepo{})

	result, err := ss.VisualSearch(ctx, ai.ImagePart{MIMEType: "image/png", Data: []byte{1}})
	if err != nil {
		t.Fatalf("VisualSearch: %v", err)
	}
	if result.Description != "a red lamp" {
		t.Fatalf("unexpected description %q", result.Description)
	}
	if len(result.Matches) != 2 {
		t.Fatalf("expected the orthogonal product filtered out, got %+v", result.Matches)
	}
	if result.Matches[0].Product.Title != "near" || result.Matches[1].Product.Title != "mid" {
		t.Fatalf("matches must be sorted by score desc, got %+v", result.Matches)
	}
}

func TestVisualSearch_DescribeFailurePropagatesAsModelError(t *testing.T) {
	ss := NewSearchService(testLogger(), &fakeInvoker{}, testPrompts(), &stubProductRepo{}, &stubSearchLogRepo{})
	_, err := ss.VisualSearch(context.Background(), ai.ImagePart{MIMEType: "image/png", Data: []byte{1}})
	if err == nil || !IsModelFailure(err) {
		t.Fatalf("expected model-family error, got %v", err)
	}
}

func TestCosineSimilarity(t *testing.T) {
	if got := cosineSimilarity([]float32{1, 0}, []float32{1, 0}); math.Abs(got-1) > 1e-9 {
		t.Fatalf("identical vectors: %v", got)
	}
	if got := cosineSimilarity([]float32{1, 0}, []float32{0, 1}); got != 0 {
		t.Fatalf("orthogonal vectors: %v", got)
	}
	if got := cosineSimilarity(nil, []float32{1}); got != 0 {
		t.Fatalf("mismatched lengths: %v", got)
	}
}
