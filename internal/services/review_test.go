package services

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/omniflow/omniflow-backend/internal/ai"
	"github.com/omniflow/omniflow-backend/internal/types"
)

func TestSubmitReview_StoresModeratedReview(t *testing.T) {
	ctx := context.Background()
	var stored *types.Review
	reviews := &stubReviewRepo{createFn: func(rs []*types.Review) ([]*types.Review, error) {
		stored = rs[0]
		return rs, nil
	}}
	invoker := &fakeInvoker{jsonFn: func(context.Context, ai.JSONRequest) (map[string]any, error) {
		return map[string]any{
			"is_toxic":        false,
			"sentiment_score": 0.8,
			"auto_reply":      "Glad you love it!",
		}, nil
	}}
	rs := NewReviewService(testLogger(), invoker, testPrompts(), reviews)

	result, err := rs.Submit(ctx, SubmitReviewInput{
		UserID:    uuid.New(),
		ProductID: uuid.New(),
		Rating:    5,
		Comment:   "great lamp",
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if result.Rejected || result.Review == nil {
		t.Fatalf("expected stored review, got %+v", result)
	}
	if stored.SentimentScore != 0.8 || stored.AutoReply != "Glad you love it!" {
		t.Fatalf("moderation result not applied: %+v", stored)
	}
}

func TestSubmitReview_ToxicCommentRejectedWithoutRow(t *testing.T) {
	ctx := context.Background()
	reviews := &stubReviewRepo{createFn: func(rs []*types.Review) ([]*types.Review, error) {
		t.Fatalf("toxic review must not be stored")
		return rs, nil
	}}
	invoker := &fakeInvoker{jsonFn: func(context.Context, ai.JSONRequest) (map[string]any, error) {
		return map[string]any{
			"is_toxic":        true,
			"sentiment_score": -0.9,
			"auto_reply":      "",
		}, nil
	}}
	rs := NewReviewService(testLogger(), invoker, testPrompts(), reviews)

	result, err := rs.Submit(ctx, SubmitReviewInput{
		UserID:    uuid.New(),
		ProductID: uuid.New(),
		Rating:    1,
		Comment:   "absolute garbage, and so are you",
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if !result.Rejected || result.Review != nil {
		t.Fatalf("expected rejection without a row, got %+v", result)
	}
}

func TestSubmitReview_ModerationOutageStoresUnmoderated(t *testing.T) {
	ctx := context.Background()
	var stored *types.Review
	reviews := &stubReviewRepo{createFn: func(rs []*types.Review) ([]*types.Review, error) {
		stored = rs[0]
		return rs, nil
	}}
	rs := NewReviewService(testLogger(), &fakeInvoker{}, testPrompts(), reviews)

	result, err := rs.Submit(ctx, SubmitReviewInput{
		UserID:    uuid.New(),
		ProductID: uuid.New(),
		Rating:    4,
		Comment:   "works fine",
	})
	if err != nil {
		t.Fatalf("Submit during outage: %v", err)
	}
	if result.Rejected || result.Review == nil {
		t.Fatalf("outage must store the review, got %+v", result)
	}
	if stored.SentimentScore != 0 || stored.AutoReply == "" {
		t.Fatalf("unmoderated review should keep the neutral defaults, got %+v", stored)
	}
}

func TestSubmitReview_DuplicatesCreateSeparateRows(t *testing.T) {
	ctx := context.Background()
	created := 0
	reviews := &stubReviewRepo{createFn: func(rs []*types.Review) ([]*types.Review, error) {
		created++
		return rs, nil
	}}
	invoker := &fakeInvoker{jsonFn: func(context.Context, ai.JSONRequest) (map[string]any, error) {
		return map[string]any{"is_toxic": false, "sentiment_score": 0.5, "auto_reply": "thanks"}, nil
	}}
	rs := NewReviewService(testLogger(), invoker, testPrompts(), reviews)

	input := SubmitReviewInput{UserID: uuid.New(), ProductID: uuid.New(), Rating: 3, Comment: "okay"}
	for i := 0; i < 2; i++ {
		if _, err := rs.Submit(ctx, input); err != nil {
			t.Fatalf("Submit #%d: %v", i+1, err)
		}
	}
	if created != 2 {
		t.Fatalf("identical submissions must each create a row, got %d", created)
	}
}

func TestSubmitReview_ValidatesInput(t *testing.T) {
	rs := NewReviewService(testLogger(), &fakeInvoker{}, testPrompts(), &stubReviewRepo{})
	if _, err := rs.Submit(context.Background(), SubmitReviewInput{Rating: 3, Comment: "  "}); err == nil {
		t.Fatalf("expected error for blank comment")
	}
	if _, err := rs.Submit(context.Background(), SubmitReviewInput{Rating: 0, Comment: "hi"}); err == nil {
		t.Fatalf("expected error for rating out of range")
	}
}
