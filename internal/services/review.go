package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/omniflow/omniflow-backend/internal/ai"
	"github.com/omniflow/omniflow-backend/internal/logger"
	"github.com/omniflow/omniflow-backend/internal/repos"
	"github.com/omniflow/omniflow-backend/internal/types"
)

const (
	reviewListLimit      = 50
	reviewFallbackReply  = "Thank you for your feedback! We appreciate you taking the time to review this product."
	reviewRejectedReason = "This review was rejected by our moderation system."
)

var reviewAnalysisSchema = &ai.Schema{
	Name: "review_analysis",
	Fields: []ai.Field{
		{Name: "is_toxic", Type: ai.TypeBool, Description: "True when the comment contains abuse, hate or spam"},
		{Name: "sentiment_score", Type: ai.TypeNumber, Min: ai.Float(-1), Max: ai.Float(1), Description: "Sentiment from -1 (negative) to 1 (positive)"},
		{Name: "auto_reply", Type: ai.TypeString, Description: "A short friendly shop reply to the reviewer"},
	},
}

type SubmitReviewInput struct {
	UserID    uuid.UUID
	ProductID uuid.UUID
	Rating    int
	Comment   string
}

type SubmitReviewResult struct {
	Review   *types.Review `json:"review,omitempty"`
	Rejected bool          `json:"rejected"`
	Message  string        `json:"message,omitempty"`
}

type ReviewService interface {
	Submit(ctx context.Context, input SubmitReviewInput) (*SubmitReviewResult, error)
	ListByProduct(ctx context.Context, productID uuid.UUID) ([]*types.Review, error)
}

type reviewService struct {
	log        *logger.Logger
	invoker    ai.ModelInvoker
	prompts    *PromptCatalog
	reviewRepo repos.ReviewRepo
}

func NewReviewService(
	log *logger.Logger,
	invoker ai.ModelInvoker,
	prompts *PromptCatalog,
	reviewRepo repos.ReviewRepo,
) ReviewService {
	return &reviewService{
		log:        log.With("service", "ReviewService"),
		invoker:    invoker,
		prompts:    prompts,
		reviewRepo: reviewRepo,
	}
}

// Submit moderates and stores one review. Submissions are deliberately not
// deduplicated: the same user posting the same comment twice creates two rows.
func (rs *reviewService) Submit(ctx context.Context, input SubmitReviewInput) (*SubmitReviewResult, error) {
	comment := strings.TrimSpace(input.Comment)
	if comment == "" {
		return nil, fmt.Errorf("comment is required")
	}
	if input.Rating < 1 || input.Rating > 5 {
		return nil, fmt.Errorf("rating must be between 1 and 5")
	}

	review := &types.Review{
		ProductID: input.ProductID,
		UserID:    input.UserID,
		Rating:    input.Rating,
		Comment:   comment,
		AutoReply: reviewFallbackReply,
	}

	data, err := rs.invoker.GenerateJSON(ctx, ai.JSONRequest{
		Task:   TaskReviewAnalysis,
		System: rs.prompts.System(TaskReviewAnalysis),
		Prompt: fmt.Sprintf("Rating: %d/5\nReview comment: %q", input.Rating, comment),
		Schema: reviewAnalysisSchema,
	})
	switch {
	case err == nil:
		if ai.Bool(data, "is_toxic") {
			return &SubmitReviewResult{Rejected: true, Message: reviewRejectedReason}, nil
		}
		review.SentimentScore = ai.Num(data, "sentiment_score")
		if reply := strings.TrimSpace(ai.Str(data, "auto_reply")); reply != "" {
			review.AutoReply = reply
		}
	case IsModelFailure(err):
		// Moderation outage stores the review unmoderated with a neutral score.
		rs.log.Warn("Review analysis model failed, storing unmoderated", "product_id", input.ProductID, "error", err)
	default:
		return nil, err
	}

	created, err := rs.reviewRepo.Create(ctx, nil, []*types.Review{review})
	if err != nil {
		return nil, fmt.Errorf("failed to create review: %w", err)
	}
	return &SubmitReviewResult{Review: created[0]}, nil
}

func (rs *reviewService) ListByProduct(ctx context.Context, productID uuid.UUID) ([]*types.Review, error) {
	reviews, err := rs.reviewRepo.ListByProduct(ctx, nil, productID, reviewListLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	return reviews, nil
}
