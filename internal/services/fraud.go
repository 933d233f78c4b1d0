package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/omniflow/omniflow-backend/internal/ai"
	"github.com/omniflow/omniflow-backend/internal/logger"
	"github.com/omniflow/omniflow-backend/internal/repos"
	"github.com/omniflow/omniflow-backend/internal/types"
)

const (
	// An order is verified only when the slip amount covers the total AND
	// the fraud score stays under this bound.
	fraudVerifyThreshold = 20.0
	// Scores above this bound (or an amount mismatch) append a WARN row to
	// the system log.
	fraudWarnThreshold = 50.0

	velocityMaxPerMinute = 3
)

// SlipAnalysis is the validated verdict extracted from a payment slip.
type SlipAnalysis struct {
	ExtractedAmount float64
	ExtractedDate   string
	AmountMatches   bool
	FraudScore      float64
	Reasoning       string
}

type FraudService interface {
	// CheckUser runs the velocity and blacklist checks for a user who is
	// about to place an order. A velocity violation inserts a shadow-ban
	// blacklist entry. Errors from the image-free checks propagate.
	CheckUser(ctx context.Context, userID uuid.UUID) (shadowBanned bool, err error)
	// AnalyzeSlip invokes the model on the slip image. It performs no
	// writes; a failure wraps ai.ErrModel.
	AnalyzeSlip(ctx context.Context, expectedTotal float64, image ai.ImagePart) (*SlipAnalysis, error)
	// ApplyVerdict performs the bounded writes for a verdict inside the
	// caller's transaction: the verified flag and, when warranted, one
	// warning log row.
	ApplyVerdict(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, expectedTotal float64, analysis *SlipAnalysis) (verified bool, err error)
}

type fraudService struct {
	log           *logger.Logger
	invoker       ai.ModelInvoker
	prompts       *PromptCatalog
	velocity      VelocityCounter
	orderRepo     repos.OrderRepo
	blacklistRepo repos.BlacklistRepo
	systemLogRepo repos.SystemLogRepo
}

func NewFraudService(
	log *logger.Logger,
	invoker ai.ModelInvoker,
	prompts *PromptCatalog,
	velocity VelocityCounter,
	orderRepo repos.OrderRepo,
	blacklistRepo repos.BlacklistRepo,
	systemLogRepo repos.SystemLogRepo,
) FraudService {
	return &fraudService{
		log:           log.With("service", "FraudService"),
		invoker:       invoker,
		prompts:       prompts,
		velocity:      velocity,
		orderRepo:     orderRepo,
		blacklistRepo: blacklistRepo,
		systemLogRepo: systemLogRepo,
	}
}

var slipVerificationSchema = &ai.Schema{
	Name: "slip_verification",
	Fields: []ai.Field{
		{Name: "extracted_amount", Type: ai.TypeNumber, Min: ai.Float(0), Description: "The total amount found on the transfer slip"},
		{Name: "extracted_date", Type: ai.TypeString, Description: "The date and time found on the slip"},
		{Name: "amount_matches", Type: ai.TypeBool, Description: "True if extracted_amount matches or exceeds the expected total"},
		{Name: "fraud_score", Type: ai.TypeNumber, Min: ai.Float(0), Max: ai.Float(100), Description: "0-100 score where 100 is likely fraud; consider forgery signs"},
		{Name: "reasoning", Type: ai.TypeString, Description: "Why this score was given"},
	},
}

func (fs *fraudService) CheckUser(ctx context.Context, userID uuid.UUID) (bool, error) {
	count, err := fs.velocity.Bump(ctx, userID)
	if err != nil {
		// Counter outage must not block checkout; fall through to the
		// blacklist lookup.
		fs.log.Warn("Velocity counter unavailable", "user_id", userID, "error", err)
	} else if count > velocityMaxPerMinute {
		entry := &types.BlacklistEntry{
			UserID:       userID,
			Reason:       "High velocity (spam)",
			ShadowBanned: true,
		}
		if _, err := fs.blacklistRepo.Create(ctx, nil, []*types.BlacklistEntry{entry}); err != nil {
			return false, fmt.Errorf("failed to insert blacklist entry: %w", err)
		}
		return true, nil
	}

	banned, err := fs.blacklistRepo.IsShadowBanned(ctx, nil, userID)
	if err != nil {
		return false, fmt.Errorf("failed to check blacklist: %w", err)
	}
	return banned, nil
}

func (fs *fraudService) AnalyzeSlip(ctx context.Context, expectedTotal float64, image ai.ImagePart) (*SlipAnalysis, error) {
	prompt := fmt.Sprintf(`Analyze this bank transfer slip. The expected amount is %.2f.
Check:
1. Does the amount match or exceed the expected total?
2. Does the date look recent?
3. Any signs of editing or forgery?`, expectedTotal)

	obj, err := fs.invoker.GenerateJSON(ctx, ai.JSONRequest{
		Task:   TaskSlipVerification,
		System: fs.prompts.System(TaskSlipVerification),
		Prompt: prompt,
		Image:  &image,
		Schema: slipVerificationSchema,
	})
	if err != nil {
		return nil, err
	}
	return &SlipAnalysis{
		ExtractedAmount: ai.Num(obj, "extracted_amount"),
		ExtractedDate:   ai.Str(obj, "extracted_date"),
		AmountMatches:   ai.Bool(obj, "amount_matches"),
		FraudScore:      ai.Num(obj, "fraud_score"),
		Reasoning:       ai.Str(obj, "reasoning"),
	}, nil
}

func (fs *fraudService) ApplyVerdict(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, expectedTotal float64, analysis *SlipAnalysis) (bool, error) {
	amountOK := analysis.AmountMatches && analysis.ExtractedAmount >= expectedTotal
	verified := amountOK && analysis.FraudScore < fraudVerifyThreshold

	if err := fs.orderRepo.SetVerified(ctx, tx, orderID, verified); err != nil {
		return false, fmt.Errorf("failed to set order verification: %w", err)
	}

	if analysis.FraudScore > fraudWarnThreshold || !amountOK {
		entry := &types.SystemLog{
			Level:       types.LogLevelWarn,
			Message:     fmt.Sprintf("Possible fraud detected on order %s", orderID),
			AIDiagnosis: analysis.Reasoning,
		}
		if _, err := fs.systemLogRepo.Create(ctx, tx, []*types.SystemLog{entry}); err != nil {
			return false, fmt.Errorf("failed to append warning log: %w", err)
		}
	}
	return verified, nil
}

// IsModelFailure reports whether an error came from the model boundary and
// should resolve through a fallback rather than fail the action.
func IsModelFailure(err error) bool {
	return errors.Is(err, ai.ErrModel)
}
