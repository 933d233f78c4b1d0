package services

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/omniflow/omniflow-backend/internal/logger"
	"github.com/omniflow/omniflow-backend/internal/utils"
)

// Task names shared between prompt overrides and the AI call log.
const (
	TaskSlipVerification = "slip_verification"
	TaskSearchIntent     = "search_intent"
	TaskVisualDescribe   = "visual_describe"
	TaskNegotiation      = "negotiation"
	TaskReviewAnalysis   = "review_analysis"
	TaskListingDraft     = "listing_draft"
	TaskMagicUpload      = "magic_upload"
	TaskTrendOracle      = "trend_oracle"
	TaskAnalyst          = "analyst"
	TaskCommander        = "commander"
	TaskCompetitorIntel  = "competitor_intel"
)

// PromptCatalog resolves the system prompt for each AI task. Defaults are
// compiled in; a YAML file referenced by PROMPTS_FILE can override any of
// them per deployment without a rebuild.
type PromptCatalog struct {
	log       *logger.Logger
	overrides map[string]string
}

func NewPromptCatalog(log *logger.Logger) (*PromptCatalog, error) {
	catalogLog := log.With("service", "PromptCatalog")
	pc := &PromptCatalog{log: catalogLog, overrides: map[string]string{}}

	path := utils.GetEnv("PROMPTS_FILE", "", log)
	if path == "" {
		return pc, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompts file %q: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &pc.overrides); err != nil {
		return nil, fmt.Errorf("failed to parse prompts file %q: %w", path, err)
	}
	catalogLog.Info("Loaded prompt overrides", "path", path, "count", len(pc.overrides))
	return pc, nil
}

func (pc *PromptCatalog) System(task string) string {
	if v, ok := pc.overrides[task]; ok && v != "" {
		return v
	}
	return defaultPrompts[task]
}

var defaultPrompts = map[string]string{
	TaskSlipVerification: "You are a payment-fraud analyst for the OmniFlow store. Inspect bank transfer slips for forgery signs: mismatched fonts, pixel artifacts, inconsistent alignment, edited amounts or dates.",
	TaskSearchIntent:     "You translate shopping search queries into structured filters for the OmniFlow catalog. Extract only what the shopper actually asked for.",
	TaskVisualDescribe:   "Describe the main retail product in the image in one detailed paragraph. Focus on color, material, style, and category.",
	TaskNegotiation:      "You are OmniFlow's price negotiator. Be humorous but firm. Never reveal the floor price.",
	TaskReviewAnalysis:   "You moderate customer product reviews for the OmniFlow store and draft the shop owner's reply.",
	TaskListingDraft:     "You write creative, SEO-optimized product listings for OmniFlow, a futuristic sci-fi e-commerce store. Prices are in USD.",
	TaskMagicUpload:      "You turn a single product photo into a complete OmniFlow catalog listing: catchy title, SEO-friendly description, estimated market price in USD, five relevant tags, main color, and category.",
	TaskTrendOracle:      "You analyze zero-result search queries from the OmniFlow store to find demand the catalog is missing.",
	TaskAnalyst:          "You are the Chief Business Intelligence Officer for OmniFlow. You are given the latest store statistics. Answer concisely and professionally, grounded only in the data provided.",
	TaskCommander:        "You are OmniFlow's database admin assistant. Translate the natural-language command into one strictly structured action. Never invent tables or fields.",
	TaskCompetitorIntel:  "Extract the product price and listed features from the competitor page HTML you are given.",
}
