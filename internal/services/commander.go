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

const commanderListLimit = 10

var commanderPlanSchema = &ai.Schema{
	Name: "command_plan",
	Fields: []ai.Field{
		{Name: "action", Type: ai.TypeString, Enum: []string{"count", "list", "update"}, Description: "The operation to perform"},
		{Name: "table", Type: ai.TypeString, Enum: []string{"product", "order", "user"}, Description: "The table the operation targets"},
		{Name: "target_id", Type: ai.TypeString, Description: "UUID of the row to update, required for update", Optional: true},
		{Name: "update_field", Type: ai.TypeString, Description: "Column to update, required for update", Optional: true},
		{Name: "update_value", Type: ai.TypeString, Description: "New value as a string, required for update", Optional: true},
		{Name: "response_speech", Type: ai.TypeString, Description: "A short spoken confirmation of what will be done"},
	},
}

// commanderUpdatable whitelists the columns the commander may ever touch.
// Everything else is rejected before any SQL runs.
var commanderUpdatable = map[string]map[string]bool{
	"product": {"price": true, "stock": true},
	"order":   {"status": true},
	"user":    {"status": true},
}

type CommandPlan struct {
	Action         string `json:"action"`
	Table          string `json:"table"`
	TargetID       string `json:"target_id,omitempty"`
	UpdateField    string `json:"update_field,omitempty"`
	UpdateValue    string `json:"update_value,omitempty"`
	ResponseSpeech string `json:"response_speech"`
}

type CommandResult struct {
	Plan     *CommandPlan `json:"plan"`
	Executed bool         `json:"executed"`
	Output   any          `json:"output,omitempty"`
}

type CommanderService interface {
	Plan(ctx context.Context, instruction string) (*CommandPlan, error)
	Execute(ctx context.Context, plan *CommandPlan) (*CommandResult, error)
	Voice(ctx context.Context, audio []byte, mimeType string, confirmed bool) (*CommandResult, error)
}

type commanderService struct {
	log         *logger.Logger
	invoker     ai.ModelInvoker
	prompts     *PromptCatalog
	speech      SpeechService
	productRepo repos.ProductRepo
	orderRepo   repos.OrderRepo
	userRepo    repos.UserRepo
	orders      OrderService
	users       UserService
	catalog     CatalogService
}

func NewCommanderService(
	log *logger.Logger,
	invoker ai.ModelInvoker,
	prompts *PromptCatalog,
	speech SpeechService,
	productRepo repos.ProductRepo,
	orderRepo repos.OrderRepo,
	userRepo repos.UserRepo,
	orders OrderService,
	users UserService,
	catalog CatalogService,
) CommanderService {
	return &commanderService{
		log:         log.With("service", "CommanderService"),
		invoker:     invoker,
		prompts:     prompts,
		speech:      speech,
		productRepo: productRepo,
		orderRepo:   orderRepo,
		userRepo:    userRepo,
		orders:      orders,
		users:       users,
		catalog:     catalog,
	}
}

// Plan turns a natural-language instruction into a typed plan. Nothing is
// executed here; the admin reviews the plan and confirms separately.
func (cs *commanderService) Plan(ctx context.Context, instruction string) (*CommandPlan, error) {
	instruction = strings.TrimSpace(instruction)
	if instruction == "" {
		return nil, fmt.Errorf("instruction is required")
	}

	data, err := cs.invoker.GenerateJSON(ctx, ai.JSONRequest{
		Task:   TaskCommander,
		System: cs.prompts.System(TaskCommander),
		Prompt: fmt.Sprintf("Admin instruction: %q", instruction),
		Schema: commanderPlanSchema,
	})
	if err != nil {
		return nil, err
	}

	plan := &CommandPlan{
		Action:         ai.Str(data, "action"),
		Table:          ai.Str(data, "table"),
		TargetID:       ai.Str(data, "target_id"),
		UpdateField:    ai.Str(data, "update_field"),
		UpdateValue:    ai.Str(data, "update_value"),
		ResponseSpeech: ai.Str(data, "response_speech"),
	}
	if err := validatePlan(plan); err != nil {
		return nil, fmt.Errorf("%w: %v", ai.ErrModelInvalid, err)
	}
	return plan, nil
}

func validatePlan(plan *CommandPlan) error {
	if plan.Action != "update" {
		return nil
	}
	if plan.UpdateField == "" || plan.UpdateValue == "" {
		return fmt.Errorf("update plan is missing field or value")
	}
	if !commanderUpdatable[plan.Table][plan.UpdateField] {
		return fmt.Errorf("field %q of table %q is not commandable", plan.UpdateField, plan.Table)
	}
	if _, err := uuid.Parse(plan.TargetID); err != nil {
		return fmt.Errorf("update plan needs a valid target id")
	}
	return nil
}

func (cs *commanderService) Execute(ctx context.Context, plan *CommandPlan) (*CommandResult, error) {
	if plan == nil {
		return nil, fmt.Errorf("plan is required")
	}
	if err := validatePlan(plan); err != nil {
		return nil, err
	}

	result := &CommandResult{Plan: plan, Executed: true}
	switch plan.Action {
	case "count":
		count, err := cs.count(ctx, plan.Table)
		if err != nil {
			return nil, err
		}
		result.Output = map[string]any{"count": count}
	case "list":
		rows, err := cs.list(ctx, plan.Table)
		if err != nil {
			return nil, err
		}
		result.Output = rows
	case "update":
		if err := cs.update(ctx, plan); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown plan action %q", plan.Action)
	}

	cs.log.Info("Executed command plan", "action", plan.Action, "table", plan.Table, "target_id", plan.TargetID)
	return result, nil
}

func (cs *commanderService) count(ctx context.Context, table string) (int64, error) {
	switch table {
	case "product":
		return cs.productRepo.Count(ctx, nil)
	case "order":
		return cs.orderRepo.Count(ctx, nil)
	case "user":
		return cs.userRepo.Count(ctx, nil)
	default:
		return 0, fmt.Errorf("unknown table %q", table)
	}
}

func (cs *commanderService) list(ctx context.Context, table string) (any, error) {
	switch table {
	case "product":
		return cs.productRepo.List(ctx, nil, commanderListLimit)
	case "order":
		return cs.orderRepo.ListRecent(ctx, nil, commanderListLimit)
	case "user":
		return cs.userRepo.List(ctx, nil, commanderListLimit)
	default:
		return nil, fmt.Errorf("unknown table %q", table)
	}
}

// update routes through the domain services so their own validation rules
// (status vocabulary, positive prices) still apply.
func (cs *commanderService) update(ctx context.Context, plan *CommandPlan) error {
	targetID, err := uuid.Parse(plan.TargetID)
	if err != nil {
		return fmt.Errorf("invalid target id: %w", err)
	}
	switch plan.Table {
	case "product":
		value, err := parseCommandNumber(plan.UpdateValue)
		if err != nil {
			return err
		}
		fields := map[string]any{plan.UpdateField: value}
		if plan.UpdateField == "stock" {
			fields[plan.UpdateField] = int(value)
		}
		_, err = cs.catalog.UpdateProduct(ctx, targetID, fields)
		return err
	case "order":
		if !types.ValidOrderStatus(plan.UpdateValue) {
			return fmt.Errorf("invalid order status %q", plan.UpdateValue)
		}
		return cs.orders.UpdateStatus(ctx, targetID, plan.UpdateValue)
	case "user":
		return cs.users.SetStatus(ctx, targetID, plan.UpdateValue)
	default:
		return fmt.Errorf("unknown table %q", plan.Table)
	}
}

func parseCommandNumber(raw string) (float64, error) {
	var value float64
	if _, err := fmt.Sscanf(strings.TrimSpace(raw), "%f", &value); err != nil {
		return 0, fmt.Errorf("value %q is not numeric", raw)
	}
	return value, nil
}

// Voice transcribes a spoken instruction and plans it. Execution still
// requires explicit confirmation, exactly like the typed path.
func (cs *commanderService) Voice(ctx context.Context, audio []byte, mimeType string, confirmed bool) (*CommandResult, error) {
	if cs.speech == nil {
		return nil, fmt.Errorf("voice commands are not configured")
	}
	transcript, err := cs.speech.Transcribe(ctx, audio, mimeType)
	if err != nil {
		return nil, err
	}
	plan, err := cs.Plan(ctx, transcript)
	if err != nil {
		return nil, err
	}
	if !confirmed {
		return &CommandResult{Plan: plan, Executed: false}, nil
	}
	return cs.Execute(ctx, plan)
}
