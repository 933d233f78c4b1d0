package handlers

import (
	"encoding/base64"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/omniflow/omniflow-backend/internal/services"
)

// AdminHandler groups the back-office surface: analytics, the trend oracle
// and the database commander.
type AdminHandler struct {
	analystService   services.AnalystService
	commanderService services.CommanderService
	userService      services.UserService
}

func NewAdminHandler(
	analystService services.AnalystService,
	commanderService services.CommanderService,
	userService services.UserService,
) *AdminHandler {
	return &AdminHandler{
		analystService:   analystService,
		commanderService: commanderService,
		userService:      userService,
	}
}

func (ah *AdminHandler) Stats(c *gin.Context) {
	stats, err := ah.analystService.Stats(c.Request.Context())
	if err != nil {
		RespondFromError(c, err)
		return
	}
	RespondOK(c, stats)
}

func (ah *AdminHandler) AskAnalyst(c *gin.Context) {
	var input struct {
		Question string `json:"question"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	answer, err := ah.analystService.Ask(c.Request.Context(), input.Question)
	if err != nil {
		RespondFromError(c, err)
		return
	}
	RespondOK(c, answer)
}

func (ah *AdminHandler) TrendOracle(c *gin.Context) {
	report, err := ah.analystService.TrendOracle(c.Request.Context())
	if err != nil {
		RespondFromError(c, err)
		return
	}
	RespondOK(c, report)
}

func (ah *AdminHandler) PlanCommand(c *gin.Context) {
	var input struct {
		Instruction string `json:"instruction"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	plan, err := ah.commanderService.Plan(c.Request.Context(), input.Instruction)
	if err != nil {
		RespondFromError(c, err)
		return
	}
	RespondOK(c, gin.H{"plan": plan, "executed": false})
}

func (ah *AdminHandler) ExecuteCommand(c *gin.Context) {
	var plan services.CommandPlan
	if err := c.ShouldBindJSON(&plan); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	result, err := ah.commanderService.Execute(c.Request.Context(), &plan)
	if err != nil {
		RespondFromError(c, err)
		return
	}
	RespondOK(c, result)
}

func (ah *AdminHandler) VoiceCommand(c *gin.Context) {
	var input struct {
		AudioB64  string `json:"audio_b64"`
		MIMEType  string `json:"mime_type"`
		Confirmed bool   `json:"confirmed"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	audio, err := base64.StdEncoding.DecodeString(input.AudioB64)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	result, err := ah.commanderService.Voice(c.Request.Context(), audio, input.MIMEType, input.Confirmed)
	if err != nil {
		RespondFromError(c, err)
		return
	}
	RespondOK(c, result)
}

func (ah *AdminHandler) ListUsers(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	users, err := ah.userService.List(c.Request.Context(), limit)
	if err != nil {
		RespondFromError(c, err)
		return
	}
	RespondOK(c, gin.H{"users": users})
}

func (ah *AdminHandler) SetUserStatus(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	var input struct {
		Status string `json:"status"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	if err := ah.userService.SetStatus(c.Request.Context(), userID, input.Status); err != nil {
		RespondFromError(c, err)
		return
	}
	RespondOK(c, gin.H{"status": input.Status})
}

func (ah *AdminHandler) DeleteUser(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	if err := ah.userService.Delete(c.Request.Context(), userID); err != nil {
		RespondFromError(c, err)
		return
	}
	RespondOK(c, gin.H{"deleted": true})
}
