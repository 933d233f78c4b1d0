package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/omniflow/omniflow-backend/internal/ai"
	"github.com/omniflow/omniflow-backend/internal/requestdata"
	"github.com/omniflow/omniflow-backend/internal/services"
)

type NegotiationHandler struct {
	negotiationService services.NegotiationService
}

func NewNegotiationHandler(negotiationService services.NegotiationService) *NegotiationHandler {
	return &NegotiationHandler{negotiationService: negotiationService}
}

func (nh *NegotiationHandler) Negotiate(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	var input struct {
		Message string    `json:"message"`
		History []ai.Turn `json:"history"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	result, err := nh.negotiationService.Negotiate(c.Request.Context(), rd.UserID, productID, input.History, input.Message)
	if err != nil {
		RespondFromError(c, err)
		return
	}
	RespondOK(c, result)
}
