package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/omniflow/omniflow-backend/internal/services"
)

type PricingHandler struct {
	pricingService services.PricingService
}

func NewPricingHandler(pricingService services.PricingService) *PricingHandler {
	return &PricingHandler{pricingService: pricingService}
}

func (ph *PricingHandler) SpyCompetitor(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	intel, err := ph.pricingService.SpyCompetitor(c.Request.Context(), productID)
	if err != nil {
		RespondFromError(c, err)
		return
	}
	RespondOK(c, gin.H{"intel": intel})
}

func (ph *PricingHandler) Reprice(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	outcome, err := ph.pricingService.Reprice(c.Request.Context(), productID)
	if err != nil {
		RespondFromError(c, err)
		return
	}
	RespondOK(c, outcome)
}

func (ph *PricingHandler) RunAutoRepricing(c *gin.Context) {
	outcomes, err := ph.pricingService.RunAutoRepricing(c.Request.Context())
	if err != nil {
		RespondFromError(c, err)
		return
	}
	RespondOK(c, gin.H{"outcomes": outcomes})
}
