package handlers

import (
	"encoding/base64"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/omniflow/omniflow-backend/internal/ai"
	"github.com/omniflow/omniflow-backend/internal/requestdata"
	"github.com/omniflow/omniflow-backend/internal/services"
)

type SearchHandler struct {
	searchService services.SearchService
}

func NewSearchHandler(searchService services.SearchService) *SearchHandler {
	return &SearchHandler{searchService: searchService}
}

func (sh *SearchHandler) Search(c *gin.Context) {
	var input struct {
		Query string `json:"query"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	var userID *uuid.UUID
	if rd := requestdata.GetRequestData(c.Request.Context()); rd != nil {
		userID = &rd.UserID
	}
	result, err := sh.searchService.SmartSearch(c.Request.Context(), userID, input.Query)
	if err != nil {
		RespondFromError(c, err)
		return
	}
	RespondOK(c, result)
}

func (sh *SearchHandler) VisualSearch(c *gin.Context) {
	var input struct {
		ImageB64 string `json:"image_b64"`
		MIMEType string `json:"mime_type"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	raw, err := base64.StdEncoding.DecodeString(input.ImageB64)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	result, err := sh.searchService.VisualSearch(c.Request.Context(), ai.ImagePart{
		MIMEType: input.MIMEType,
		Data:     raw,
	})
	if err != nil {
		RespondFromError(c, err)
		return
	}
	RespondOK(c, result)
}
