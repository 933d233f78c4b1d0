package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/omniflow/omniflow-backend/internal/requestdata"
	"github.com/omniflow/omniflow-backend/internal/services"
)

type ReviewHandler struct {
	reviewService services.ReviewService
}

func NewReviewHandler(reviewService services.ReviewService) *ReviewHandler {
	return &ReviewHandler{reviewService: reviewService}
}

func (rh *ReviewHandler) Submit(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	var input struct {
		Rating  int    `json:"rating"`
		Comment string `json:"comment"`
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
	result, err := rh.reviewService.Submit(c.Request.Context(), services.SubmitReviewInput{
		UserID:    rd.UserID,
		ProductID: productID,
		Rating:    input.Rating,
		Comment:   input.Comment,
	})
	if err != nil {
		RespondFromError(c, err)
		return
	}
	if result.Rejected {
		RespondError(c, http.StatusUnprocessableEntity, "rejected", errMessage(result.Message))
		return
	}
	RespondCreated(c, result)
}

func (rh *ReviewHandler) ListByProduct(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	reviews, err := rh.reviewService.ListByProduct(c.Request.Context(), productID)
	if err != nil {
		RespondFromError(c, err)
		return
	}
	RespondOK(c, gin.H{"reviews": reviews})
}
