package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/omniflow/omniflow-backend/internal/requestdata"
	"github.com/omniflow/omniflow-backend/internal/services"
	"github.com/omniflow/omniflow-backend/internal/types"
)

type OrderHandler struct {
	orderService services.OrderService
}

func NewOrderHandler(orderService services.OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

func (oh *OrderHandler) Place(c *gin.Context) {
	var input struct {
		Items []services.OrderItemInput `json:"items"`
		// Payment slip is optional; without it the order stays unverified.
		SlipImageB64 string `json:"slip_image_b64"`
		SlipMIMEType string `json:"slip_mime_type"`
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
	result, err := oh.orderService.PlaceOrder(c.Request.Context(), services.PlaceOrderInput{
		UserID:       rd.UserID,
		Items:        input.Items,
		SlipImageB64: input.SlipImageB64,
		SlipMIMEType: input.SlipMIMEType,
	})
	if err != nil {
		RespondFromError(c, err)
		return
	}
	RespondCreated(c, result)
}

func (oh *OrderHandler) Get(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	order, err := oh.orderService.GetOrder(c.Request.Context(), orderID)
	if err != nil {
		RespondFromError(c, err)
		return
	}
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || (order.UserID != rd.UserID && rd.Role != types.UserRoleAdmin) {
		RespondError(c, http.StatusForbidden, "forbidden", nil)
		return
	}
	RespondOK(c, gin.H{"order": order})
}

func (oh *OrderHandler) ListMine(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	orders, err := oh.orderService.ListForUser(c.Request.Context(), rd.UserID, limit)
	if err != nil {
		RespondFromError(c, err)
		return
	}
	RespondOK(c, gin.H{"orders": orders})
}

func (oh *OrderHandler) ListRecent(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	orders, err := oh.orderService.ListRecent(c.Request.Context(), limit)
	if err != nil {
		RespondFromError(c, err)
		return
	}
	RespondOK(c, gin.H{"orders": orders})
}

func (oh *OrderHandler) UpdateStatus(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
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
	if err := oh.orderService.UpdateStatus(c.Request.Context(), orderID, input.Status); err != nil {
		RespondFromError(c, err)
		return
	}
	RespondOK(c, gin.H{"status": input.Status})
}
