package handlers

import (
	"encoding/base64"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/omniflow/omniflow-backend/internal/ai"
	"github.com/omniflow/omniflow-backend/internal/requestdata"
	"github.com/omniflow/omniflow-backend/internal/services"
)

type ProductHandler struct {
	catalogService services.CatalogService
}

func NewProductHandler(catalogService services.CatalogService) *ProductHandler {
	return &ProductHandler{catalogService: catalogService}
}

func (ph *ProductHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	products, err := ph.catalogService.ListProducts(c.Request.Context(), limit)
	if err != nil {
		RespondFromError(c, err)
		return
	}
	RespondOK(c, gin.H{"products": products})
}

func (ph *ProductHandler) Get(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	product, err := ph.catalogService.GetProduct(c.Request.Context(), productID)
	if err != nil {
		RespondFromError(c, err)
		return
	}
	RespondOK(c, gin.H{"product": product})
}

func (ph *ProductHandler) Create(c *gin.Context) {
	var input services.CreateProductInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	if rd := requestdata.GetRequestData(c.Request.Context()); rd != nil {
		input.SellerID = &rd.UserID
	}
	product, err := ph.catalogService.CreateProduct(c.Request.Context(), input)
	if err != nil {
		RespondFromError(c, err)
		return
	}
	RespondCreated(c, gin.H{"product": product})
}

func (ph *ProductHandler) Update(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	var fields map[string]any
	if err := c.ShouldBindJSON(&fields); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	product, err := ph.catalogService.UpdateProduct(c.Request.Context(), productID, fields)
	if err != nil {
		RespondFromError(c, err)
		return
	}
	RespondOK(c, gin.H{"product": product})
}

func (ph *ProductHandler) Delete(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	if err := ph.catalogService.DeleteProduct(c.Request.Context(), productID); err != nil {
		RespondFromError(c, err)
		return
	}
	RespondOK(c, gin.H{"deleted": true})
}

func (ph *ProductHandler) SetPinned(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	var input struct {
		Pinned bool `json:"pinned"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	if err := ph.catalogService.SetPinned(c.Request.Context(), productID, input.Pinned); err != nil {
		RespondFromError(c, err)
		return
	}
	RespondOK(c, gin.H{"pinned": input.Pinned})
}

func (ph *ProductHandler) SetFlashSale(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	var input struct {
		Active     bool     `json:"active"`
		FlashPrice *float64 `json:"flash_price"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	if err := ph.catalogService.SetFlashSale(c.Request.Context(), productID, input.Active, input.FlashPrice); err != nil {
		RespondFromError(c, err)
		return
	}
	RespondOK(c, gin.H{"flash_sale": input.Active})
}

func (ph *ProductHandler) GenerateListing(c *gin.Context) {
	var input struct {
		Notes string `json:"notes"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	draft, err := ph.catalogService.GenerateListing(c.Request.Context(), input.Notes)
	if err != nil {
		RespondFromError(c, err)
		return
	}
	RespondOK(c, gin.H{"draft": draft})
}

func (ph *ProductHandler) MagicUpload(c *gin.Context) {
	var input struct {
		ImageB64 string  `json:"image_b64"`
		MIMEType string  `json:"mime_type"`
		Price    float64 `json:"price"`
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
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	product, err := ph.catalogService.MagicUpload(c.Request.Context(), rd.UserID, ai.ImagePart{
		MIMEType: input.MIMEType,
		Data:     raw,
	}, input.Price)
	if err != nil {
		RespondFromError(c, err)
		return
	}
	RespondCreated(c, gin.H{"product": product})
}
