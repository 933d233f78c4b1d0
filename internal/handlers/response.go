package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/omniflow/omniflow-backend/internal/services"
)

// Every endpoint answers with this envelope, success or not. Clients branch
// on the success flag, never on HTTP status alone.
type Envelope struct {
	Success bool      `json:"success"`
	Data    any       `json:"data,omitempty"`
	Error   *APIError `json:"error,omitempty"`
}

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, Envelope{Success: true, Data: payload})
}

func RespondCreated(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, Envelope{Success: true, Data: payload})
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, Envelope{
		Success: false,
		Error:   &APIError{Message: msg, Code: code},
	})
}

func errMessage(msg string) error {
	return errors.New(msg)
}

// RespondFromError maps common error families onto statuses so handlers do
// not repeat the switch.
func RespondFromError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		RespondError(c, http.StatusNotFound, "not_found", err)
	case services.IsModelFailure(err):
		RespondError(c, http.StatusServiceUnavailable, "model_unavailable", err)
	default:
		RespondError(c, http.StatusBadRequest, "bad_request", err)
	}
}
