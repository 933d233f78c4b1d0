package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/omniflow/omniflow-backend/internal/ai"
)

func respondAndDecode(t *testing.T, respond func(c *gin.Context)) (int, Envelope) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	respond(c)

	var env Envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	return rec.Code, env
}

func TestRespondOK_WrapsDataInSuccessEnvelope(t *testing.T) {
	status, env := respondAndDecode(t, func(c *gin.Context) {
		RespondOK(c, map[string]any{"total": 3})
	})
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if !env.Success {
		t.Fatalf("expected success envelope")
	}
	if env.Error != nil {
		t.Fatalf("expected no error, got %+v", env.Error)
	}
	data, ok := env.Data.(map[string]any)
	if !ok || data["total"] != float64(3) {
		t.Fatalf("unexpected data payload %#v", env.Data)
	}
}

func TestRespondFromError_NotFoundMapsTo404(t *testing.T) {
	status, env := respondAndDecode(t, func(c *gin.Context) {
		RespondFromError(c, fmt.Errorf("load product: %w", gorm.ErrRecordNotFound))
	})
	if status != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", status)
	}
	if env.Success {
		t.Fatalf("expected failure envelope")
	}
	if env.Error == nil || env.Error.Code != "not_found" {
		t.Fatalf("expected not_found code, got %+v", env.Error)
	}
}

func TestRespondFromError_ModelFailureMapsTo503(t *testing.T) {
	status, env := respondAndDecode(t, func(c *gin.Context) {
		RespondFromError(c, fmt.Errorf("analyze slip: %w", ai.ErrModelTimeout))
	})
	if status != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", status)
	}
	if env.Error == nil || env.Error.Code != "model_unavailable" {
		t.Fatalf("expected model_unavailable code, got %+v", env.Error)
	}
}

func TestRespondFromError_DefaultsTo400(t *testing.T) {
	status, env := respondAndDecode(t, func(c *gin.Context) {
		RespondFromError(c, errors.New("quantity must be positive"))
	})
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", status)
	}
	if env.Error == nil || env.Error.Code != "bad_request" {
		t.Fatalf("expected bad_request code, got %+v", env.Error)
	}
	if env.Error.Message != "quantity must be positive" {
		t.Fatalf("expected original message, got %q", env.Error.Message)
	}
}
