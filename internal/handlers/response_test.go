package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/pagevault/pagevault-backend/internal/platform/apierr"
)

func respondTo(t *testing.T, err error) (int, ErrorEnvelope) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/projects/demo/navigation/reorder", nil)

	RespondAPIError(c, testLogger(), err)

	var envelope ErrorEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	return rec.Code, envelope
}

func TestRespondAPIErrorKeepsTaxonomyMessages(t *testing.T) {
	status, envelope := respondTo(t, apierr.NotFound(fmt.Errorf("project %q not found", "demo")))
	if status != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", status)
	}
	if envelope.Error.Code != apierr.CodeNotFound {
		t.Errorf("code = %q, want %q", envelope.Error.Code, apierr.CodeNotFound)
	}
	if !strings.Contains(envelope.Error.Message, "not found") {
		t.Errorf("message = %q, want the taxonomy message", envelope.Error.Message)
	}
}

func TestRespondAPIErrorHidesInternalDetail(t *testing.T) {
	status, envelope := respondTo(t, fmt.Errorf("replace navigation: pq: connection reset"))
	if status != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", status)
	}
	if envelope.Error.Code != apierr.CodeInternal {
		t.Errorf("code = %q, want %q", envelope.Error.Code, apierr.CodeInternal)
	}
	if envelope.Error.Message != "internal server error" {
		t.Errorf("message = %q, want the generic message", envelope.Error.Message)
	}
	if strings.Contains(envelope.Error.Message, "connection reset") {
		t.Error("driver detail leaked into the envelope")
	}
}
