package agent

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func newTestServer() (*gin.Engine, *fakeSaver) {
	gin.SetMode(gin.TestMode)
	r, _, saver, _ := newTestRouter()
	e := gin.New()
	e.POST("/agent/actions", InvokeHandler(r))
	return e, saver
}

func TestInvokeHandler_RoutedAction(t *testing.T) {
	e, _ := newTestServer()

	body := `{"apiPath": "/check-spam/555", "httpMethod": "GET", "parameters": [{"name": "phoneNumber", "value": "555"}]}`
	req := httptest.NewRequest(http.MethodPost, "/agent/actions", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp Response
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Response.HTTPStatusCode != http.StatusOK {
		t.Fatalf("inner status must be 200")
	}
}

func TestInvokeHandler_UnknownActionStill200(t *testing.T) {
	e, _ := newTestServer()

	body := `{"apiPath": "/bogus", "httpMethod": "PATCH"}`
	req := httptest.NewRequest(http.MethodPost, "/agent/actions", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for unknown action, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Unknown action") {
		t.Fatalf("expected error reported as data: %s", w.Body.String())
	}
}

func TestInvokeHandler_BadJSONIs400(t *testing.T) {
	e, _ := newTestServer()

	req := httptest.NewRequest(http.MethodPost, "/agent/actions", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestInvokeHandler_PropagatedFailureIs500(t *testing.T) {
	e, saver := newTestServer()
	saver.err = errors.New("callrecords: missing required field: caller_name")

	body := `{"apiPath": "/call-record", "httpMethod": "POST"}`
	req := httptest.NewRequest(http.MethodPost, "/agent/actions", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 for infrastructure failure, got %d", w.Code)
	}
}
