package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	// 参数校验在进入应用服务之前完成，service 不会被触达
	NewHandler(nil).RegisterRoutes(router.Group("/api/v1"))
	return router
}

func postOrder(router *gin.Engine, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestCreateOrderRejectsUnparseablePrice(t *testing.T) {
	router := newTestRouter()

	rec := postOrder(router, `{"account_id":1,"ticker":"005930","order_type":"BUY","quantity":10,"price":"abc"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "invalid price") {
		t.Fatalf("expected parse error in response, got %s", rec.Body.String())
	}
}

func TestCreateOrderRejectsMissingFields(t *testing.T) {
	router := newTestRouter()

	rec := postOrder(router, `{"account_id":1,"ticker":"005930"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
}
