// Package http 行情订阅接口
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stockr/trading/internal/marketdata/application"
)

type Handler struct {
	subscriptions *application.SubscriptionService
	quotes        *application.QuoteQueryService
}

func NewHandler(subscriptions *application.SubscriptionService, quotes *application.QuoteQueryService) *Handler {
	return &Handler{subscriptions: subscriptions, quotes: quotes}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	g := r.Group("/marketdata")
	{
		g.POST("/subscriptions", h.Subscribe)
		g.DELETE("/subscriptions/:code", h.Unsubscribe)
		g.GET("/subscriptions", h.ListSubscriptions)
		g.GET("/quotes/:code", h.GetLatestQuote)
	}
}

type SubscribeReq struct {
	StockCode string `json:"stock_code" binding:"required"`
}

func (h *Handler) Subscribe(c *gin.Context) {
	var req SubscribeReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.subscriptions.Subscribe(c.Request.Context(), req.StockCode); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"stock_code": req.StockCode})
}

func (h *Handler) Unsubscribe(c *gin.Context) {
	code := c.Param("code")
	if err := h.subscriptions.Unsubscribe(c.Request.Context(), code); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusOK)
}

func (h *Handler) ListSubscriptions(c *gin.Context) {
	codes, err := h.subscriptions.TargetStocks(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"stock_codes": codes})
}

func (h *Handler) GetLatestQuote(c *gin.Context) {
	code := c.Param("code")
	quote, err := h.quotes.LatestQuote(c.Request.Context(), code)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if quote == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no quote available for " + code})
		return
	}
	c.JSON(http.StatusOK, gin.H{"quote": quote})
}
