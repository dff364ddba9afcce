// Package http 限价单交易接口
package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	accountdomain "github.com/stockr/trading/internal/account/domain"
	stockdomain "github.com/stockr/trading/internal/stock/domain"
	"github.com/stockr/trading/internal/trading/application"
	"github.com/stockr/trading/internal/trading/domain"
)

type Handler struct {
	service *application.OrderService
}

func NewHandler(service *application.OrderService) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	g := r.Group("/orders")
	{
		g.POST("", h.CreateOrder)
		g.GET("", h.ListPendingOrders)
		g.GET("/:id", h.GetOrder)
		g.DELETE("/:id", h.CancelOrder)
	}
	r.GET("/trades", h.ListTrades)
}

type CreateOrderReq struct {
	AccountID uint   `json:"account_id" binding:"required"`
	Ticker    string `json:"ticker" binding:"required"`
	OrderType string `json:"order_type" binding:"required"`
	Quantity  int64  `json:"quantity" binding:"required"`
	Price     string `json:"price" binding:"required"`
}

func (h *Handler) CreateOrder(c *gin.Context) {
	var req CreateOrderReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	price, err := decimal.NewFromString(req.Price)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid price: " + err.Error()})
		return
	}
	order, err := h.service.CreateOrder(
		c.Request.Context(),
		req.AccountID,
		req.Ticker,
		domain.OrderType(req.OrderType),
		req.Quantity,
		price,
	)
	if err != nil {
		if order != nil {
			// 订单已落库但立即执行失败（已转为 CANCELLED）
			c.JSON(statusForError(err), gin.H{"error": err.Error(), "order": order})
			return
		}
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"order": order})
}

func (h *Handler) GetOrder(c *gin.Context) {
	accountID, ok := queryAccountID(c)
	if !ok {
		return
	}
	orderID, ok := paramOrderID(c)
	if !ok {
		return
	}

	order, err := h.service.GetOrder(c.Request.Context(), accountID, orderID)
	if err != nil {
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order})
}

func (h *Handler) CancelOrder(c *gin.Context) {
	accountID, ok := queryAccountID(c)
	if !ok {
		return
	}
	orderID, ok := paramOrderID(c)
	if !ok {
		return
	}

	if err := h.service.CancelOrder(c.Request.Context(), accountID, orderID); err != nil {
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusOK)
}

func (h *Handler) ListPendingOrders(c *gin.Context) {
	accountID, ok := queryAccountID(c)
	if !ok {
		return
	}

	orders, err := h.service.ListPendingOrders(c.Request.Context(), accountID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

func (h *Handler) ListTrades(c *gin.Context) {
	accountID, ok := queryAccountID(c)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	trades, err := h.service.ListTrades(c.Request.Context(), accountID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"trades": trades})
}

func queryAccountID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Query("account_id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "account_id is required"})
		return 0, false
	}
	return uint(id), true
}

func paramOrderID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return 0, false
	}
	return uint(id), true
}

// statusForError 将领域错误映射为 HTTP 状态码
func statusForError(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidQuantity),
		errors.Is(err, domain.ErrInvalidPrice),
		errors.Is(err, domain.ErrInvalidOrderType):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotOrderOwner):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrOrderNotFound),
		errors.Is(err, stockdomain.ErrStockNotFound),
		errors.Is(err, accountdomain.ErrAccountNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidOrderState):
		return http.StatusConflict
	case errors.Is(err, domain.ErrPriceUnavailable),
		errors.Is(err, accountdomain.ErrInsufficientBalance),
		errors.Is(err, stockdomain.ErrInsufficientHolding):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
