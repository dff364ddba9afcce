// Package http 账户接口
package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stockr/trading/internal/account/application"
	"github.com/stockr/trading/internal/account/domain"
)

type Handler struct {
	service *application.AccountService
}

func NewHandler(service *application.AccountService) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	g := r.Group("/accounts")
	{
		g.POST("", h.CreateAccount)
		g.GET("/:id", h.GetAccount)
		g.POST("/:id/deposit", h.Deposit)
		g.POST("/:id/withdraw", h.Withdraw)
		g.GET("/:id/holdings", h.ListHoldings)
	}
}

type CreateAccountReq struct {
	UserID         uint   `json:"user_id" binding:"required"`
	AccountNumber  string `json:"account_number" binding:"required"`
	InitialBalance string `json:"initial_balance"`
}

func (h *Handler) CreateAccount(c *gin.Context) {
	var req CreateAccountReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	balance, _ := decimal.NewFromString(req.InitialBalance)
	account, err := h.service.CreateAccount(c.Request.Context(), req.UserID, req.AccountNumber, balance)
	if err != nil {
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"account": account})
}

func (h *Handler) GetAccount(c *gin.Context) {
	accountID, ok := paramAccountID(c)
	if !ok {
		return
	}

	account, err := h.service.GetAccount(c.Request.Context(), accountID)
	if err != nil {
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"account": account})
}

type AmountReq struct {
	Amount string `json:"amount" binding:"required"`
}

func (h *Handler) Deposit(c *gin.Context) {
	accountID, ok := paramAccountID(c)
	if !ok {
		return
	}
	var req AmountReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	amount, _ := decimal.NewFromString(req.Amount)
	account, err := h.service.Deposit(c.Request.Context(), accountID, amount)
	if err != nil {
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"account": account})
}

func (h *Handler) Withdraw(c *gin.Context) {
	accountID, ok := paramAccountID(c)
	if !ok {
		return
	}
	var req AmountReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	amount, _ := decimal.NewFromString(req.Amount)
	account, err := h.service.Withdraw(c.Request.Context(), accountID, amount)
	if err != nil {
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"account": account})
}

func (h *Handler) ListHoldings(c *gin.Context) {
	accountID, ok := paramAccountID(c)
	if !ok {
		return
	}

	holdings, err := h.service.ListHoldings(c.Request.Context(), accountID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"holdings": holdings})
}

func paramAccountID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid account id"})
		return 0, false
	}
	return uint(id), true
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidAmount):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrAccountNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInsufficientBalance):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
