package domain

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestApplyBuyFirstPurchase(t *testing.T) {
	h := NewStockHolding(1, 2)

	h.ApplyBuy(10, decimal.NewFromInt(1005))

	if h.Quantity != 10 {
		t.Fatalf("expected quantity 10, got %d", h.Quantity)
	}
	if want := decimal.RequireFromString("100.50"); !h.AveragePurchasePrice.Equal(want) {
		t.Fatalf("expected average price %s, got %s", want, h.AveragePurchasePrice)
	}
}

func TestApplyBuyBlendsAveragePrice(t *testing.T) {
	h := &StockHolding{
		AccountID:            1,
		StockID:              2,
		Quantity:             10,
		AveragePurchasePrice: decimal.NewFromInt(100),
	}

	// (10*100 + 500.10) / 20 = 75.005 -> 75.01
	h.ApplyBuy(10, decimal.RequireFromString("500.10"))

	if h.Quantity != 20 {
		t.Fatalf("expected quantity 20, got %d", h.Quantity)
	}
	if want := decimal.RequireFromString("75.01"); !h.AveragePurchasePrice.Equal(want) {
		t.Fatalf("expected average price %s, got %s", want, h.AveragePurchasePrice)
	}
}

func TestApplyBuyRoundsHalfUp(t *testing.T) {
	h := NewStockHolding(1, 2)

	// 0.25 / 2 = 0.125 -> 0.13
	h.ApplyBuy(2, decimal.RequireFromString("0.25"))

	if want := decimal.RequireFromString("0.13"); !h.AveragePurchasePrice.Equal(want) {
		t.Fatalf("expected average price %s, got %s", want, h.AveragePurchasePrice)
	}
}

func TestApplySellKeepsAveragePrice(t *testing.T) {
	h := &StockHolding{
		Quantity:             10,
		AveragePurchasePrice: decimal.NewFromInt(50),
	}

	if err := h.ApplySell(4); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h.Quantity != 6 {
		t.Fatalf("expected quantity 6, got %d", h.Quantity)
	}
	if want := decimal.NewFromInt(50); !h.AveragePurchasePrice.Equal(want) {
		t.Fatalf("average price must not change on sell, got %s", h.AveragePurchasePrice)
	}
}

func TestApplySellInsufficientHolding(t *testing.T) {
	h := &StockHolding{Quantity: 3, AveragePurchasePrice: decimal.NewFromInt(50)}

	err := h.ApplySell(5)
	if !errors.Is(err, ErrInsufficientHolding) {
		t.Fatalf("expected ErrInsufficientHolding, got %v", err)
	}
	if h.Quantity != 3 {
		t.Fatalf("failed sell must not modify quantity, got %d", h.Quantity)
	}
}
