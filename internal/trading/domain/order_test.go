package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestBuyOrderCrosses(t *testing.T) {
	order := NewLimitOrder(1, 2, OrderTypeBuy, 10, decimal.NewFromInt(100))

	cases := []struct {
		tick string
		want bool
	}{
		{"99.99", true},
		{"100", true},
		{"100.01", false},
	}
	for _, c := range cases {
		if got := order.Crosses(decimal.RequireFromString(c.tick)); got != c.want {
			t.Errorf("buy limit 100, tick %s: expected %v, got %v", c.tick, c.want, got)
		}
	}
}

func TestSellOrderCrosses(t *testing.T) {
	order := NewLimitOrder(1, 2, OrderTypeSell, 10, decimal.NewFromInt(100))

	cases := []struct {
		tick string
		want bool
	}{
		{"99.99", false},
		{"100", true},
		{"100.01", true},
	}
	for _, c := range cases {
		if got := order.Crosses(decimal.RequireFromString(c.tick)); got != c.want {
			t.Errorf("sell limit 100, tick %s: expected %v, got %v", c.tick, c.want, got)
		}
	}
}

func TestOrderLifecycle(t *testing.T) {
	order := NewLimitOrder(1, 2, OrderTypeBuy, 10, decimal.NewFromInt(100))

	if order.Status != OrderStatusPending {
		t.Fatalf("new order must be PENDING, got %s", order.Status)
	}
	if !order.IsExecutable() {
		t.Fatal("PENDING order must be executable")
	}
	if !order.CanBeCancelled() {
		t.Fatal("PENDING order must be cancellable")
	}

	at := time.Now()
	order.MarkExecuted(at)
	if order.Status != OrderStatusExecuted {
		t.Fatalf("expected EXECUTED, got %s", order.Status)
	}
	if order.ExecutedAt == nil || !order.ExecutedAt.Equal(at) {
		t.Fatalf("expected executed_at %v, got %v", at, order.ExecutedAt)
	}
	if order.IsExecutable() {
		t.Fatal("EXECUTED order must not be executable")
	}
	if order.CanBeCancelled() {
		t.Fatal("EXECUTED order must not be cancellable")
	}
}

func TestCancelledOrderIsTerminal(t *testing.T) {
	order := NewLimitOrder(1, 2, OrderTypeSell, 10, decimal.NewFromInt(100))
	order.MarkCancelled()

	if order.Status != OrderStatusCancelled {
		t.Fatalf("expected CANCELLED, got %s", order.Status)
	}
	if order.IsExecutable() {
		t.Fatal("CANCELLED order must not be executable")
	}
	if order.CanBeCancelled() {
		t.Fatal("CANCELLED order must not be cancellable again")
	}
}
