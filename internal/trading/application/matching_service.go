package application

import (
	"context"

	"github.com/shopspring/decimal"
	stockdomain "github.com/stockr/trading/internal/stock/domain"
	"github.com/stockr/trading/internal/trading/domain"
	"github.com/stockr/trading/pkg/logger"
	"github.com/stockr/trading/pkg/metrics"
)

// OrderExecutor 单笔订单的执行入口，由成交结算服务实现
type OrderExecutor interface {
	Execute(ctx context.Context, orderID uint, tickPrice decimal.Decimal) error
}

// MatchingService 撮合服务。
// 每个 tick 扫描该股票的全部 PENDING 订单，触价订单交给执行侧结算。
type MatchingService struct {
	stocks  stockdomain.StockRepository
	orders  domain.LimitOrderRepository
	ledger  OrderExecutor
	metrics *metrics.Metrics
}

// NewMatchingService 创建撮合服务
func NewMatchingService(
	stocks stockdomain.StockRepository,
	orders domain.LimitOrderRepository,
	ledger OrderExecutor,
	m *metrics.Metrics,
) *MatchingService {
	return &MatchingService{
		stocks:  stocks,
		orders:  orders,
		ledger:  ledger,
		metrics: m,
	}
}

// OnTick 处理一个行情 tick。
// 行情覆盖的股票不一定都在本地登记，未知代码直接忽略；
// 单笔订单执行失败只记录日志，不影响同一 tick 下的其他订单。
func (s *MatchingService) OnTick(ctx context.Context, stockCode string, price decimal.Decimal) {
	s.metrics.TicksTotal.Inc()

	stock, err := s.stocks.GetByTicker(ctx, stockCode)
	if err != nil {
		logger.Error(ctx, "Failed to resolve stock for tick", "stock_code", stockCode, "error", err)
		return
	}
	if stock == nil {
		return
	}

	orders, err := s.orders.ListByStockAndStatus(ctx, stock.ID, domain.OrderStatusPending)
	if err != nil {
		logger.Error(ctx, "Failed to list pending orders", "stock_code", stockCode, "error", err)
		return
	}

	for _, order := range orders {
		if !order.Crosses(price) {
			continue
		}
		if err := s.ledger.Execute(ctx, order.ID, price); err != nil {
			logger.Warn(ctx, "Order execution failed",
				"order_id", order.ID, "stock_code", stockCode, "tick_price", price, "error", err)
		}
	}
}
