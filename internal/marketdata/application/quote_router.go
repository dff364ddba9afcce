// Package application 市场数据的应用服务：行情分发、最新价查询与订阅管理
package application

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/stockr/trading/internal/marketdata/domain"
	"github.com/stockr/trading/pkg/logger"
	"github.com/stockr/trading/pkg/metrics"
)

// TickHandler 行情 tick 的撮合侧入口
type TickHandler interface {
	OnTick(ctx context.Context, stockCode string, price decimal.Decimal)
}

// QuoteRouter 将解码后的行情按序分发到三个下游：
// 最新价缓存、展示侧推送、撮合引擎。
// 缓存与推送失败只记录日志，不阻断撮合。
type QuoteRouter struct {
	cache     domain.QuoteCache
	publisher domain.QuotePublisher
	engine    TickHandler
	metrics   *metrics.Metrics
}

// NewQuoteRouter 创建行情分发器
func NewQuoteRouter(cache domain.QuoteCache, publisher domain.QuotePublisher, engine TickHandler, m *metrics.Metrics) *QuoteRouter {
	return &QuoteRouter{
		cache:     cache,
		publisher: publisher,
		engine:    engine,
		metrics:   m,
	}
}

// Route 处理一帧解码后的行情。
// 同一连接的帧由读循环同步逐帧调用，保证单股票的 tick 顺序。
func (r *QuoteRouter) Route(ctx context.Context, quote *domain.Quote, book *domain.OrderBook) {
	if quote == nil {
		return
	}

	if err := r.cache.SetLatest(ctx, quote); err != nil {
		logger.Error(ctx, "Failed to cache latest quote", "stock_code", quote.StockCode, "error", err)
	}

	if err := r.publisher.PublishQuote(ctx, quote); err != nil {
		logger.Error(ctx, "Failed to publish quote", "stock_code", quote.StockCode, "error", err)
	}
	if book != nil {
		if err := r.publisher.PublishOrderBook(ctx, book); err != nil {
			logger.Error(ctx, "Failed to publish order book", "stock_code", book.StockCode, "error", err)
		}
	}

	r.engine.OnTick(ctx, quote.StockCode, quote.Price)
}
