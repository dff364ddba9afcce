package application

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/stockr/trading/internal/marketdata/domain"
)

// QuoteQueryService 最新价与盘口的查询服务，订单准入以它为参考价来源
type QuoteQueryService struct {
	cache domain.QuoteCache
}

// NewQuoteQueryService 创建行情查询服务
func NewQuoteQueryService(cache domain.QuoteCache) *QuoteQueryService {
	return &QuoteQueryService{cache: cache}
}

// LatestPrice 返回某股票的最新价；无行情缓存时第二个返回值为 false
func (s *QuoteQueryService) LatestPrice(ctx context.Context, stockCode string) (decimal.Decimal, bool, error) {
	quote, err := s.cache.GetLatest(ctx, stockCode)
	if err != nil {
		return decimal.Zero, false, err
	}
	if quote == nil {
		return decimal.Zero, false, nil
	}
	return quote.Price, true, nil
}

// LatestQuote 返回某股票的最新行情；无缓存时返回 (nil, nil)
func (s *QuoteQueryService) LatestQuote(ctx context.Context, stockCode string) (*domain.Quote, error) {
	return s.cache.GetLatest(ctx, stockCode)
}
