package application

import (
	"context"

	"github.com/stockr/trading/internal/marketdata/domain"
	"github.com/stockr/trading/pkg/logger"
)

// FeedClient 行情网关的订阅操作
type FeedClient interface {
	Subscribe(stockCode string) error
	Unsubscribe(stockCode string) error
}

// SubscriptionService 管理订阅中的股票集合。
// 集合落在缓存里，进程重启后据此恢复网关侧订阅。
type SubscriptionService struct {
	feed  FeedClient
	cache domain.QuoteCache
}

// NewSubscriptionService 创建订阅管理服务
func NewSubscriptionService(feed FeedClient, cache domain.QuoteCache) *SubscriptionService {
	return &SubscriptionService{feed: feed, cache: cache}
}

// Subscribe 订阅某股票的实时行情并记录到集合
func (s *SubscriptionService) Subscribe(ctx context.Context, stockCode string) error {
	if err := s.feed.Subscribe(stockCode); err != nil {
		return err
	}
	return s.cache.AddTargetStock(ctx, stockCode)
}

// Unsubscribe 退订某股票并从集合移除
func (s *SubscriptionService) Unsubscribe(ctx context.Context, stockCode string) error {
	if err := s.feed.Unsubscribe(stockCode); err != nil {
		return err
	}
	return s.cache.RemoveTargetStock(ctx, stockCode)
}

// TargetStocks 获取全部订阅中的股票代码
func (s *SubscriptionService) TargetStocks(ctx context.Context) ([]string, error) {
	return s.cache.TargetStocks(ctx)
}

// RestoreSubscriptions 进程启动后按集合恢复网关侧订阅。
// 单个代码失败只记录日志，继续恢复其余代码。
func (s *SubscriptionService) RestoreSubscriptions(ctx context.Context) error {
	codes, err := s.cache.TargetStocks(ctx)
	if err != nil {
		return err
	}
	for _, code := range codes {
		if err := s.feed.Subscribe(code); err != nil {
			logger.Error(ctx, "Failed to restore subscription", "stock_code", code, "error", err)
		}
	}
	logger.Info(ctx, "Subscriptions restored", "count", len(codes))
	return nil
}
