// Package persistence 行情缓存的 Redis 实现
package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/stockr/trading/internal/marketdata/domain"
	"github.com/stockr/trading/pkg/cache"
)

const (
	// 最新行情 key 前缀
	latestQuoteKeyPrefix = "stock:price:"
	// 订阅中的股票代码集合
	targetStocksKey = "target_stocks"
	// 最新行情过期时间；行情中断后陈旧价不再作为准入参考价
	latestQuoteTTL = 5 * time.Minute
)

// RedisQuoteCache 行情缓存实现
type RedisQuoteCache struct {
	cache *cache.RedisCache
}

// NewRedisQuoteCache 创建行情缓存
func NewRedisQuoteCache(c *cache.RedisCache) domain.QuoteCache {
	return &RedisQuoteCache{cache: c}
}

// SetLatest 缓存某股票的最新行情
func (r *RedisQuoteCache) SetLatest(ctx context.Context, quote *domain.Quote) error {
	key := latestQuoteKeyPrefix + quote.StockCode
	if err := r.cache.SetJSON(ctx, key, quote, latestQuoteTTL); err != nil {
		return fmt.Errorf("failed to cache latest quote: %w", err)
	}
	return nil
}

// GetLatest 获取某股票的最新行情；无缓存时返回 (nil, nil)
func (r *RedisQuoteCache) GetLatest(ctx context.Context, stockCode string) (*domain.Quote, error) {
	var quote domain.Quote
	found, err := r.cache.GetJSON(ctx, latestQuoteKeyPrefix+stockCode, &quote)
	if err != nil {
		return nil, fmt.Errorf("failed to get latest quote: %w", err)
	}
	if !found {
		return nil, nil
	}
	return &quote, nil
}

// AddTargetStock 记录订阅中的股票代码
func (r *RedisQuoteCache) AddTargetStock(ctx context.Context, stockCode string) error {
	return r.cache.SAdd(ctx, targetStocksKey, stockCode)
}

// RemoveTargetStock 移除订阅中的股票代码
func (r *RedisQuoteCache) RemoveTargetStock(ctx context.Context, stockCode string) error {
	return r.cache.SRem(ctx, targetStocksKey, stockCode)
}

// TargetStocks 获取全部订阅中的股票代码
func (r *RedisQuoteCache) TargetStocks(ctx context.Context) ([]string, error) {
	return r.cache.SMembers(ctx, targetStocksKey)
}
