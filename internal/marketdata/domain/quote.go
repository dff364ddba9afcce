// Package domain 市场数据的领域模型：行情、盘口与其下游接口
package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Quote 单个股票的一次实时行情（ephemeral，不落库）
type Quote struct {
	// 股票代码
	StockCode string `json:"stock_code"`
	// 交易所侧的行情时间（HHMMSS）
	TickTime string `json:"tick_time"`
	// 当前价
	Price decimal.Decimal `json:"price"`
	// 涨跌符号
	Sign string `json:"sign"`
	// 涨跌额
	Change decimal.Decimal `json:"change"`
	// 涨跌率
	ChangeRate decimal.Decimal `json:"change_rate"`
	// 累计量（来自盘口总买量）
	Volume int64 `json:"volume"`
	// 本地接收时间
	Timestamp time.Time `json:"timestamp"`
}

// OrderBookLevel 盘口单档（值对象）
type OrderBookLevel struct {
	Price    decimal.Decimal `json:"price"`
	Quantity int64           `json:"quantity"`
}

// OrderBook 十档盘口快照
type OrderBook struct {
	// 股票代码
	StockCode string `json:"stock_code"`
	// 十档卖出报价，价格递增
	Asks []OrderBookLevel `json:"asks"`
	// 十档买入报价，价格递减
	Bids []OrderBookLevel `json:"bids"`
	// 总卖量
	TotalAskVolume int64 `json:"total_ask_volume"`
	// 总买量
	TotalBidVolume int64 `json:"total_bid_volume"`
	// 本地接收时间
	Timestamp time.Time `json:"timestamp"`
}

// QuotePublisher 对外推送通道（展示侧订阅者）
type QuotePublisher interface {
	PublishQuote(ctx context.Context, quote *Quote) error
	PublishOrderBook(ctx context.Context, book *OrderBook) error
}

// QuoteCache 最新行情缓存与订阅股票集合
type QuoteCache interface {
	// 缓存某股票的最新行情
	SetLatest(ctx context.Context, quote *Quote) error
	// 获取某股票的最新行情；无缓存时返回 (nil, nil)
	GetLatest(ctx context.Context, stockCode string) (*Quote, error)
	// 记录订阅中的股票代码
	AddTargetStock(ctx context.Context, stockCode string) error
	// 移除订阅中的股票代码
	RemoveTargetStock(ctx context.Context, stockCode string) error
	// 获取全部订阅中的股票代码
	TargetStocks(ctx context.Context) ([]string, error)
}
