package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// TradeLog 成交记录实体，append-only，创建后不再修改
type TradeLog struct {
	gorm.Model
	// 成交的订单 ID
	OrderID uint `gorm:"column:order_id;index;not null" json:"order_id"`
	// 账户 ID
	AccountID uint `gorm:"column:account_id;index;not null" json:"account_id"`
	// 股票 ID
	StockID uint `gorm:"column:stock_id;index;not null" json:"stock_id"`
	// 买卖方向
	OrderType OrderType `gorm:"column:order_type;type:varchar(10);not null" json:"order_type"`
	// 成交数量
	ExecutedQuantity int64 `gorm:"column:executed_quantity;not null" json:"executed_quantity"`
	// 成交价（观察到的 tick 价，而非指定价）
	ExecutedPrice decimal.Decimal `gorm:"column:executed_price;type:decimal(20,2);not null" json:"executed_price"`
	// 成交时间
	ExecutedAt time.Time `gorm:"column:executed_at;not null" json:"executed_at"`
}

// TableName 指定表名
func (TradeLog) TableName() string {
	return "trade_logs"
}

// TradeLogRepository 成交记录仓储接口
type TradeLogRepository interface {
	// 追加成交记录
	Save(ctx context.Context, tradeLog *TradeLog) error
	// 获取账户最近的成交记录
	ListByAccount(ctx context.Context, accountID uint, limit int) ([]*TradeLog, error)
}
