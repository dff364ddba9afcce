// Package domain 包含限价单交易的领域模型
package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrderStatus 订单状态
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusExecuting OrderStatus = "EXECUTING"
	OrderStatusExecuted  OrderStatus = "EXECUTED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

// OrderType 买卖方向
type OrderType string

const (
	OrderTypeBuy  OrderType = "BUY"
	OrderTypeSell OrderType = "SELL"
)

// LimitOrder 限价单实体
// 由订单准入创建；状态与成交时间只允许执行服务或用户取消修改，
// EXECUTED 至多发生一次
type LimitOrder struct {
	gorm.Model
	// 账户 ID
	AccountID uint `gorm:"column:account_id;index;not null" json:"account_id"`
	// 股票 ID
	StockID uint `gorm:"column:stock_id;index;not null" json:"stock_id"`
	// 买卖方向
	OrderType OrderType `gorm:"column:order_type;type:varchar(10);not null" json:"order_type"`
	// 数量
	Quantity int64 `gorm:"column:quantity;not null" json:"quantity"`
	// 指定价
	Price decimal.Decimal `gorm:"column:price;type:decimal(20,2);not null" json:"price"`
	// 订单状态
	Status OrderStatus `gorm:"column:status;type:varchar(20);index;not null" json:"status"`
	// 成交时间，仅 EXECUTED 时设置
	ExecutedAt *time.Time `gorm:"column:executed_at" json:"executed_at"`
}

// TableName 指定表名
func (LimitOrder) TableName() string {
	return "limit_orders"
}

// NewLimitOrder 创建 PENDING 状态的限价单
func NewLimitOrder(accountID, stockID uint, orderType OrderType, quantity int64, price decimal.Decimal) *LimitOrder {
	return &LimitOrder{
		AccountID: accountID,
		StockID:   stockID,
		OrderType: orderType,
		Quantity:  quantity,
		Price:     price,
		Status:    OrderStatusPending,
	}
}

// Crosses 判断一个 tick 价格是否触发本单：
// 买单在 tick ≤ 指定价时成交，卖单在 tick ≥ 指定价时成交
func (o *LimitOrder) Crosses(tickPrice decimal.Decimal) bool {
	switch o.OrderType {
	case OrderTypeBuy:
		return tickPrice.LessThanOrEqual(o.Price)
	case OrderTypeSell:
		return tickPrice.GreaterThanOrEqual(o.Price)
	default:
		return false
	}
}

// IsExecutable 判断订单是否处于可执行状态
func (o *LimitOrder) IsExecutable() bool {
	return o.Status == OrderStatusPending || o.Status == OrderStatusExecuting
}

// CanBeCancelled 仅 PENDING 状态可以取消
func (o *LimitOrder) CanBeCancelled() bool {
	return o.Status == OrderStatusPending
}

// MarkExecuted 标记订单已成交并记录成交时间
func (o *LimitOrder) MarkExecuted(at time.Time) {
	o.Status = OrderStatusExecuted
	o.ExecutedAt = &at
}

// MarkCancelled 标记订单已取消
func (o *LimitOrder) MarkCancelled() {
	o.Status = OrderStatusCancelled
}

// LimitOrderRepository 限价单仓储接口
type LimitOrderRepository interface {
	// 保存订单
	Save(ctx context.Context, order *LimitOrder) error
	// 按 ID 获取订单；不存在时返回 (nil, nil)
	Get(ctx context.Context, id uint) (*LimitOrder, error)
	// 按 ID 获取订单并加行锁，须在事务内调用；不存在时返回 (nil, nil)
	GetForUpdate(ctx context.Context, id uint) (*LimitOrder, error)
	// 获取某股票下指定状态的全部订单
	ListByStockAndStatus(ctx context.Context, stockID uint, status OrderStatus) ([]*LimitOrder, error)
	// 获取某账户下指定状态的全部订单
	ListByAccountAndStatus(ctx context.Context, accountID uint, status OrderStatus) ([]*LimitOrder, error)
}

// TxManager 事务管理接口
// fn 内通过 context 传递事务，返回错误时整体回滚
type TxManager interface {
	Transaction(ctx context.Context, fn func(ctx context.Context) error) error
}
