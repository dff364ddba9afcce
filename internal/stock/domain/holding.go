package domain

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ErrInsufficientHolding 持仓数量不足以完成卖出
var ErrInsufficientHolding = errors.New("insufficient stock holding")

// 持仓均价的持久化小数位数，四舍五入（round half up）
const avgPriceScale = 2

// StockHolding 持仓实体
// (account, stock) 唯一；首次买入成交时惰性创建，数量不允许为负
type StockHolding struct {
	gorm.Model
	// 账户 ID
	AccountID uint `gorm:"column:account_id;uniqueIndex:idx_account_stock;not null" json:"account_id"`
	// 股票 ID
	StockID uint `gorm:"column:stock_id;uniqueIndex:idx_account_stock;not null" json:"stock_id"`
	// 持有数量
	Quantity int64 `gorm:"column:quantity;not null;default:0" json:"quantity"`
	// 平均买入价
	AveragePurchasePrice decimal.Decimal `gorm:"column:average_purchase_price;type:decimal(20,2);not null;default:0" json:"average_purchase_price"`
}

// TableName 指定表名
func (StockHolding) TableName() string {
	return "stock_holdings"
}

// NewStockHolding 创建空持仓
func NewStockHolding(accountID, stockID uint) *StockHolding {
	return &StockHolding{
		AccountID:            accountID,
		StockID:              stockID,
		Quantity:             0,
		AveragePurchasePrice: decimal.Zero,
	}
}

// ApplyBuy 将一笔买入成交并入持仓：
// newAvg = (oldAvg*oldQty + cost) / (oldQty+qty)，保留两位小数四舍五入
func (h *StockHolding) ApplyBuy(quantity int64, cost decimal.Decimal) {
	currentValue := h.AveragePurchasePrice.Mul(decimal.NewFromInt(h.Quantity))
	newQuantity := h.Quantity + quantity
	newValue := currentValue.Add(cost)

	h.AveragePurchasePrice = newValue.DivRound(decimal.NewFromInt(newQuantity), avgPriceScale)
	h.Quantity = newQuantity
}

// ApplySell 将一笔卖出成交并入持仓，均价不变；
// 数量不足时返回 ErrInsufficientHolding 且不做任何修改
func (h *StockHolding) ApplySell(quantity int64) error {
	if h.Quantity < quantity {
		return ErrInsufficientHolding
	}
	h.Quantity -= quantity
	return nil
}

// StockHoldingRepository 持仓仓储接口
type StockHoldingRepository interface {
	// 按 (account, stock) 获取持仓；不存在时返回 (nil, nil)
	GetByAccountAndStock(ctx context.Context, accountID, stockID uint) (*StockHolding, error)
	// 按 (account, stock) 获取持仓并加行锁，须在事务内调用；不存在时返回 (nil, nil)
	GetByAccountAndStockForUpdate(ctx context.Context, accountID, stockID uint) (*StockHolding, error)
	// 获取账户全部持仓
	ListByAccount(ctx context.Context, accountID uint) ([]*StockHolding, error)
	// 保存持仓
	Save(ctx context.Context, holding *StockHolding) error
}
