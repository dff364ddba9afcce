// Package domain 包含股票与持仓的领域模型
package domain

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// ErrStockNotFound 股票不存在（未上市或已退市的代码）
var ErrStockNotFound = errors.New("stock not found")

// Stock 股票实体
type Stock struct {
	gorm.Model
	// 股票代码（如 005930）
	Ticker string `gorm:"column:ticker;type:varchar(20);uniqueIndex;not null" json:"ticker"`
	// 股票名称
	Name string `gorm:"column:name;type:varchar(100);not null" json:"name"`
	// 所属市场
	Market string `gorm:"column:market;type:varchar(20)" json:"market"`
}

// TableName 指定表名
func (Stock) TableName() string {
	return "stocks"
}

// StockRepository 股票仓储接口
type StockRepository interface {
	// 按代码获取股票；不存在时返回 (nil, nil)
	GetByTicker(ctx context.Context, ticker string) (*Stock, error)
	// 按 ID 获取股票；不存在时返回 (nil, nil)
	Get(ctx context.Context, id uint) (*Stock, error)
	// 保存股票
	Save(ctx context.Context, stock *Stock) error
}
