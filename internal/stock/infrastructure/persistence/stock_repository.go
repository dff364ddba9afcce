// Package persistence 股票与持仓仓储的 GORM 实现
package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/stockr/trading/internal/stock/domain"
	"github.com/stockr/trading/pkg/db"
	"gorm.io/gorm"
)

// StockRepository 股票仓储实现
type StockRepository struct {
	db *db.DB
}

// NewStockRepository 创建股票仓储
func NewStockRepository(database *db.DB) domain.StockRepository {
	return &StockRepository{db: database}
}

// GetByTicker 按代码获取股票
func (r *StockRepository) GetByTicker(ctx context.Context, ticker string) (*domain.Stock, error) {
	var stock domain.Stock
	if err := r.db.Session(ctx).Where("ticker = ?", ticker).First(&stock).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get stock by ticker: %w", err)
	}
	return &stock, nil
}

// Get 按 ID 获取股票
func (r *StockRepository) Get(ctx context.Context, id uint) (*domain.Stock, error) {
	var stock domain.Stock
	if err := r.db.Session(ctx).First(&stock, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get stock: %w", err)
	}
	return &stock, nil
}

// Save 保存股票
func (r *StockRepository) Save(ctx context.Context, stock *domain.Stock) error {
	if err := r.db.Session(ctx).Save(stock).Error; err != nil {
		return fmt.Errorf("failed to save stock: %w", err)
	}
	return nil
}
