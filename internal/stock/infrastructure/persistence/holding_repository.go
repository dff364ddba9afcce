package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/stockr/trading/internal/stock/domain"
	"github.com/stockr/trading/pkg/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StockHoldingRepository 持仓仓储实现
type StockHoldingRepository struct {
	db *db.DB
}

// NewStockHoldingRepository 创建持仓仓储
func NewStockHoldingRepository(database *db.DB) domain.StockHoldingRepository {
	return &StockHoldingRepository{db: database}
}

// GetByAccountAndStock 按 (account, stock) 获取持仓
func (r *StockHoldingRepository) GetByAccountAndStock(ctx context.Context, accountID, stockID uint) (*domain.StockHolding, error) {
	var holding domain.StockHolding
	err := r.db.Session(ctx).
		Where("account_id = ? AND stock_id = ?", accountID, stockID).
		First(&holding).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get holding: %w", err)
	}
	return &holding, nil
}

// GetByAccountAndStockForUpdate 按 (account, stock) 获取持仓并加行锁
func (r *StockHoldingRepository) GetByAccountAndStockForUpdate(ctx context.Context, accountID, stockID uint) (*domain.StockHolding, error) {
	var holding domain.StockHolding
	err := r.db.Session(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("account_id = ? AND stock_id = ?", accountID, stockID).
		First(&holding).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to lock holding: %w", err)
	}
	return &holding, nil
}

// ListByAccount 获取账户全部持仓
func (r *StockHoldingRepository) ListByAccount(ctx context.Context, accountID uint) ([]*domain.StockHolding, error) {
	var holdings []*domain.StockHolding
	err := r.db.Session(ctx).
		Where("account_id = ?", accountID).
		Order("stock_id ASC").
		Find(&holdings).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list holdings: %w", err)
	}
	return holdings, nil
}

// Save 保存持仓
func (r *StockHoldingRepository) Save(ctx context.Context, holding *domain.StockHolding) error {
	if err := r.db.Session(ctx).Save(holding).Error; err != nil {
		return fmt.Errorf("failed to save holding: %w", err)
	}
	return nil
}
