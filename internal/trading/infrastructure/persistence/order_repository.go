// Package persistence 限价单与成交记录仓储的 GORM 实现
package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/stockr/trading/internal/trading/domain"
	"github.com/stockr/trading/pkg/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LimitOrderRepository 限价单仓储实现
type LimitOrderRepository struct {
	db *db.DB
}

// NewLimitOrderRepository 创建限价单仓储
func NewLimitOrderRepository(database *db.DB) domain.LimitOrderRepository {
	return &LimitOrderRepository{db: database}
}

// Save 保存订单
func (r *LimitOrderRepository) Save(ctx context.Context, order *domain.LimitOrder) error {
	if err := r.db.Session(ctx).Save(order).Error; err != nil {
		return fmt.Errorf("failed to save order: %w", err)
	}
	return nil
}

// Get 按 ID 获取订单
func (r *LimitOrderRepository) Get(ctx context.Context, id uint) (*domain.LimitOrder, error) {
	var order domain.LimitOrder
	if err := r.db.Session(ctx).First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return &order, nil
}

// GetForUpdate 按 ID 获取订单并加行锁
func (r *LimitOrderRepository) GetForUpdate(ctx context.Context, id uint) (*domain.LimitOrder, error) {
	var order domain.LimitOrder
	err := r.db.Session(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&order, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to lock order: %w", err)
	}
	return &order, nil
}

// ListByStockAndStatus 获取某股票下指定状态的全部订单
func (r *LimitOrderRepository) ListByStockAndStatus(ctx context.Context, stockID uint, status domain.OrderStatus) ([]*domain.LimitOrder, error) {
	var orders []*domain.LimitOrder
	err := r.db.Session(ctx).
		Where("stock_id = ? AND status = ?", stockID, status).
		Order("id ASC").
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list orders by stock: %w", err)
	}
	return orders, nil
}

// ListByAccountAndStatus 获取某账户下指定状态的全部订单
func (r *LimitOrderRepository) ListByAccountAndStatus(ctx context.Context, accountID uint, status domain.OrderStatus) ([]*domain.LimitOrder, error) {
	var orders []*domain.LimitOrder
	err := r.db.Session(ctx).
		Where("account_id = ? AND status = ?", accountID, status).
		Order("id DESC").
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list orders by account: %w", err)
	}
	return orders, nil
}
