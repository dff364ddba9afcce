package persistence

import (
	"context"
	"fmt"

	"github.com/stockr/trading/internal/trading/domain"
	"github.com/stockr/trading/pkg/db"
)

// TradeLogRepository 成交记录仓储实现
type TradeLogRepository struct {
	db *db.DB
}

// NewTradeLogRepository 创建成交记录仓储
func NewTradeLogRepository(database *db.DB) domain.TradeLogRepository {
	return &TradeLogRepository{db: database}
}

// Save 追加成交记录
func (r *TradeLogRepository) Save(ctx context.Context, tradeLog *domain.TradeLog) error {
	if err := r.db.Session(ctx).Create(tradeLog).Error; err != nil {
		return fmt.Errorf("failed to save trade log: %w", err)
	}
	return nil
}

// ListByAccount 获取账户最近的成交记录
func (r *TradeLogRepository) ListByAccount(ctx context.Context, accountID uint, limit int) ([]*domain.TradeLog, error) {
	var logs []*domain.TradeLog
	query := r.db.Session(ctx).
		Where("account_id = ?", accountID).
		Order("executed_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("failed to list trade logs: %w", err)
	}
	return logs, nil
}
