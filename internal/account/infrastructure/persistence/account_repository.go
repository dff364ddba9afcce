// Package persistence 账户仓储的 GORM 实现
package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/stockr/trading/internal/account/domain"
	"github.com/stockr/trading/pkg/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AccountRepository 账户仓储实现
type AccountRepository struct {
	db *db.DB
}

// NewAccountRepository 创建账户仓储
func NewAccountRepository(database *db.DB) domain.AccountRepository {
	return &AccountRepository{db: database}
}

// Get 按 ID 获取账户
func (r *AccountRepository) Get(ctx context.Context, id uint) (*domain.Account, error) {
	var account domain.Account
	if err := r.db.Session(ctx).First(&account, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return &account, nil
}

// GetForUpdate 按 ID 获取账户并加行锁
func (r *AccountRepository) GetForUpdate(ctx context.Context, id uint) (*domain.Account, error) {
	var account domain.Account
	err := r.db.Session(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&account, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to lock account: %w", err)
	}
	return &account, nil
}

// Save 保存账户
func (r *AccountRepository) Save(ctx context.Context, account *domain.Account) error {
	if err := r.db.Session(ctx).Save(account).Error; err != nil {
		return fmt.Errorf("failed to save account: %w", err)
	}
	return nil
}
