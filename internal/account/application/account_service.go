// Package application 实现账户的出入金与查询
package application

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/stockr/trading/internal/account/domain"
	stockdomain "github.com/stockr/trading/internal/stock/domain"
	"github.com/stockr/trading/pkg/logger"
)

// TxManager 事务管理接口
type TxManager interface {
	Transaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// AccountService 账户应用服务
type AccountService struct {
	txm      TxManager
	accounts domain.AccountRepository
	holdings stockdomain.StockHoldingRepository
}

// NewAccountService 创建账户应用服务
func NewAccountService(txm TxManager, accounts domain.AccountRepository, holdings stockdomain.StockHoldingRepository) *AccountService {
	return &AccountService{txm: txm, accounts: accounts, holdings: holdings}
}

// CreateAccount 开户
func (s *AccountService) CreateAccount(ctx context.Context, userID uint, accountNumber string, initialBalance decimal.Decimal) (*domain.Account, error) {
	if initialBalance.IsNegative() {
		return nil, domain.ErrInvalidAmount
	}
	account := &domain.Account{
		AccountNumber: accountNumber,
		UserID:        userID,
		Balance:       initialBalance,
	}
	if err := s.accounts.Save(ctx, account); err != nil {
		return nil, err
	}
	logger.Info(ctx, "Account created", "account_id", account.ID, "account_number", accountNumber)
	return account, nil
}

// GetAccount 获取账户
func (s *AccountService) GetAccount(ctx context.Context, accountID uint) (*domain.Account, error) {
	account, err := s.accounts.Get(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, domain.ErrAccountNotFound
	}
	return account, nil
}

// Deposit 入金
func (s *AccountService) Deposit(ctx context.Context, accountID uint, amount decimal.Decimal) (*domain.Account, error) {
	if !amount.IsPositive() {
		return nil, domain.ErrInvalidAmount
	}

	var account *domain.Account
	err := s.txm.Transaction(ctx, func(txCtx context.Context) error {
		var err error
		account, err = s.accounts.GetForUpdate(txCtx, accountID)
		if err != nil {
			return err
		}
		if account == nil {
			return domain.ErrAccountNotFound
		}
		account.Deposit(amount)
		return s.accounts.Save(txCtx, account)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "Deposit applied", "account_id", accountID, "amount", amount)
	return account, nil
}

// Withdraw 出金；余额不足时返回 ErrInsufficientBalance
func (s *AccountService) Withdraw(ctx context.Context, accountID uint, amount decimal.Decimal) (*domain.Account, error) {
	if !amount.IsPositive() {
		return nil, domain.ErrInvalidAmount
	}

	var account *domain.Account
	err := s.txm.Transaction(ctx, func(txCtx context.Context) error {
		var err error
		account, err = s.accounts.GetForUpdate(txCtx, accountID)
		if err != nil {
			return err
		}
		if account == nil {
			return domain.ErrAccountNotFound
		}
		if err := account.Withdraw(amount); err != nil {
			return err
		}
		return s.accounts.Save(txCtx, account)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "Withdrawal applied", "account_id", accountID, "amount", amount)
	return account, nil
}

// ListHoldings 获取账户全部持仓
func (s *AccountService) ListHoldings(ctx context.Context, accountID uint) ([]*stockdomain.StockHolding, error) {
	return s.holdings.ListByAccount(ctx, accountID)
}
