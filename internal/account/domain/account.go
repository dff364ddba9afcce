// Package domain 包含账户服务的领域模型
package domain

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	// ErrAccountNotFound 账户不存在
	ErrAccountNotFound = errors.New("account not found")
	// ErrInsufficientBalance 账户余额不足
	ErrInsufficientBalance = errors.New("insufficient account balance")
	// ErrInvalidAmount 出入金金额必须为正数
	ErrInvalidAmount = errors.New("amount must be positive")
)

// Account 交易账户实体
// 余额是全系统唯一的共享可变资源之一，所有变更必须在持有行锁的事务内进行
type Account struct {
	gorm.Model
	// 账户号
	AccountNumber string `gorm:"column:account_number;type:varchar(32);uniqueIndex;not null" json:"account_number"`
	// 所属用户 ID
	UserID uint `gorm:"column:user_id;index;not null" json:"user_id"`
	// 余额，任何借记后都不允许为负
	Balance decimal.Decimal `gorm:"column:balance;type:decimal(20,2);not null" json:"balance"`
}

// TableName 指定表名
func (Account) TableName() string {
	return "accounts"
}

// Withdraw 借记余额；余额不足时返回 ErrInsufficientBalance 且不做任何修改
func (a *Account) Withdraw(amount decimal.Decimal) error {
	if a.Balance.LessThan(amount) {
		return ErrInsufficientBalance
	}
	a.Balance = a.Balance.Sub(amount)
	return nil
}

// Deposit 贷记余额
func (a *Account) Deposit(amount decimal.Decimal) {
	a.Balance = a.Balance.Add(amount)
}

// CanAfford 判断余额是否足以覆盖金额
func (a *Account) CanAfford(amount decimal.Decimal) bool {
	return a.Balance.GreaterThanOrEqual(amount)
}

// AccountRepository 账户仓储接口
type AccountRepository interface {
	// 按 ID 获取账户；不存在时返回 (nil, nil)
	Get(ctx context.Context, id uint) (*Account, error)
	// 按 ID 获取账户并加行锁（SELECT ... FOR UPDATE），须在事务内调用
	GetForUpdate(ctx context.Context, id uint) (*Account, error)
	// 保存账户
	Save(ctx context.Context, account *Account) error
}
