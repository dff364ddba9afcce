// Package application 实现限价单的准入、撮合与成交结算
package application

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	accountdomain "github.com/stockr/trading/internal/account/domain"
	stockdomain "github.com/stockr/trading/internal/stock/domain"
	"github.com/stockr/trading/internal/trading/domain"
	"github.com/stockr/trading/pkg/logger"
	"github.com/stockr/trading/pkg/metrics"
)

// ExecutionService 成交结算服务。
// 单笔订单的执行是一个原子单元：订单状态流转、资金/持仓变更、
// 成交记录追加要么全部生效，要么全部回滚。
type ExecutionService struct {
	txm      domain.TxManager
	orders   domain.LimitOrderRepository
	trades   domain.TradeLogRepository
	accounts accountdomain.AccountRepository
	holdings stockdomain.StockHoldingRepository
	metrics  *metrics.Metrics
}

// NewExecutionService 创建成交结算服务
func NewExecutionService(
	txm domain.TxManager,
	orders domain.LimitOrderRepository,
	trades domain.TradeLogRepository,
	accounts accountdomain.AccountRepository,
	holdings stockdomain.StockHoldingRepository,
	m *metrics.Metrics,
) *ExecutionService {
	return &ExecutionService{
		txm:      txm,
		orders:   orders,
		trades:   trades,
		accounts: accounts,
		holdings: holdings,
		metrics:  m,
	}
}

// Execute 以观察到的 tick 价执行一笔订单。
// 订单在事务内重新加锁取出，已不可执行时幂等跳过；
// 资金或持仓校验失败时订单转为 CANCELLED 并提交，失败原因向上返回；
// 仓储层错误导致整体回滚，订单保持 PENDING 等待下一个 tick。
func (s *ExecutionService) Execute(ctx context.Context, orderID uint, tickPrice decimal.Decimal) error {
	var (
		execErr  error
		executed bool
	)

	txErr := s.txm.Transaction(ctx, func(txCtx context.Context) error {
		order, err := s.orders.GetForUpdate(txCtx, orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return domain.ErrOrderNotFound
		}
		if !order.IsExecutable() {
			logger.Info(txCtx, "Order is no longer executable, skipping",
				"order_id", order.ID, "status", order.Status)
			return nil
		}

		var businessErr error
		switch order.OrderType {
		case domain.OrderTypeBuy:
			businessErr, err = s.settleBuy(txCtx, order, tickPrice)
		case domain.OrderTypeSell:
			businessErr, err = s.settleSell(txCtx, order, tickPrice)
		default:
			businessErr = fmt.Errorf("%w: %q", domain.ErrInvalidOrderType, order.OrderType)
		}
		if err != nil {
			return err
		}
		if businessErr != nil {
			// 执行时点的资金/持仓校验失败：取消订单并提交取消
			order.MarkCancelled()
			if err := s.orders.Save(txCtx, order); err != nil {
				return err
			}
			execErr = businessErr
			return nil
		}

		now := time.Now()
		order.MarkExecuted(now)
		if err := s.orders.Save(txCtx, order); err != nil {
			return err
		}
		if err := s.trades.Save(txCtx, &domain.TradeLog{
			OrderID:          order.ID,
			AccountID:        order.AccountID,
			StockID:          order.StockID,
			OrderType:        order.OrderType,
			ExecutedQuantity: order.Quantity,
			ExecutedPrice:    tickPrice,
			ExecutedAt:       now,
		}); err != nil {
			return err
		}
		executed = true
		return nil
	})
	if txErr != nil {
		s.metrics.ExecutionFailuresTotal.Inc()
		return txErr
	}
	if execErr != nil {
		s.metrics.ExecutionFailuresTotal.Inc()
		logger.Warn(ctx, "Order cancelled during execution",
			"order_id", orderID, "tick_price", tickPrice, "reason", execErr)
		return execErr
	}
	if executed {
		s.metrics.ExecutionsTotal.Inc()
		logger.Info(ctx, "Order executed", "order_id", orderID, "tick_price", tickPrice)
	}
	return nil
}

// settleBuy 买入结算：借记账户余额，买入量并入持仓。
// 第一个返回值是业务失败（余额不足等），第二个是仓储层错误。
func (s *ExecutionService) settleBuy(ctx context.Context, order *domain.LimitOrder, tickPrice decimal.Decimal) (error, error) {
	account, err := s.accounts.GetForUpdate(ctx, order.AccountID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return accountdomain.ErrAccountNotFound, nil
	}

	cost := tickPrice.Mul(decimal.NewFromInt(order.Quantity))
	if err := account.Withdraw(cost); err != nil {
		return err, nil
	}
	if err := s.accounts.Save(ctx, account); err != nil {
		return nil, err
	}

	holding, err := s.holdings.GetByAccountAndStockForUpdate(ctx, order.AccountID, order.StockID)
	if err != nil {
		return nil, err
	}
	if holding == nil {
		// 首次买入，惰性创建持仓
		holding = stockdomain.NewStockHolding(order.AccountID, order.StockID)
	}
	holding.ApplyBuy(order.Quantity, cost)
	if err := s.holdings.Save(ctx, holding); err != nil {
		return nil, err
	}
	return nil, nil
}

// settleSell 卖出结算：扣减持仓，卖出所得贷记账户余额。
// 加锁顺序与买入一致：先账户行，后持仓行。
func (s *ExecutionService) settleSell(ctx context.Context, order *domain.LimitOrder, tickPrice decimal.Decimal) (error, error) {
	account, err := s.accounts.GetForUpdate(ctx, order.AccountID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return accountdomain.ErrAccountNotFound, nil
	}

	holding, err := s.holdings.GetByAccountAndStockForUpdate(ctx, order.AccountID, order.StockID)
	if err != nil {
		return nil, err
	}
	if holding == nil {
		return stockdomain.ErrInsufficientHolding, nil
	}
	if err := holding.ApplySell(order.Quantity); err != nil {
		return err, nil
	}
	if err := s.holdings.Save(ctx, holding); err != nil {
		return nil, err
	}

	proceeds := tickPrice.Mul(decimal.NewFromInt(order.Quantity))
	account.Deposit(proceeds)
	if err := s.accounts.Save(ctx, account); err != nil {
		return nil, err
	}
	return nil, nil
}
