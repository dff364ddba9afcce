package application

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	accountdomain "github.com/stockr/trading/internal/account/domain"
	stockdomain "github.com/stockr/trading/internal/stock/domain"
	"github.com/stockr/trading/internal/trading/domain"
	"github.com/stockr/trading/pkg/logger"
	"github.com/stockr/trading/pkg/metrics"
)

// PriceProvider 提供某股票的最新参考价；无行情时第二个返回值为 false
type PriceProvider interface {
	LatestPrice(ctx context.Context, stockCode string) (decimal.Decimal, bool, error)
}

// OrderService 订单准入服务：校验、落库，并对已触价订单立即执行
type OrderService struct {
	txm      domain.TxManager
	orders   domain.LimitOrderRepository
	trades   domain.TradeLogRepository
	accounts accountdomain.AccountRepository
	stocks   stockdomain.StockRepository
	holdings stockdomain.StockHoldingRepository
	prices   PriceProvider
	ledger   OrderExecutor
	metrics  *metrics.Metrics
}

// NewOrderService 创建订单准入服务
func NewOrderService(
	txm domain.TxManager,
	orders domain.LimitOrderRepository,
	trades domain.TradeLogRepository,
	accounts accountdomain.AccountRepository,
	stocks stockdomain.StockRepository,
	holdings stockdomain.StockHoldingRepository,
	prices PriceProvider,
	ledger OrderExecutor,
	m *metrics.Metrics,
) *OrderService {
	return &OrderService{
		txm:      txm,
		orders:   orders,
		trades:   trades,
		accounts: accounts,
		stocks:   stocks,
		holdings: holdings,
		prices:   prices,
		ledger:   ledger,
		metrics:  m,
	}
}

// CreateOrder 准入一笔限价单。
// 准入检查（数量、价格、参考价、余额/持仓）全部通过后以 PENDING 落库；
// 当前参考价已触价时立即交给执行侧，立即执行的失败随订单一起返回。
func (s *OrderService) CreateOrder(
	ctx context.Context,
	accountID uint,
	ticker string,
	orderType domain.OrderType,
	quantity int64,
	price decimal.Decimal,
) (*domain.LimitOrder, error) {
	if orderType != domain.OrderTypeBuy && orderType != domain.OrderTypeSell {
		return nil, s.reject(ctx, domain.ErrInvalidOrderType)
	}
	if quantity <= 0 {
		return nil, s.reject(ctx, domain.ErrInvalidQuantity)
	}
	if !price.IsPositive() {
		return nil, s.reject(ctx, domain.ErrInvalidPrice)
	}

	stock, err := s.stocks.GetByTicker(ctx, ticker)
	if err != nil {
		return nil, err
	}
	if stock == nil {
		return nil, s.reject(ctx, stockdomain.ErrStockNotFound)
	}

	current, ok, err := s.prices.LatestPrice(ctx, ticker)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, s.reject(ctx, domain.ErrPriceUnavailable)
	}

	order := domain.NewLimitOrder(accountID, stock.ID, orderType, quantity, price)

	err = s.txm.Transaction(ctx, func(txCtx context.Context) error {
		account, err := s.accounts.GetForUpdate(txCtx, accountID)
		if err != nil {
			return err
		}
		if account == nil {
			return accountdomain.ErrAccountNotFound
		}

		switch orderType {
		case domain.OrderTypeBuy:
			// 按指定价预估所需资金
			required := price.Mul(decimal.NewFromInt(quantity))
			if !account.CanAfford(required) {
				return accountdomain.ErrInsufficientBalance
			}
		case domain.OrderTypeSell:
			holding, err := s.holdings.GetByAccountAndStock(txCtx, accountID, stock.ID)
			if err != nil {
				return err
			}
			if holding == nil || holding.Quantity < quantity {
				return stockdomain.ErrInsufficientHolding
			}
		}

		return s.orders.Save(txCtx, order)
	})
	if err != nil {
		if isAdmissionReject(err) {
			return nil, s.reject(ctx, err)
		}
		return nil, err
	}

	s.metrics.OrdersCreated.Inc()
	logger.Info(ctx, "Order admitted",
		"order_id", order.ID, "account_id", accountID, "ticker", ticker,
		"order_type", orderType, "quantity", quantity, "price", price)

	if order.Crosses(current) {
		execErr := s.ledger.Execute(ctx, order.ID, current)
		if refreshed, err := s.orders.Get(ctx, order.ID); err == nil && refreshed != nil {
			order = refreshed
		}
		if execErr != nil {
			return order, execErr
		}
	}

	return order, nil
}

// CancelOrder 取消一笔 PENDING 订单；仅订单所属账户可取消
func (s *OrderService) CancelOrder(ctx context.Context, accountID, orderID uint) error {
	err := s.txm.Transaction(ctx, func(txCtx context.Context) error {
		order, err := s.orders.GetForUpdate(txCtx, orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return domain.ErrOrderNotFound
		}
		if order.AccountID != accountID {
			return domain.ErrNotOrderOwner
		}
		if !order.CanBeCancelled() {
			return domain.ErrInvalidOrderState
		}
		order.MarkCancelled()
		return s.orders.Save(txCtx, order)
	})
	if err != nil {
		return err
	}

	s.metrics.OrdersCancelled.Inc()
	logger.Info(ctx, "Order cancelled", "order_id", orderID, "account_id", accountID)
	return nil
}

// GetOrder 获取一笔订单；仅订单所属账户可见
func (s *OrderService) GetOrder(ctx context.Context, accountID, orderID uint) (*domain.LimitOrder, error) {
	order, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, domain.ErrOrderNotFound
	}
	if order.AccountID != accountID {
		return nil, domain.ErrNotOrderOwner
	}
	return order, nil
}

// ListPendingOrders 获取账户全部 PENDING 订单
func (s *OrderService) ListPendingOrders(ctx context.Context, accountID uint) ([]*domain.LimitOrder, error) {
	return s.orders.ListByAccountAndStatus(ctx, accountID, domain.OrderStatusPending)
}

// ListTrades 获取账户最近的成交记录
func (s *OrderService) ListTrades(ctx context.Context, accountID uint, limit int) ([]*domain.TradeLog, error) {
	return s.trades.ListByAccount(ctx, accountID, limit)
}

func (s *OrderService) reject(ctx context.Context, err error) error {
	s.metrics.OrdersRejected.Inc()
	logger.Warn(ctx, "Order rejected at admission", "reason", err)
	return err
}

// isAdmissionReject 区分准入校验失败与仓储层错误
func isAdmissionReject(err error) bool {
	return errors.Is(err, accountdomain.ErrAccountNotFound) ||
		errors.Is(err, accountdomain.ErrInsufficientBalance) ||
		errors.Is(err, stockdomain.ErrInsufficientHolding)
}
